package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignRazorpay returns hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func SignRazorpay(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyRazorpay compares the expected signature in constant time.
func VerifyRazorpay(secret, orderID, paymentID, signature string) bool {
	expected := SignRazorpay(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
