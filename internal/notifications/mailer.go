package notifications

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"storefront/internal/config"
	"storefront/pkg/logger"
)

// Mail is a plain-text message.
type Mail struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// SMTPMailer delivers mail through an authenticated SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth: auth,
		from: cfg.From,
		send: smtp.SendMail,
	}
}

func (s *SMTPMailer) Send(_ context.Context, m Mail) error {
	if err := s.send(s.addr, s.auth, s.from, []string{m.To}, s.render(m)); err != nil {
		return fmt.Errorf("send mail to %s: %w", m.To, err)
	}
	return nil
}

func (s *SMTPMailer) render(m Mail) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	if m.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", headerValue(m.ReplyTo))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", headerValue(m.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// headerValue strips line breaks so user input cannot inject headers.
func headerValue(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// LogMailer is used when SMTP is not configured.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (l *LogMailer) Send(ctx context.Context, m Mail) error {
	l.log.Info(l.log.WithFields(ctx, map[string]any{
		"to":      m.To,
		"subject": m.Subject,
	}), "mail not sent, smtp is not configured")
	return nil
}

// NewMailer picks SMTP when a host and recipient are configured.
func NewMailer(cfg config.SMTPConfig, log *logger.Logger) Mailer {
	if cfg.Host == "" || cfg.AdminTo == "" {
		return NewLogMailer(log)
	}
	return NewSMTPMailer(cfg)
}
