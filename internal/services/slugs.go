package services

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
)

const maxSlugAttempts = 50

func slugOf(source string) string {
	if s := slug.Make(source); s != "" {
		return s
	}
	return "item"
}

// uniqueSlug slugifies source and appends -2, -3, ... until exists reports
// the candidate free.
func uniqueSlug(ctx context.Context, source string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := slugOf(source)
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", source, maxSlugAttempts)
}
