// Package phone normalizes Philippine mobile numbers to E.164.
package phone

import (
	"errors"
	"strings"
)

const dialCode = "+63"

var ErrInvalid = errors.New("invalid_phone")

// Normalize converts common local formats to +63XXXXXXXXXX:
//
//	09171234567   -> +639171234567
//	639171234567  -> +639171234567
//	+639171234567 -> unchanged
//
// Spaces and dashes are stripped first. Anything else is rejected.
func Normalize(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return "", ErrInvalid
	}

	switch {
	case strings.HasPrefix(cleaned, dialCode):
		// already normalized
	case strings.HasPrefix(cleaned, "63"):
		cleaned = "+" + cleaned
	case strings.HasPrefix(cleaned, "0"):
		cleaned = dialCode + cleaned[1:]
	case strings.HasPrefix(cleaned, "9"):
		cleaned = dialCode + cleaned
	default:
		return "", ErrInvalid
	}

	if len(cleaned) != len(dialCode)+10 {
		return "", ErrInvalid
	}
	for _, r := range cleaned[1:] {
		if r < '0' || r > '9' {
			return "", ErrInvalid
		}
	}
	return cleaned, nil
}
