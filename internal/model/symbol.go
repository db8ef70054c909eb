package model

import (
	"strings"
	"unicode"
)

// IsTicker reports whether s looks like an exchange ticker: 2 to 12 letters
// or digits. Chain addresses are longer and fail this check.
func IsTicker(s string) bool {
	if len(s) < 2 || len(s) > 12 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// CanonicalSymbol trims s and upper-cases it when it is a ticker. Anything
// else is treated as a chain address, whose case is significant (base58 mints).
func CanonicalSymbol(s string) string {
	s = strings.TrimSpace(s)
	if IsTicker(s) {
		return strings.ToUpper(s)
	}
	return s
}
