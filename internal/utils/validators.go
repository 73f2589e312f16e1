package utils

import (
	"strings"
	"unicode"
)

// IsValidEmail applies a shallow shape check: something before an '@',
// something dotted after it. Deliverability is proven by the verification
// email, not here.
func IsValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

// IsComplexPassword requires at least 8 characters spanning upper, lower,
// digit, and special classes.
func IsComplexPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}
