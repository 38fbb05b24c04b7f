// Package credentials validates the shape of sign-in, registration and
// recovery input. It performs no I/O.
package credentials

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// SpecialChars is the set a password must draw at least one character from.
const SpecialChars = `!@#$%^&*(),.?":{}|<>`

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 8

// OTPLength is the number of digits in a one-time code.
const OTPLength = 5

var (
	emailPattern = regexp.MustCompile(`^[^\s@,]+@[^,\s@]+(\.[^\s@.,]+)+$`)
	otpPattern   = regexp.MustCompile(`^\d{5}$`)
)

// NormalizeEmail trims surrounding whitespace. Case is preserved because the
// registration API compares logins verbatim.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// IsValidEmail reports whether email has a single "@", a dotted domain, no
// commas or whitespace and no consecutive dots.
func IsValidEmail(email string) bool {
	trimmed := NormalizeEmail(email)
	return emailPattern.MatchString(strings.ToLower(trimmed)) && !strings.Contains(trimmed, "..")
}

// IsValidPassword reports whether password is long enough and contains a
// special character.
func IsValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength && strings.ContainsAny(password, SpecialChars)
}

// IsValidOTP reports whether code is exactly five ASCII digits.
func IsValidOTP(code string) bool {
	return otpPattern.MatchString(code)
}

// CheckEmail classifies a raw email without going through a form struct.
func CheckEmail(email string) (Kind, bool) {
	trimmed := NormalizeEmail(email)
	switch {
	case trimmed == "":
		return EmailEmpty, false
	case !IsValidEmail(trimmed):
		return EmailMalformed, false
	default:
		return "", true
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
