package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	usernameMinLength = 3
	usernameMaxLength = 50
	passwordMinLength = 8
	passwordMaxLength = 128
	// emailMaxLength is the longest address the stores accept.
	emailMaxLength = 320
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// normalizeEmail trims and lower-cases an address. All lookups and writes
// go through it, so "Alice@X.com " and "alice@x.com" are the same account.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validUsername(username string) bool {
	n := utf8.RuneCountInString(username)
	return n >= usernameMinLength && n <= usernameMaxLength
}

func validEmail(email string) bool {
	return len(email) <= emailMaxLength && emailPattern.MatchString(email)
}

// validPassword checks the length of password and that the confirmation
// matches it.
func validPassword(password, confirmPassword string) bool {
	n := utf8.RuneCountInString(password)
	return n >= passwordMinLength && n <= passwordMaxLength && password == confirmPassword
}
