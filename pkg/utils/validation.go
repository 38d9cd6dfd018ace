package utils

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`(?i)^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// IsEmpty reports whether s is blank once trimmed.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsValidEmail accepts staff login addresses in any letter case; callers
// store them lowercased.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func IsValidPasswordLength(password string, minLength int) bool {
	return len(password) >= minLength
}
