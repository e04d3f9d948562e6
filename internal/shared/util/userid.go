package util

import (
	"errors"
	"regexp"
	"strings"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// ErrInvalidUserID is returned when a user ID fails ValidateUserID.
var ErrInvalidUserID = errors.New("invalid user id")

// ValidateUserID trims the ID and checks it against the allowed charset.
// The shared "guest" identity is never accepted.
func ValidateUserID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if strings.EqualFold(id, "guest") || !userIDPattern.MatchString(id) {
		return "", ErrInvalidUserID
	}
	return id, nil
}
