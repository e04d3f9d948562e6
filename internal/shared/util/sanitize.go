package util

import (
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidFileName is returned by CleanFileName.
var ErrInvalidFileName = errors.New("invalid file name")

// CleanFileName accepts a bare artifact name such as "resume.pdf". Paths,
// traversal, hidden files and control characters are rejected rather than
// rewritten, so a signed name always maps to exactly one stored object.
func CleanFileName(name string) (string, error) {
	if name == "" || len(name) > 128 || strings.HasPrefix(name, ".") || strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	for _, r := range name {
		if r == '/' || r == '\\' || unicode.IsControl(r) || unicode.IsSpace(r) {
			return "", ErrInvalidFileName
		}
	}
	return name, nil
}
