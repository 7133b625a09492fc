package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameLength bounds folder names; it matches the name column width.
const MaxNameLength = 255

var ErrInvalidName = errors.New("invalid folder name")

// folderNameRegexp rejects path separators and control characters.
var folderNameRegexp = regexp.MustCompile(`^[^/\\\x00-\x1f\x7f]+$`)

// ValidateFolderName checks a name used as one segment of an object key.
func ValidateFolderName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return false
	}
	return folderNameRegexp.MatchString(name)
}

// SanitizeFolderName trims whitespace and validates the folder name.
// Returns the sanitized name and a boolean indicating if it's valid.
func SanitizeFolderName(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if !ValidateFolderName(trimmed) {
		return "", false
	}
	return trimmed, true
}
