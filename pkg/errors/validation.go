package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxTabLength bounds the indentation unit; anything longer is a typo.
const maxTabLength = 32

// ValidateTab validates an indentation unit. Empty is allowed and disables
// indentation. Line breaks and control characters other than tab would
// break the line structure of the output and are rejected.
func ValidateTab(tab string) error {
	if len(tab) > maxTabLength {
		return New(ErrCodeInvalidOption, "tab too long (max %d characters)", maxTabLength)
	}
	for _, r := range tab {
		if r != '\t' && unicode.IsControl(r) {
			return New(ErrCodeInvalidOption, "tab contains control character %q", r)
		}
	}
	return nil
}

// tagNameRegex matches XML names without namespace-specific validation.
var tagNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._:-]*$`)

// ValidateTagName validates an element name, e.g. an entry of the raw-text
// tag list.
func ValidateTagName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "tag name cannot be empty")
	}
	if !tagNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid tag name: %q", name)
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.Split(strings.ReplaceAll(path, "\\", "/"), "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
