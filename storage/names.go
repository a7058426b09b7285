package storage

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameLength bounds campaign names and template identifiers
const MaxNameLength = 50

var (
	ErrInvalidName      = errors.New("invalid campaign name")
	ErrInvalidUpload    = errors.New("only .html files are accepted")
	ErrTemplateNotFound = errors.New("template not found")
	ErrMissingSource    = errors.New("select a template or upload a file")
	ErrNotFound         = errors.New("not found")
	ErrUserExists       = errors.New("user already exists")
)

const forbiddenNameChars = `<>:"|?*`

// ValidateName reports whether name is safe to use as a file stem. Names
// with path separators, traversal sequences, shell-reserved characters or
// control characters are rejected.
func ValidateName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`+forbiddenNameChars) || strings.Contains(name, "..") {
		return ErrInvalidName
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ErrInvalidName
		}
	}
	return nil
}

// validatePathToken applies the traversal checks only, for identifiers such
// as template file names that legitimately contain dots.
func validatePathToken(token string) error {
	if token == "" || strings.ContainsAny(token, `/\`) || strings.Contains(token, "..") {
		return ErrInvalidName
	}
	return nil
}
