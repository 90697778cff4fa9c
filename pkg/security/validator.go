package security

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxNameLength defines the maximum allowed length for a person name
	MaxNameLength = 100

	// SafeTextTag is the validator tag registered by RegisterValidators
	SafeTextTag = "safetext"
)

// markupPatterns contains regex patterns that indicate markup or script injection
var markupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(<script|</script|javascript:|vbscript:|onload=|onerror=)`),
	regexp.MustCompile(`[<>]`),
}

// ValidateName validates a person name and returns it trimmed
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("name is empty")
	}

	if len([]rune(name)) > MaxNameLength {
		return "", errors.New("name too long")
	}

	if !IsSafeText(name) {
		return "", errors.New("name contains invalid characters")
	}

	return name, nil
}

// IsSafeText reports whether s is free of markup and limited to characters found in names
func IsSafeText(s string) bool {
	for _, pattern := range markupPatterns {
		if pattern.MatchString(s) {
			return false
		}
	}

	for _, char := range s {
		if !isValidNameChar(char) {
			return false
		}
	}

	return true
}

// isValidNameChar checks if a character may appear in a person name
func isValidNameChar(char rune) bool {
	return unicode.IsLetter(char) || unicode.IsMark(char) ||
		char == ' ' || char == '-' || char == '\'' || char == '.'
}

// RegisterValidators adds the safetext tag to v
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation(SafeTextTag, func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		return IsSafeText(field.String())
	})
}
