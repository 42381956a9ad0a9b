// Package validation holds the custom binding rules registered on gin's validator
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Rule names usable in binding tags
const (
	RuleNotBlank = "notblank"
	RuleTagName  = "tagname"
)

// Validation rule patterns
var (
	// Post tags: letters, digits, spaces, '-' and '_', starting with a letter or digit
	TagPattern = `^[\p{L}\p{N}][\p{L}\p{N} _\-]*$`

	TagMaxLength = 40
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Tag *regexp.Regexp
}{
	Tag: regexp.MustCompile(TagPattern),
}

// NotBlank rejects strings that are empty after trimming whitespace
func NotBlank(fl validator.FieldLevel) bool {
	return IsNotBlank(fl.Field().String())
}

// IsNotBlank reports whether s has any non-whitespace content
func IsNotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// TagName accepts a single post tag
func TagName(fl validator.FieldLevel) bool {
	return IsTagName(fl.Field().String())
}

// IsTagName reports whether s is a well-formed tag
func IsTagName(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > TagMaxLength {
		return false
	}
	return CompiledPatterns.Tag.MatchString(s)
}

// Register adds the custom rules to v
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		RuleNotBlank: NotBlank,
		RuleTagName:  TagName,
	}
	for name, fn := range rules {
		if err := v.RegisterValidation(name, fn); err != nil {
			return fmt.Errorf("register %s rule: %w", name, err)
		}
	}
	return nil
}
