// Package validation holds the jellydator/validation rules shared by request
// DTOs, the password policy, CLI input and configuration.
package validation

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/billvault/internal/errors"
)

// WrapValidationError turns a rule failure into ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank rejects strings that are empty after trimming whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoWhitespace rejects leading or trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// PasswordStrength checks length bounds and required character classes.
// A zero MaxLength means no upper bound. All missing classes are reported in
// one error.
type PasswordStrength struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumber  bool
	RequireSpecial bool
}

type charClasses struct {
	upper, lower, number, special bool
}

func classify(s string) charClasses {
	var c charClasses
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsNumber(r):
			c.number = true
		case unicode.IsPunct(r), unicode.IsSymbol(r), unicode.IsSpace(r):
			c.special = true
		}
	}
	return c
}

// Validate implements validation.Rule.
func (p PasswordStrength) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_password_type", "password must be a string")
	}

	length := utf8.RuneCountInString(s)
	if length < p.MinLength {
		return validation.NewError(
			"validation_password_min_length",
			"password must be at least "+strconv.Itoa(p.MinLength)+" characters",
		)
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		return validation.NewError(
			"validation_password_max_length",
			"password must be at most "+strconv.Itoa(p.MaxLength)+" characters",
		)
	}

	classes := classify(s)
	var missing []string
	if p.RequireUpper && !classes.upper {
		missing = append(missing, "an uppercase letter")
	}
	if p.RequireLower && !classes.lower {
		missing = append(missing, "a lowercase letter")
	}
	if p.RequireNumber && !classes.number {
		missing = append(missing, "a number")
	}
	if p.RequireSpecial && !classes.special {
		missing = append(missing, "a special character")
	}
	if len(missing) > 0 {
		return validation.NewError(
			"validation_password_classes",
			"password must contain "+strings.Join(missing, ", "),
		)
	}

	return nil
}
