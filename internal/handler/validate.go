package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/TooLazyToCreate/bookshelf-service/internal/apperr"
	"github.com/go-playground/validator/v10"
)

const (
	msgPasswordShort = "Password must be greater than 7 characters"
	msgPasswordWeak  = "Password must be at least one uppercase, lowercase, number and special character"
)

const passwordSpecials = `!@<>%()&|#$+*~_.,?;:/^\-`

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		return name
	})
	_ = v.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})
	return v
}

// strongPassword wants an upper, a lower, a digit and a special character.
func strongPassword(s string) bool {
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && lower && digit && special
}

/* validate runs the struct tags and turns the first failure into a
 * BadRequest carrying a human readable message. */
func (h *Handler) validate(dto any) error {
	err := h.validator.Struct(dto)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(apperr.BadRequest, "Invalid request", err)
	}
	return apperr.NewBadRequest(fieldMessage(verrs[0]))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " should not be empty"
	case "email":
		return field + " must be an email"
	case "alpha":
		return field + " must contain only letters (a-zA-Z)"
	case "uuid4", "uuid":
		return field + " must be a valid id"
	case "strong_password":
		return msgPasswordWeak
	case "min":
		if field == "password" && fe.Param() == "8" {
			return msgPasswordShort
		}
		return fmt.Sprintf("%s must be longer than or equal to %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must not be greater than %s", field, fe.Param())
	}
	return field + " is invalid"
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// capitalize trims and turns "dUBARIL" into "Dubaril".
func capitalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
