package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"dojo-hub/internal/domain"
)

var localePattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{2,8})*$`)

// Validator wraps the go-playground validator with custom rules.
// It satisfies echo.Validator.
type Validator struct {
	validator *validator.Validate
}

// New creates a new validator instance with custom rules
func New() *Validator {
	validate := validator.New()

	registerCustomValidators(validate)

	// Use JSON field names for validation error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validator: validate}
}

// Validate validates a struct and returns a *ValidationError on failure.
func (v *Validator) Validate(i any) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs)
	}
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}

// ValidationError represents a validation error with user-friendly messages
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, e.Errors[field])
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, ", "))
}

// Unwrap makes errors.Is(err, domain.ErrValidation) hold.
func (e *ValidationError) Unwrap() error {
	return domain.ErrValidation
}

// NewValidationError creates a ValidationError from validator.ValidationErrors
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	out := make(map[string]string, len(errs))

	for _, err := range errs {
		field := err.Field()

		switch err.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "email":
			out[field] = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s characters long", field, err.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s characters long", field, err.Param())
		case "url":
			out[field] = fmt.Sprintf("%s must be a valid URL", field)
		case "oneof":
			out[field] = fmt.Sprintf("%s must be one of [%s]", field, err.Param())
		case "password":
			out[field] = "password must be 8 to 72 bytes and contain a letter and a number"
		case "locale":
			out[field] = fmt.Sprintf("%s must be a language tag such as en or ja-JP", field)
		case "hextoken":
			out[field] = fmt.Sprintf("%s is malformed", field)
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}

	return &ValidationError{Errors: out}
}

func registerCustomValidators(validate *validator.Validate) {
	// 72 bytes is the bcrypt input limit.
	_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		if len(password) < 8 || len(password) > 72 {
			return false
		}
		var hasLetter, hasDigit bool
		for _, r := range password {
			switch {
			case unicode.IsLetter(r):
				hasLetter = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		return hasLetter && hasDigit
	})

	_ = validate.RegisterValidation("locale", func(fl validator.FieldLevel) bool {
		return localePattern.MatchString(fl.Field().String())
	})

	// Credential tokens are 32 random bytes, hex encoded.
	_ = validate.RegisterValidation("hextoken", func(fl validator.FieldLevel) bool {
		token := fl.Field().String()
		if len(token) != 64 {
			return false
		}
		for _, r := range token {
			if !strings.ContainsRune("0123456789abcdef", r) {
				return false
			}
		}
		return true
	})
}
