package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Validator wraps the go-playground validator with custom rules
type Validator struct {
	validator *validator.Validate
}

var (
	defaultOnce sync.Once
	defaultInst *Validator
)

// Default returns a process-wide validator. The underlying validator caches
// struct metadata so sharing one instance is preferred.
func Default() *Validator {
	defaultOnce.Do(func() { defaultInst = New() })
	return defaultInst
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

	return &Validator{
		validator: validate,
	}
}

// Validate validates a struct and returns validation errors
func (v *Validator) Validate(i any) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs)
	}
	return fmt.Errorf("validate: %w", err)
}

// ValidateVar validates a single variable
func (v *Validator) ValidateVar(field any, tag string) error {
	return v.validator.Var(field, tag)
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
		messages = append(messages, fmt.Sprintf("%s: %s", field, e.Errors[field]))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, ", "))
}

// NewFieldError builds a ValidationError for a single field.
func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{Errors: map[string]string{field: message}}
}

// NewValidationError creates a ValidationError from validator.ValidationErrors
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	messages := make(map[string]string, len(errs))

	for _, err := range errs {
		field := err.Field()

		switch err.Tag() {
		case "required":
			messages[field] = fmt.Sprintf("%s is required", field)
		case "email":
			messages[field] = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			messages[field] = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			messages[field] = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "uuid4":
			messages[field] = fmt.Sprintf("%s must be a valid UUID", field)
		case "username":
			messages[field] = "username must be 3-50 characters of letters, numbers, dots, hyphens and underscores"
		case "pet_type":
			messages[field] = "pet_type must be non-blank and at most 50 characters"
		case "user_role":
			messages[field] = "role must be one of: user, editor, admin"
		case "url":
			messages[field] = fmt.Sprintf("%s must be a valid URL", field)
		default:
			messages[field] = fmt.Sprintf("%s is invalid", field)
		}
	}

	return &ValidationError{Errors: messages}
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		username := fl.Field().String()
		n := utf8.RuneCountInString(username)
		return usernamePattern.MatchString(username) && n >= 3 && n <= 50
	})

	validate.RegisterValidation("pet_type", func(fl validator.FieldLevel) bool {
		petType := strings.TrimSpace(fl.Field().String())
		return petType != "" && utf8.RuneCountInString(petType) <= 50
	})

	validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "user", "editor", "admin":
			return true
		}
		return false
	})
}

// Helper validation functions

// IsValidEmail checks if an email is valid
func IsValidEmail(email string) bool {
	return Default().ValidateVar(email, "required,email") == nil
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(uuid string) bool {
	return Default().ValidateVar(uuid, "required,uuid4") == nil
}

// IsValidUsername checks if a username is valid
func IsValidUsername(username string) bool {
	return Default().ValidateVar(username, "required,username") == nil
}

// Common validation tags constants
const (
	TagRequired = "required"
	TagEmail    = "email"
	TagUUID     = "uuid4"
	TagUsername = "username"
	TagPetType  = "pet_type"
	TagUserRole = "user_role"
	TagMin      = "min"
	TagMax      = "max"
	TagURL      = "url"
)
