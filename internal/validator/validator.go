package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
)

// Validator wraps go-playground/validator with the service's custom tags
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom rules registered
func New() *Validator {
	validate := validator.New()
	registerRules(validate)
	return &Validator{validate: validate}
}

// Validate validates a struct and returns ValidationErrors on failure
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidationError describes one failed field rule
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// ToValidationErrors converts validator errors into ValidationErrors
func ToValidationErrors(err error) ValidationErrors {
	var converted ValidationErrors
	if errors.As(err, &converted) {
		return converted
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "", Message: err.Error()}}
	}

	result := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		result = append(result, ValidationError{
			Field:   toSnakeCase(fe.Field()),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return result
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "choice":
		return fmt.Sprintf("must be between %d and %d", models.MinChoice, models.MaxChoice)
	case "cancel_action":
		return "must be one of finish, pause, abort"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "len":
		return "must have exactly " + fe.Param() + " items"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

func registerRules(validate *validator.Validate) {
	// Answer choice 1..4
	validate.RegisterValidation("choice", func(fl validator.FieldLevel) bool {
		return models.ValidChoice(int(fl.Field().Int()))
	})

	validate.RegisterValidation("cancel_action", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "finish", "pause", "abort":
			return true
		}
		return false
	})
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
