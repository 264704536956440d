package api

import (
	"errors"
	"reflect"
	"strings"

	"github.com/dukerupert/addressattr/internal/domain"
	"github.com/go-playground/validator/v10"
)

const opValidate = "api.validate"

// RequestValidator implements echo.Validator. Failures are returned as a
// domain.ValidationError keyed by JSON field name.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator that reports JSON field names.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate checks i against its validate tags.
func (v *RequestValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.Invalid(opValidate, "request could not be validated")
	}

	out := domain.NewValidationError(opValidate, verrs[0].Field(), fieldMessage(verrs[0]))
	for _, fe := range verrs[1:] {
		out = domain.AddFieldError(out, fe.Field(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
