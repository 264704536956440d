package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/addressattr/internal/domain"
	"github.com/go-playground/validator/v10"
)

// FieldCustomAttributes is the ValidationError field used for custom
// attribute problems.
const FieldCustomAttributes = "CustomAttributes"

// BasicValidator performs format validation without external API calls.
// Checks required fields and, through the attribute parser, required custom
// address attributes.
type BasicValidator struct {
	validate *validator.Validate
	parser   *AttributeParser
}

// NewBasicValidator creates a new basic address validator.
func NewBasicValidator(parser *AttributeParser) Validator {
	return &BasicValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		parser:   parser,
	}
}

// Validate trims the address, checks required fields and reports every
// required custom attribute that has no value.
func (v *BasicValidator) Validate(ctx context.Context, addr Address) (*ValidationResult, error) {
	normalized := normalize(addr)
	result := &ValidationResult{NormalizedAddress: &normalized}

	if err := v.validate.Struct(normalized); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("failed to validate address: %w", err)
		}
		for _, fe := range fieldErrs {
			result.Errors = append(result.Errors, ValidationError{
				Field:   fe.Field(),
				Message: fieldMessage(fe),
			})
		}
	}

	warnings, err := v.parser.GetAttributeWarnings(ctx, normalized.CustomAttributes)
	switch {
	case domain.IsCode(err, domain.EINVALID):
		result.Warnings = append(result.Warnings, "Custom address attributes could not be read")
	case err != nil:
		return nil, err
	}
	for _, w := range warnings {
		result.Errors = append(result.Errors, ValidationError{Field: FieldCustomAttributes, Message: w})
	}

	result.IsValid = len(result.Errors) == 0
	return result, nil
}

func normalize(addr Address) Address {
	addr.Type = strings.TrimSpace(addr.Type)
	addr.FullName = strings.TrimSpace(addr.FullName)
	addr.Company = strings.TrimSpace(addr.Company)
	addr.AddressLine1 = strings.TrimSpace(addr.AddressLine1)
	addr.AddressLine2 = strings.TrimSpace(addr.AddressLine2)
	addr.City = strings.TrimSpace(addr.City)
	addr.State = strings.ToUpper(strings.TrimSpace(addr.State))
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	addr.Country = strings.ToUpper(strings.TrimSpace(addr.Country))
	addr.Phone = strings.TrimSpace(addr.Phone)
	return addr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "len":
		return fmt.Sprintf("%s must be %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
