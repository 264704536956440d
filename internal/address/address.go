package address

import "context"

// Validator defines the interface for address validation.
// Implementations can use external APIs like USPS or SmartyStreets; the
// BasicValidator checks required fields and custom address attributes.
type Validator interface {
	// Validate checks if an address is complete and its custom attributes
	// satisfy the catalog. Returns the normalized address when validation
	// succeeds. Even if IsValid is false, NormalizedAddress may contain corrections.
	Validate(ctx context.Context, addr Address) (*ValidationResult, error)
}

// Address represents a physical address for shipping or billing.
type Address struct {
	Type         string `validate:"omitempty,oneof=shipping billing"`
	FullName     string `validate:"required"`
	Company      string
	AddressLine1 string `validate:"required"`
	AddressLine2 string
	City         string `validate:"required"`
	State        string
	PostalCode   string `validate:"required"`
	Country      string `validate:"required,len=2"`
	Phone        string

	// CustomAttributes is the stored attributes XML document.
	CustomAttributes string
}

// ValidationResult contains the outcome of address validation.
type ValidationResult struct {
	IsValid           bool
	NormalizedAddress *Address
	Errors            []ValidationError
	Warnings          []string
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	Field   string
	Message string
}
