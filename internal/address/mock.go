package address

import (
	"context"
	"strconv"

	"github.com/dukerupert/addressattr/internal/domain"
)

// MockValidator is a test implementation of Validator.
type MockValidator struct {
	ValidateFunc func(ctx context.Context, addr Address) (*ValidationResult, error)
}

// NewMockValidator creates a new mock address validator for testing.
func NewMockValidator() *MockValidator {
	return &MockValidator{}
}

// Validate delegates to the configured function or accepts the address as is.
func (m *MockValidator) Validate(ctx context.Context, addr Address) (*ValidationResult, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, addr)
	}
	return &ValidationResult{IsValid: true, NormalizedAddress: &addr}, nil
}

// MockCatalog is a test implementation of domain.AddressAttributeRepository
// backed by slices. The Func fields, when set, take precedence.
type MockCatalog struct {
	Attributes []domain.AddressAttribute
	Values     []domain.AddressAttributeValue

	GetAttributeByIDFunc      func(ctx context.Context, id int) (*domain.AddressAttribute, error)
	GetAttributeValueByIDFunc func(ctx context.Context, id int) (*domain.AddressAttributeValue, error)
	GetAllAttributesFunc      func(ctx context.Context) ([]domain.AddressAttribute, error)
}

// GetAttributeByID returns the attribute with the given id.
func (m *MockCatalog) GetAttributeByID(ctx context.Context, id int) (*domain.AddressAttribute, error) {
	if m.GetAttributeByIDFunc != nil {
		return m.GetAttributeByIDFunc(ctx, id)
	}
	for i := range m.Attributes {
		if m.Attributes[i].ID == id {
			attr := m.Attributes[i]
			return &attr, nil
		}
	}
	return nil, domain.NotFound("mock.attribute", "address attribute", strconv.Itoa(id))
}

// GetAttributeValueByID returns the value with the given id.
func (m *MockCatalog) GetAttributeValueByID(ctx context.Context, id int) (*domain.AddressAttributeValue, error) {
	if m.GetAttributeValueByIDFunc != nil {
		return m.GetAttributeValueByIDFunc(ctx, id)
	}
	for i := range m.Values {
		if m.Values[i].ID == id {
			value := m.Values[i]
			return &value, nil
		}
	}
	return nil, domain.NotFound("mock.attribute_value", "address attribute value", strconv.Itoa(id))
}

// GetAllAttributes returns every attribute in slice order.
func (m *MockCatalog) GetAllAttributes(ctx context.Context) ([]domain.AddressAttribute, error) {
	if m.GetAllAttributesFunc != nil {
		return m.GetAllAttributesFunc(ctx)
	}
	return append([]domain.AddressAttribute(nil), m.Attributes...), nil
}

// MockLocalizer is a test implementation of Localizer. Resources missing
// from the map resolve to their key; attribute names are returned as is.
type MockLocalizer struct {
	Resources map[string]string
}

// GetResource returns the configured template or the key itself.
func (m *MockLocalizer) GetResource(key string) string {
	if v, ok := m.Resources[key]; ok {
		return v
	}
	return key
}

// AttributeName returns the attribute's catalog name.
func (m *MockLocalizer) AttributeName(attr domain.AddressAttribute) string {
	return attr.Name
}
