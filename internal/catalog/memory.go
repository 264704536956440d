// Package catalog provides address attribute catalogs that sit in front of,
// or stand in for, the platform's attribute store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/dukerupert/addressattr/internal/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Memory is an immutable in-memory catalog.
type Memory struct {
	attributes []domain.AddressAttribute
	byID       map[int]domain.AddressAttribute
	values     map[int]domain.AddressAttributeValue
}

// NewMemory validates the definitions and builds a catalog. Attributes are
// listed by display order, then ID.
func NewMemory(attributes []domain.AddressAttribute, values []domain.AddressAttributeValue) (*Memory, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	m := &Memory{
		byID:   make(map[int]domain.AddressAttribute, len(attributes)),
		values: make(map[int]domain.AddressAttributeValue, len(values)),
	}

	for _, a := range attributes {
		if err := validate.Struct(a); err != nil {
			return nil, fmt.Errorf("invalid address attribute %d: %w", a.ID, err)
		}
		if _, ok := m.byID[a.ID]; ok {
			return nil, fmt.Errorf("duplicate address attribute id %d", a.ID)
		}
		m.byID[a.ID] = a
		m.attributes = append(m.attributes, a)
	}

	for _, v := range values {
		if err := validate.Struct(v); err != nil {
			return nil, fmt.Errorf("invalid address attribute value %d: %w", v.ID, err)
		}
		if _, ok := m.values[v.ID]; ok {
			return nil, fmt.Errorf("duplicate address attribute value id %d", v.ID)
		}
		owner, ok := m.byID[v.AddressAttributeID]
		if !ok {
			return nil, fmt.Errorf("address attribute value %d references unknown attribute %d", v.ID, v.AddressAttributeID)
		}
		if !owner.ShouldHaveValues() {
			return nil, fmt.Errorf("address attribute %d (%s) does not take predefined values", owner.ID, owner.ControlType)
		}
		m.values[v.ID] = v
	}

	sort.SliceStable(m.attributes, func(i, j int) bool {
		if m.attributes[i].DisplayOrder != m.attributes[j].DisplayOrder {
			return m.attributes[i].DisplayOrder < m.attributes[j].DisplayOrder
		}
		return m.attributes[i].ID < m.attributes[j].ID
	})

	return m, nil
}

// GetAttributeByID returns the attribute with the given id.
func (m *Memory) GetAttributeByID(ctx context.Context, id int) (*domain.AddressAttribute, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, domain.NotFound("catalog.attribute", "address attribute", strconv.Itoa(id))
	}
	return &a, nil
}

// GetAttributeValueByID returns the attribute value with the given id.
func (m *Memory) GetAttributeValueByID(ctx context.Context, id int) (*domain.AddressAttributeValue, error) {
	v, ok := m.values[id]
	if !ok {
		return nil, domain.NotFound("catalog.attribute_value", "address attribute value", strconv.Itoa(id))
	}
	return &v, nil
}

// GetAllAttributes returns a copy of every attribute by display order.
func (m *Memory) GetAllAttributes(ctx context.Context) ([]domain.AddressAttribute, error) {
	out := make([]domain.AddressAttribute, len(m.attributes))
	copy(out, m.attributes)
	return out, nil
}

// Values returns every attribute value ordered by attribute, display order
// and ID.
func (m *Memory) Values() []domain.AddressAttributeValue {
	out := make([]domain.AddressAttributeValue, 0, len(m.values))
	for _, v := range m.values {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddressAttributeID != out[j].AddressAttributeID {
			return out[i].AddressAttributeID < out[j].AddressAttributeID
		}
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// =============================================================================
// YAML fixtures
// =============================================================================

type fixture struct {
	Attributes []fixtureAttribute `yaml:"attributes"`
}

type fixtureAttribute struct {
	ID           int            `yaml:"id"`
	Name         string         `yaml:"name"`
	Required     bool           `yaml:"required"`
	ControlType  string         `yaml:"control_type"`
	DisplayOrder int            `yaml:"display_order"`
	Values       []fixtureValue `yaml:"values"`
}

type fixtureValue struct {
	ID           int    `yaml:"id"`
	Name         string `yaml:"name"`
	PreSelected  bool   `yaml:"pre_selected"`
	DisplayOrder int    `yaml:"display_order"`
}

// Load reads a YAML catalog:
//
//	attributes:
//	  - id: 2
//	    name: Delivery Desk
//	    required: true
//	    control_type: dropdown_list
//	    values:
//	      - id: 42
//	        name: Front desk
func Load(r io.Reader) (*Memory, error) {
	var f fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	var attrs []domain.AddressAttribute
	var values []domain.AddressAttributeValue
	for _, fa := range f.Attributes {
		ct, ok := domain.ParseControlType(fa.ControlType)
		if !ok {
			return nil, fmt.Errorf("address attribute %d: unknown control type %q", fa.ID, fa.ControlType)
		}
		attrs = append(attrs, domain.AddressAttribute{
			ID:           fa.ID,
			Name:         fa.Name,
			IsRequired:   fa.Required,
			ControlType:  ct,
			DisplayOrder: fa.DisplayOrder,
		})
		for _, fv := range fa.Values {
			values = append(values, domain.AddressAttributeValue{
				ID:                 fv.ID,
				AddressAttributeID: fa.ID,
				Name:               fv.Name,
				IsPreSelected:      fv.PreSelected,
				DisplayOrder:       fv.DisplayOrder,
			})
		}
	}

	return NewMemory(attrs, values)
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return Load(f)
}
