// Package domain provides the address attribute types, the catalog contract
// and the application error model shared by every layer.
package domain

import "context"

// =============================================================================
// ADDRESS ATTRIBUTE DOMAIN TYPES
// =============================================================================

// AttributeControlType determines how an address attribute is entered and
// whether its stored values are identifiers of predefined options.
type AttributeControlType int

const (
	ControlTypeDropdownList       AttributeControlType = 1
	ControlTypeRadioList          AttributeControlType = 2
	ControlTypeCheckboxes         AttributeControlType = 3
	ControlTypeTextBox            AttributeControlType = 4
	ControlTypeMultilineTextbox   AttributeControlType = 10
	ControlTypeDatepicker         AttributeControlType = 20
	ControlTypeFileUpload         AttributeControlType = 30
	ControlTypeColorSquares       AttributeControlType = 40
	ControlTypeImageSquares       AttributeControlType = 45
	ControlTypeReadonlyCheckboxes AttributeControlType = 50
)

// String returns the control type name used in fixtures and logs.
func (t AttributeControlType) String() string {
	switch t {
	case ControlTypeDropdownList:
		return "dropdown_list"
	case ControlTypeRadioList:
		return "radio_list"
	case ControlTypeCheckboxes:
		return "checkboxes"
	case ControlTypeTextBox:
		return "textbox"
	case ControlTypeMultilineTextbox:
		return "multiline_textbox"
	case ControlTypeDatepicker:
		return "datepicker"
	case ControlTypeFileUpload:
		return "file_upload"
	case ControlTypeColorSquares:
		return "color_squares"
	case ControlTypeImageSquares:
		return "image_squares"
	case ControlTypeReadonlyCheckboxes:
		return "readonly_checkboxes"
	default:
		return "unknown"
	}
}

// ParseControlType maps a control type name back to its value.
// Returns false when the name is unknown.
func ParseControlType(name string) (AttributeControlType, bool) {
	for _, t := range []AttributeControlType{
		ControlTypeDropdownList,
		ControlTypeRadioList,
		ControlTypeCheckboxes,
		ControlTypeTextBox,
		ControlTypeMultilineTextbox,
		ControlTypeDatepicker,
		ControlTypeFileUpload,
		ControlTypeColorSquares,
		ControlTypeImageSquares,
		ControlTypeReadonlyCheckboxes,
	} {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// AddressAttribute is a catalog definition of a custom address field
// (e.g. "Company Tax ID"). Owned by the catalog; the codec only reads it.
type AddressAttribute struct {
	ID           int                  `json:"id" validate:"gt=0"`
	Name         string               `json:"name" validate:"required"`
	IsRequired   bool                 `json:"is_required"`
	ControlType  AttributeControlType `json:"control_type" validate:"required"`
	DisplayOrder int                  `json:"display_order"`
}

// ShouldHaveValues reports whether stored values of this attribute are
// identifiers of predefined AddressAttributeValue options. Free-text
// attributes store their text verbatim.
func (a AddressAttribute) ShouldHaveValues() bool {
	switch a.ControlType {
	case ControlTypeTextBox,
		ControlTypeMultilineTextbox,
		ControlTypeDatepicker,
		ControlTypeFileUpload:
		return false
	}
	return true
}

// AddressAttributeValue is a predefined option of a value-bearing attribute.
type AddressAttributeValue struct {
	ID                 int    `json:"id" validate:"gt=0"`
	AddressAttributeID int    `json:"address_attribute_id" validate:"gt=0"`
	Name               string `json:"name" validate:"required"`
	IsPreSelected      bool   `json:"is_pre_selected"`
	DisplayOrder       int    `json:"display_order"`
}

// AddressAttributeRepository is the read-only catalog of attribute definitions.
// Lookups of unknown identifiers return an ENOTFOUND error.
type AddressAttributeRepository interface {
	GetAttributeByID(ctx context.Context, id int) (*AddressAttribute, error)
	GetAttributeValueByID(ctx context.Context, id int) (*AddressAttributeValue, error)
	// GetAllAttributes returns every definition ordered by display order.
	GetAllAttributes(ctx context.Context) ([]AddressAttribute, error)
}
