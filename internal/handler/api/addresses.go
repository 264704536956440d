package api

import (
	"net/http"

	"github.com/dukerupert/addressattr/internal/address"
	"github.com/labstack/echo/v4"
)

// AddressHandler validates complete addresses, including the custom
// attributes document stored with them.
type AddressHandler struct {
	validator address.Validator
}

// NewAddressHandler creates a new address handler.
func NewAddressHandler(validator address.Validator) *AddressHandler {
	return &AddressHandler{validator: validator}
}

type addressPayload struct {
	Type          string `json:"type" validate:"max=16"`
	FullName      string `json:"full_name" validate:"max=200"`
	Company       string `json:"company" validate:"max=200"`
	AddressLine1  string `json:"address_line1" validate:"max=200"`
	AddressLine2  string `json:"address_line2" validate:"max=200"`
	City          string `json:"city" validate:"max=100"`
	State         string `json:"state" validate:"max=100"`
	PostalCode    string `json:"postal_code" validate:"max=20"`
	Country       string `json:"country" validate:"max=8"`
	Phone         string `json:"phone" validate:"max=40"`
	AttributesXML string `json:"attributes_xml" validate:"max=65536"`
}

func (p addressPayload) toAddress() address.Address {
	return address.Address{
		Type:             p.Type,
		FullName:         p.FullName,
		Company:          p.Company,
		AddressLine1:     p.AddressLine1,
		AddressLine2:     p.AddressLine2,
		City:             p.City,
		State:            p.State,
		PostalCode:       p.PostalCode,
		Country:          p.Country,
		Phone:            p.Phone,
		CustomAttributes: p.AttributesXML,
	}
}

func fromAddress(a address.Address) addressPayload {
	return addressPayload{
		Type:          a.Type,
		FullName:      a.FullName,
		Company:       a.Company,
		AddressLine1:  a.AddressLine1,
		AddressLine2:  a.AddressLine2,
		City:          a.City,
		State:         a.State,
		PostalCode:    a.PostalCode,
		Country:       a.Country,
		Phone:         a.Phone,
		AttributesXML: a.CustomAttributes,
	}
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type addressValidationResponse struct {
	Valid      bool            `json:"valid"`
	Normalized *addressPayload `json:"normalized,omitempty"`
	Errors     []fieldError    `json:"errors"`
	Warnings   []string        `json:"warnings"`
}

// Validate handles POST /api/addresses/validate
func (h *AddressHandler) Validate(c echo.Context) error {
	var req addressPayload
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.validator.Validate(c.Request().Context(), req.toAddress())
	if err != nil {
		return err
	}

	resp := addressValidationResponse{
		Valid:    result.IsValid,
		Errors:   []fieldError{},
		Warnings: []string{},
	}
	if result.NormalizedAddress != nil {
		normalized := fromAddress(*result.NormalizedAddress)
		resp.Normalized = &normalized
	}
	for _, fe := range result.Errors {
		resp.Errors = append(resp.Errors, fieldError{Field: fe.Field, Message: fe.Message})
	}
	resp.Warnings = append(resp.Warnings, result.Warnings...)

	return c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers the address routes under /api/addresses.
func (h *AddressHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/addresses")
	g.POST("/validate", h.Validate)
}
