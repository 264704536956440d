package api

import (
	"net/http"

	"github.com/dukerupert/addressattr/internal/address"
	"github.com/dukerupert/addressattr/internal/domain"
	"github.com/dukerupert/addressattr/internal/middleware"
	"github.com/labstack/echo/v4"
)

// AddressAttributesHandler exposes the address attributes codec over JSON.
type AddressAttributesHandler struct {
	parser    *address.AttributeParser
	formatter *address.AttributeFormatter
	catalog   domain.AddressAttributeRepository
}

// NewAddressAttributesHandler creates a new address attributes handler.
func NewAddressAttributesHandler(
	parser *address.AttributeParser,
	formatter *address.AttributeFormatter,
	catalog domain.AddressAttributeRepository,
) *AddressAttributesHandler {
	return &AddressAttributesHandler{
		parser:    parser,
		formatter: formatter,
		catalog:   catalog,
	}
}

// ============================================================================
// REQUESTS / RESPONSES
// ============================================================================

type documentRequest struct {
	AttributesXML string `json:"attributes_xml" validate:"max=65536"`
}

type attributeRequest struct {
	AttributesXML string `json:"attributes_xml" validate:"max=65536"`
	AttributeID   int    `json:"attribute_id" validate:"gt=0"`
}

type addRequest struct {
	AttributesXML string `json:"attributes_xml" validate:"max=65536"`
	AttributeID   int    `json:"attribute_id" validate:"gt=0"`
	Value         string `json:"value" validate:"max=4000"`
}

type formatRequest struct {
	AttributesXML string `json:"attributes_xml" validate:"max=65536"`
	Separator     string `json:"separator" validate:"max=64"`
	HTMLEncode    bool   `json:"html_encode"`
}

type parseResponse struct {
	AttributeIDs []int                          `json:"attribute_ids"`
	Attributes   []domain.AddressAttribute      `json:"attributes"`
	Values       []domain.AddressAttributeValue `json:"values"`
	Corrupt      bool                           `json:"corrupt"`
}

type valuesResponse struct {
	Values  []string `json:"values"`
	Corrupt bool     `json:"corrupt"`
}

type documentResponse struct {
	AttributesXML string                `json:"attributes_xml"`
	Error         *middleware.ErrorBody `json:"error,omitempty"`
}

type validateResponse struct {
	Warnings []string `json:"warnings"`
	Valid    bool     `json:"valid"`
	Corrupt  bool     `json:"corrupt"`
}

type formatResponse struct {
	Formatted string `json:"formatted"`
	Corrupt   bool   `json:"corrupt"`
}

// ============================================================================
// HANDLERS
// ============================================================================

// Parse handles POST /api/address-attributes/parse
func (h *AddressAttributesHandler) Parse(c echo.Context) error {
	var req documentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	ids, err := h.parser.ParseAttributeIDs(req.AttributesXML)
	corrupt := domain.IsCode(err, domain.EINVALID)

	attrs, err := h.parser.ParseAttributes(ctx, req.AttributesXML)
	if isFatal(err) {
		return err
	}

	values, err := h.parser.ParseAttributeValues(ctx, req.AttributesXML)
	if isFatal(err) {
		return err
	}

	return c.JSON(http.StatusOK, parseResponse{
		AttributeIDs: ids,
		Attributes:   attrs,
		Values:       values,
		Corrupt:      corrupt,
	})
}

// Values handles POST /api/address-attributes/values
func (h *AddressAttributesHandler) Values(c echo.Context) error {
	var req attributeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	values, err := h.parser.ParseValues(req.AttributesXML, req.AttributeID)
	if isFatal(err) {
		return err
	}

	return c.JSON(http.StatusOK, valuesResponse{
		Values:  values,
		Corrupt: domain.IsCode(err, domain.EINVALID),
	})
}

// Add handles POST /api/address-attributes/add
//
// The attribute must exist in the catalog. A document that cannot be
// rewritten is answered with 422 and the document the codec returned.
func (h *AddressAttributesHandler) Add(c echo.Context) error {
	var req addRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	attr, err := h.catalog.GetAttributeByID(c.Request().Context(), req.AttributeID)
	if err != nil {
		return err
	}

	doc, err := h.parser.AddAttribute(req.AttributesXML, *attr, req.Value)
	if err != nil {
		return writeFailure(c, doc, err)
	}
	return c.JSON(http.StatusOK, documentResponse{AttributesXML: doc})
}

// Remove handles POST /api/address-attributes/remove
func (h *AddressAttributesHandler) Remove(c echo.Context) error {
	var req attributeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	doc, err := h.parser.RemoveAttribute(req.AttributesXML, req.AttributeID)
	if err != nil {
		return writeFailure(c, doc, err)
	}
	return c.JSON(http.StatusOK, documentResponse{AttributesXML: doc})
}

// Validate handles POST /api/address-attributes/validate
func (h *AddressAttributesHandler) Validate(c echo.Context) error {
	var req documentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	warnings, err := h.parser.GetAttributeWarnings(c.Request().Context(), req.AttributesXML)
	if isFatal(err) {
		return err
	}

	return c.JSON(http.StatusOK, validateResponse{
		Warnings: warnings,
		Valid:    len(warnings) == 0,
		Corrupt:  domain.IsCode(err, domain.EINVALID),
	})
}

// Format handles POST /api/address-attributes/format
func (h *AddressAttributesHandler) Format(c echo.Context) error {
	var req formatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	formatted, err := h.formatter.FormatAttributes(c.Request().Context(), req.AttributesXML, address.FormatOptions{
		Separator:  req.Separator,
		HTMLEncode: req.HTMLEncode,
	})
	if isFatal(err) {
		return err
	}

	return c.JSON(http.StatusOK, formatResponse{
		Formatted: formatted,
		Corrupt:   domain.IsCode(err, domain.EINVALID),
	})
}

// ============================================================================
// ROUTE REGISTRATION
// ============================================================================

// RegisterRoutes registers the codec routes under /api/address-attributes.
func (h *AddressAttributesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/address-attributes")
	g.POST("/parse", h.Parse)
	g.POST("/values", h.Values)
	g.POST("/add", h.Add)
	g.POST("/remove", h.Remove)
	g.POST("/validate", h.Validate)
	g.POST("/format", h.Format)
}

// ============================================================================
// HELPERS
// ============================================================================

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Invalid("api.bind", "request body must be valid JSON")
	}
	return c.Validate(req)
}

// isFatal reports whether err should abort the request. Corrupt documents
// degrade to partial results instead.
func isFatal(err error) bool {
	return err != nil && !domain.IsCode(err, domain.EINVALID)
}

func writeFailure(c echo.Context, doc string, err error) error {
	code := domain.ErrorCode(err)
	if code == domain.EINTERNAL {
		return err
	}
	middleware.GetLogger(c).Info().Err(err).Msg("attributes document not rewritten")
	return c.JSON(http.StatusUnprocessableEntity, documentResponse{
		AttributesXML: doc,
		Error: &middleware.ErrorBody{
			Code:    code,
			Message: domain.ErrorMessage(err),
		},
	})
}
