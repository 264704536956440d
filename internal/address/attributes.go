package address

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dukerupert/addressattr/internal/attrxml"
	"github.com/dukerupert/addressattr/internal/domain"
	"github.com/dukerupert/addressattr/internal/telemetry"
	"github.com/rs/zerolog"
)

const (
	opParseIDs        = "attributes.parse_ids"
	opParseAttributes = "attributes.parse_attributes"
	opParseValues     = "attributes.parse_values"
	opParseAttrValues = "attributes.parse_attribute_values"
	opAdd             = "attributes.add"
	opRemove          = "attributes.remove"
	opWarnings        = "attributes.warnings"
)

// ParserOptions configures an AttributeParser.
type ParserOptions struct {
	// DiscardOnWriteFailure restores the legacy write behavior: a failed
	// AddAttribute or RemoveAttribute returns "" instead of the caller's
	// document. Callers that persist the result lose every stored attribute.
	DiscardOnWriteFailure bool

	// Logger receives diagnostics for swallowed failures. Nil disables logging.
	Logger  *zerolog.Logger
	Metrics *telemetry.AttributeMetrics
}

// AttributeParser reads and writes the custom attributes document stored on
// an address.
//
// Read operations never fail hard. They return what could be decoded and,
// when the document is corrupt or the catalog is unavailable, a non-nil
// error next to it. Callers that only want the soft behavior can ignore the
// error: a corrupt document then reads as "no attributes".
//
// AttributeParser holds no mutable state and is safe for concurrent use when
// the catalog is.
type AttributeParser struct {
	catalog   domain.AddressAttributeRepository
	localizer Localizer
	logger    zerolog.Logger
	metrics   *telemetry.AttributeMetrics
	discard   bool
}

// NewAttributeParser creates a parser backed by catalog and localizer.
func NewAttributeParser(catalog domain.AddressAttributeRepository, localizer Localizer, opts ParserOptions) *AttributeParser {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &AttributeParser{
		catalog:   catalog,
		localizer: localizer,
		logger:    logger,
		metrics:   opts.Metrics,
		discard:   opts.DiscardOnWriteFailure,
	}
}

// ParseAttributeIDs returns the IDs of the selected attributes in document
// order. AddressAttribute elements without a parseable ID are skipped.
func (p *AttributeParser) ParseAttributeIDs(attributesXML string) ([]int, error) {
	doc, err := p.load(opParseIDs, attributesXML)
	return attributeIDs(doc), err
}

// ParseAttributes returns the catalog definitions of the selected attributes.
// IDs the catalog does not know are dropped.
func (p *AttributeParser) ParseAttributes(ctx context.Context, attributesXML string) ([]domain.AddressAttribute, error) {
	doc, err := p.load(opParseAttributes, attributesXML)
	attrs, lerr := p.resolveAttributes(ctx, doc)
	if lerr != nil {
		return attrs, lerr
	}
	return attrs, err
}

// ParseValues returns the raw values stored for attributeID, trimmed and in
// document order. Empty values are included.
func (p *AttributeParser) ParseValues(attributesXML string, attributeID int) ([]string, error) {
	doc, err := p.load(opParseValues, attributesXML)
	return values(doc, attributeID), err
}

// ParseAttributeValues resolves the selected options of value-bearing
// attributes. Free-text attributes contribute nothing; non-numeric and
// unknown value IDs are dropped.
func (p *AttributeParser) ParseAttributeValues(ctx context.Context, attributesXML string) ([]domain.AddressAttributeValue, error) {
	result := []domain.AddressAttributeValue{}

	doc, err := p.load(opParseAttrValues, attributesXML)
	attrs, lerr := p.resolveAttributes(ctx, doc)
	if lerr != nil {
		return result, lerr
	}

	for _, attr := range attrs {
		if !attr.ShouldHaveValues() {
			continue
		}
		for _, raw := range values(doc, attr.ID) {
			if raw == "" {
				continue
			}
			valueID, ok := parseValueID(raw)
			if !ok {
				continue
			}
			value, verr := p.catalog.GetAttributeValueByID(ctx, valueID)
			if verr != nil && !domain.IsCode(verr, domain.ENOTFOUND) {
				p.logger.Error().Err(verr).Str("op", opParseAttrValues).Int("value_id", valueID).Msg("attribute value lookup failed")
				return result, domain.Internal(verr, opParseAttrValues, "failed to load address attribute value")
			}
			if value == nil {
				p.metrics.Unresolved("value")
				continue
			}
			result = append(result, *value)
		}
	}
	return result, err
}

// AddAttribute returns a new document with value appended to attribute.
// The AddressAttribute element for attribute.ID is reused when present, so
// a document never holds two elements for one ID. value is stored verbatim.
//
// On failure the original document is returned together with the error,
// unless DiscardOnWriteFailure is set, in which case "" is returned.
func (p *AttributeParser) AddAttribute(attributesXML string, attribute domain.AddressAttribute, value string) (string, error) {
	if attribute.ID <= 0 {
		return p.writeFailed(opAdd, attributesXML, domain.Errorf(domain.EINVALID, opAdd, "attribute id must be positive: %d", attribute.ID))
	}

	doc, err := p.load(opAdd, attributesXML)
	if err != nil {
		return p.writeFailed(opAdd, attributesXML, err)
	}
	if doc == nil {
		doc = attrxml.New()
	}

	if err := doc.AppendValue(attribute.ID, value); err != nil {
		if errors.Is(err, attrxml.ErrInvalidText) {
			return p.writeFailed(opAdd, attributesXML, domain.WrapError(err, domain.EINVALID, opAdd, "value contains characters not allowed in XML"))
		}
		return p.writeFailed(opAdd, attributesXML, domain.WrapError(err, domain.EUNPROCESSABLE, opAdd, "attributes document cannot hold attributes"))
	}
	return doc.String(), nil
}

// RemoveAttribute returns a new document without the AddressAttribute
// element for attributeID. A document that does not mention the attribute
// is returned unchanged. Failures follow the AddAttribute policy.
func (p *AttributeParser) RemoveAttribute(attributesXML string, attributeID int) (string, error) {
	doc, err := p.load(opRemove, attributesXML)
	if err != nil {
		return p.writeFailed(opRemove, attributesXML, err)
	}
	if doc == nil || doc.RemoveAttribute(attributeID) == 0 {
		return attributesXML, nil
	}
	return doc.String(), nil
}

// GetAttributeWarnings checks every required catalog attribute against the
// document and returns one localized warning per attribute that has no
// non-blank value, in catalog order.
func (p *AttributeParser) GetAttributeWarnings(ctx context.Context, attributesXML string) ([]string, error) {
	warnings := []string{}

	doc, err := p.load(opWarnings, attributesXML)
	selected, lerr := p.resolveAttributes(ctx, doc)
	if lerr != nil {
		return warnings, lerr
	}

	all, lerr := p.catalog.GetAllAttributes(ctx)
	if lerr != nil {
		p.logger.Error().Err(lerr).Str("op", opWarnings).Msg("attribute catalog lookup failed")
		return warnings, domain.Internal(lerr, opWarnings, "failed to load address attributes")
	}

	present := make(map[int]bool, len(selected))
	for _, attr := range selected {
		present[attr.ID] = true
	}

	for _, attr := range all {
		if !attr.IsRequired {
			continue
		}
		if present[attr.ID] && hasNonBlank(values(doc, attr.ID)) {
			continue
		}
		warnings = append(warnings, FormatResource(
			p.localizer.GetResource(ResourceSelectAttribute),
			p.localizer.AttributeName(attr),
		))
	}

	p.metrics.Warned(len(warnings))
	return warnings, err
}

// load parses attributesXML. Blank input is an empty selection and yields a
// nil document with no error.
func (p *AttributeParser) load(op, attributesXML string) (*attrxml.Document, error) {
	if strings.TrimSpace(attributesXML) == "" {
		return nil, nil
	}

	doc, err := attrxml.Parse(attributesXML)
	if err != nil {
		p.logger.Debug().Err(err).Str("op", op).Msg("malformed attributes document")
		p.metrics.ParseFailed(op)
		return nil, domain.WrapError(err, domain.EINVALID, op, "malformed attributes document")
	}
	return doc, nil
}

func (p *AttributeParser) resolveAttributes(ctx context.Context, doc *attrxml.Document) ([]domain.AddressAttribute, error) {
	result := []domain.AddressAttribute{}
	for _, id := range attributeIDs(doc) {
		attr, err := p.catalog.GetAttributeByID(ctx, id)
		if err != nil && !domain.IsCode(err, domain.ENOTFOUND) {
			p.logger.Error().Err(err).Int("attribute_id", id).Msg("attribute lookup failed")
			return result, domain.Internal(err, opParseAttributes, "failed to load address attribute")
		}
		if attr == nil {
			p.metrics.Unresolved("attribute")
			continue
		}
		result = append(result, *attr)
	}
	return result, nil
}

func (p *AttributeParser) writeFailed(op, attributesXML string, err error) (string, error) {
	p.metrics.WriteFailed(op, p.discard)
	if p.discard {
		p.logger.Warn().Err(err).Str("op", op).Msg("attributes document discarded after failed write")
		telemetry.CaptureError(context.Background(), err, map[string]any{"discarded_bytes": len(attributesXML)})
		return "", err
	}
	p.logger.Warn().Err(err).Str("op", op).Msg("attributes document left unchanged after failed write")
	return attributesXML, err
}

func attributeIDs(doc *attrxml.Document) []int {
	ids := []int{}
	if doc == nil {
		return ids
	}
	for _, e := range doc.AttributeElements() {
		if id, ok := e.ID(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func values(doc *attrxml.Document, attributeID int) []string {
	if doc == nil {
		return []string{}
	}
	e := doc.FindAttribute(attributeID)
	if e == nil {
		return []string{}
	}
	return e.Values()
}

// parseValueID parses a stored option id. Ids are 32-bit like attribute ids;
// anything outside that range is not an option.
func parseValueID(s string) (int, bool) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func hasNonBlank(vals []string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
