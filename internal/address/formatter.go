package address

import (
	"context"
	"html"
	"strings"

	"github.com/dukerupert/addressattr/internal/domain"
)

// DefaultSeparator joins formatted attributes when FormatOptions.Separator is empty.
const DefaultSeparator = "<br />"

// FormatOptions controls AttributeFormatter output.
type FormatOptions struct {
	Separator  string
	HTMLEncode bool
}

// AttributeFormatter renders a stored attributes document as "Name: value"
// lines for order confirmations and address books.
type AttributeFormatter struct {
	parser    *AttributeParser
	catalog   domain.AddressAttributeRepository
	localizer Localizer
}

// NewAttributeFormatter creates a formatter sharing the parser's catalog.
func NewAttributeFormatter(parser *AttributeParser) *AttributeFormatter {
	return &AttributeFormatter{
		parser:    parser,
		catalog:   parser.catalog,
		localizer: parser.localizer,
	}
}

// FormatAttributes renders one line per stored value. Value-bearing
// attributes print the name of the selected option; free-text attributes
// print the stored text. Unknown attributes and options are skipped.
func (f *AttributeFormatter) FormatAttributes(ctx context.Context, attributesXML string, opts FormatOptions) (string, error) {
	sep := opts.Separator
	if sep == "" {
		sep = DefaultSeparator
	}

	attrs, err := f.parser.ParseAttributes(ctx, attributesXML)
	if err != nil && !domain.IsCode(err, domain.EINVALID) {
		return "", err
	}

	var lines []string
	for _, attr := range attrs {
		name := f.localizer.AttributeName(attr)
		raw, _ := f.parser.ParseValues(attributesXML, attr.ID)

		for _, v := range raw {
			text := v
			if attr.ShouldHaveValues() {
				valueID, ok := parseValueID(v)
				if !ok {
					continue
				}
				value, verr := f.catalog.GetAttributeValueByID(ctx, valueID)
				if verr != nil && !domain.IsCode(verr, domain.ENOTFOUND) {
					return "", domain.Internal(verr, "attributes.format", "failed to load address attribute value")
				}
				if value == nil {
					continue
				}
				text = value.Name
			}

			if opts.HTMLEncode {
				lines = append(lines, html.EscapeString(name)+": "+html.EscapeString(text))
				continue
			}
			lines = append(lines, name+": "+text)
		}
	}

	return strings.Join(lines, sep), err
}
