package address

import (
	"strconv"
	"strings"

	"github.com/dukerupert/addressattr/internal/domain"
)

// ResourceSelectAttribute is the resource key of the warning emitted for a
// required attribute without a value. The template receives the localized
// attribute name as {0}.
const ResourceSelectAttribute = "ShoppingCart.SelectAttribute"

// Localizer resolves display strings. The parser only needs a template
// lookup and the localized name of an attribute definition.
type Localizer interface {
	GetResource(key string) string
	AttributeName(attr domain.AddressAttribute) string
}

// FormatResource substitutes positional {0}, {1}, ... placeholders in
// template with args. Placeholders without an argument are left as is.
func FormatResource(template string, args ...string) string {
	if len(args) == 0 {
		return template
	}
	pairs := make([]string, 0, len(args)*2)
	for i, arg := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", arg)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
