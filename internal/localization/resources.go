// Package localization resolves display strings from a resource file.
package localization

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dukerupert/addressattr/internal/domain"
	"github.com/spf13/viper"
)

// Resource keys contain dots, so viper's nested key delimiter is replaced
// with one that never appears in a key.
const keyDelimiter = "::"

// attributeNamePrefix prefixes resource keys that rename an attribute,
// e.g. AddressAttribute.Name.12.
const attributeNamePrefix = "AddressAttribute.Name."

// Defaults are the built-in resources used when no file overrides them.
var Defaults = map[string]string{
	"ShoppingCart.SelectAttribute": "Please select {0}",
}

// Resources is a flat key to template lookup. Keys are case-insensitive.
// Missing keys resolve to the key itself.
type Resources struct {
	v *viper.Viper
}

// New returns resources holding only the defaults.
func New() *Resources {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	for k, val := range Defaults {
		v.SetDefault(k, val)
	}
	return &Resources{v: v}
}

// Load reads resources from path. The format follows the file extension
// (yaml, toml, json). An empty path returns the defaults.
func Load(path string) (*Resources, error) {
	r := New()
	if path == "" {
		return r, nil
	}
	r.v.SetConfigFile(path)
	if err := r.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read resources %s: %w", path, err)
	}
	return r, nil
}

// Set overrides a single resource.
func (r *Resources) Set(key, value string) {
	r.v.Set(key, value)
}

// GetResource returns the template stored under key.
func (r *Resources) GetResource(key string) string {
	if !r.v.IsSet(key) {
		return key
	}
	if s := r.v.GetString(key); s != "" {
		return s
	}
	return key
}

// AttributeName returns the localized name of attr, falling back to its
// catalog name.
func (r *Resources) AttributeName(attr domain.AddressAttribute) string {
	key := attributeNamePrefix + strconv.Itoa(attr.ID)
	if name := strings.TrimSpace(r.GetResource(key)); name != "" && name != key {
		return name
	}
	return attr.Name
}
