// Package attrxml implements the address attributes XML document:
//
//	<Attributes>
//	  <AddressAttribute ID="1">
//	    <AddressAttributeValue><Value>text</Value></AddressAttributeValue>
//	  </AddressAttribute>
//	</Attributes>
//
// The tag vocabulary is fixed and unversioned. Documents are parsed into a
// small tree that keeps comments, processing instructions and whitespace so a
// stored document survives a rewrite with only the intended change.
package attrxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tag vocabulary.
const (
	RootElement           = "Attributes"
	AttributeElement      = "AddressAttribute"
	IDAttribute           = "ID"
	ValueContainerElement = "AddressAttributeValue"
	ValueElement          = "Value"
)

var (
	// ErrNoAttributesElement is returned by writes on a document that has no
	// Attributes element to append to.
	ErrNoAttributesElement = errors.New("attrxml: document has no Attributes element")

	// ErrNoRoot is returned when the input contains no element at all.
	ErrNoRoot = errors.New("attrxml: document has no root element")

	// ErrInvalidText is returned when a value is not valid UTF-8 or holds a
	// character XML cannot represent.
	ErrInvalidText = errors.New("attrxml: value contains characters not allowed in XML")
)

// Node is a child of an element: either a nested element or one of
// xml.CharData, xml.Comment, xml.ProcInst, xml.Directive.
type Node struct {
	Element *Element
	Token   xml.Token
}

// Element is an XML element. Name.Space holds the raw prefix, not a
// namespace URI.
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []Node
}

// Document is a parsed attributes document.
type Document struct {
	prolog []xml.Token
	root   *Element
	epilog []xml.Token
}

// New returns a document holding an empty Attributes root.
func New() *Document {
	return &Document{root: &Element{Name: xml.Name{Local: RootElement}}}
}

// Parse parses s. Input that is empty or whitespace is not a document;
// callers decide whether that means "no attributes" before calling Parse.
func Parse(s string) (*Document, error) {
	dec := xml.NewDecoder(strings.NewReader(s))

	doc := &Document{}
	var stack []*Element
	rootClosed := false

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, fmt.Errorf("attrxml: unexpected element <%s> after document end", t.Name.Local)
			}
			elem := &Element{Name: t.Name, Attr: copyAttrs(t.Attr)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, Node{Element: elem})
			} else {
				doc.root = elem
			}
			stack = append(stack, elem)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("attrxml: unexpected end element </%s>", t.Name.Local)
			}
			top := stack[len(stack)-1]
			if top.Name != t.Name {
				return nil, fmt.Errorf("attrxml: element <%s> closed by </%s>", qualified(top.Name), qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				rootClosed = true
			}

		case xml.CharData:
			if len(stack) == 0 {
				if !isSpace(string(t)) {
					return nil, errors.New("attrxml: character data outside root element")
				}
				doc.appendOutside(xml.CopyToken(t), rootClosed)
				continue
			}
			stack[len(stack)-1].append(xml.CopyToken(t))

		default:
			if len(stack) == 0 {
				doc.appendOutside(xml.CopyToken(t), rootClosed)
				continue
			}
			stack[len(stack)-1].append(xml.CopyToken(t))
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("attrxml: unexpected EOF: element <%s> not closed", qualified(stack[len(stack)-1].Name))
	}
	if doc.root == nil {
		return nil, ErrNoRoot
	}
	return doc, nil
}

func (d *Document) appendOutside(tok xml.Token, afterRoot bool) {
	if afterRoot {
		d.epilog = append(d.epilog, tok)
		return
	}
	d.prolog = append(d.prolog, tok)
}

func (e *Element) append(tok xml.Token) {
	e.Children = append(e.Children, Node{Token: tok})
}

// Root returns the document element.
func (d *Document) Root() *Element {
	return d.root
}

// AttributeElements returns every AddressAttribute element that is a direct
// child of an Attributes element, at any depth, in document order.
func (d *Document) AttributeElements() []*Element {
	var out []*Element
	walk(d.root, func(e *Element) {
		if !e.is(RootElement) {
			return
		}
		for _, c := range e.Children {
			if c.Element != nil && c.Element.is(AttributeElement) {
				out = append(out, c.Element)
			}
		}
	})
	return out
}

// FindAttribute returns the first AddressAttribute element whose ID parses
// to id, or nil.
func (d *Document) FindAttribute(id int) *Element {
	for _, e := range d.AttributeElements() {
		if got, ok := e.ID(); ok && got == id {
			return e
		}
	}
	return nil
}

// AppendValue appends a Value holding value verbatim to the attribute with
// the given id, creating the AddressAttribute element under the first
// Attributes element when it does not exist yet.
func (d *Document) AppendValue(id int, value string) error {
	if !ValidText(value) {
		return ErrInvalidText
	}

	attr := d.FindAttribute(id)
	if attr == nil {
		root := d.firstAttributesElement()
		if root == nil {
			return ErrNoAttributesElement
		}
		attr = &Element{
			Name: xml.Name{Local: AttributeElement},
			Attr: []xml.Attr{{Name: xml.Name{Local: IDAttribute}, Value: strconv.Itoa(id)}},
		}
		root.Children = append(root.Children, Node{Element: attr})
	}

	v := &Element{Name: xml.Name{Local: ValueElement}}
	if value != "" {
		v.Children = []Node{{Token: xml.CharData(value)}}
	}
	attr.Children = append(attr.Children, Node{Element: &Element{
		Name:     xml.Name{Local: ValueContainerElement},
		Children: []Node{{Element: v}},
	}})
	return nil
}

// RemoveAttribute removes every AddressAttribute element whose ID parses to
// id and reports how many were removed.
func (d *Document) RemoveAttribute(id int) int {
	removed := 0
	walk(d.root, func(e *Element) {
		if !e.is(RootElement) {
			return
		}
		kept := e.Children[:0]
		for _, c := range e.Children {
			if c.Element != nil && c.Element.is(AttributeElement) {
				if got, ok := c.Element.ID(); ok && got == id {
					removed++
					continue
				}
			}
			kept = append(kept, c)
		}
		e.Children = kept
	})
	return removed
}

// ValidText reports whether s is valid UTF-8 made only of characters in the
// XML Char production.
func ValidText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return false
		}
	}
	return true
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

func (d *Document) firstAttributesElement() *Element {
	var found *Element
	walk(d.root, func(e *Element) {
		if found == nil && e.is(RootElement) {
			found = e
		}
	})
	return found
}

// ID returns the integer value of the element's ID attribute. The text is
// trimmed before parsing; a missing or non-integer ID reports false.
func (e *Element) ID() (int, bool) {
	for _, a := range e.Attr {
		if a.Name.Space == "" && a.Name.Local == IDAttribute {
			n, err := strconv.ParseInt(strings.TrimSpace(a.Value), 10, 32)
			if err != nil {
				return 0, false
			}
			return int(n), true
		}
	}
	return 0, false
}

// Values returns the trimmed text of every AddressAttributeValue/Value child
// of the element, in document order. Empty values are kept.
func (e *Element) Values() []string {
	values := []string{}
	for _, c := range e.Children {
		if c.Element == nil || !c.Element.is(ValueContainerElement) {
			continue
		}
		for _, v := range c.Element.Children {
			if v.Element != nil && v.Element.is(ValueElement) {
				values = append(values, strings.TrimSpace(v.Element.InnerText()))
			}
		}
	}
	return values
}

// InnerText concatenates all character data below the element.
func (e *Element) InnerText() string {
	var b strings.Builder
	var collect func(*Element)
	collect = func(el *Element) {
		for _, c := range el.Children {
			if c.Element != nil {
				collect(c.Element)
				continue
			}
			if cd, ok := c.Token.(xml.CharData); ok {
				b.Write(cd)
			}
		}
	}
	collect(e)
	return b.String()
}

func (e *Element) is(local string) bool {
	return e.Name.Space == "" && e.Name.Local == local
}

// walk visits e and its descendant elements in document order.
func walk(e *Element, fn func(*Element)) {
	if e == nil {
		return
	}
	fn(e)
	for _, c := range e.Children {
		if c.Element != nil {
			walk(c.Element, fn)
		}
	}
}

func copyAttrs(attrs []xml.Attr) []xml.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]xml.Attr, len(attrs))
	copy(out, attrs)
	return out
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func isSpace(s string) bool {
	for _, r := range s {
		if r == '\uFEFF' {
			continue
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
