package attrxml

import (
	"encoding/xml"
	"strings"
)

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\r", "&#xD;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\t", "&#x9;",
		"\n", "&#xA;",
		"\r", "&#xD;",
	)
)

// String serializes the document. Text and attribute values are escaped;
// whitespace between elements is written back as it was read.
func (d *Document) String() string {
	var b strings.Builder
	for _, tok := range d.prolog {
		writeToken(&b, tok)
	}
	writeElement(&b, d.root)
	for _, tok := range d.epilog {
		writeToken(&b, tok)
	}
	return b.String()
}

func writeElement(b *strings.Builder, e *Element) {
	if e == nil {
		return
	}
	name := qualified(e.Name)

	b.WriteByte('<')
	b.WriteString(name)
	for _, a := range e.Attr {
		b.WriteByte(' ')
		b.WriteString(qualified(a.Name))
		b.WriteString(`="`)
		attrEscaper.WriteString(b, a.Value)
		b.WriteByte('"')
	}
	b.WriteByte('>')

	for _, c := range e.Children {
		if c.Element != nil {
			writeElement(b, c.Element)
			continue
		}
		writeToken(b, c.Token)
	}

	b.WriteString("</")
	b.WriteString(name)
	b.WriteByte('>')
}

func writeToken(b *strings.Builder, tok xml.Token) {
	switch t := tok.(type) {
	case xml.CharData:
		textEscaper.WriteString(b, string(t))
	case xml.Comment:
		b.WriteString("<!--")
		b.Write(t)
		b.WriteString("-->")
	case xml.ProcInst:
		b.WriteString("<?")
		b.WriteString(t.Target)
		if len(t.Inst) > 0 {
			b.WriteByte(' ')
			b.Write(t.Inst)
		}
		b.WriteString("?>")
	case xml.Directive:
		b.WriteString("<!")
		b.Write(t)
		b.WriteByte('>')
	}
}
