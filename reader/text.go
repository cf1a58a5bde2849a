package reader

import (
	"bytes"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// maxFormDepth bounds nesting of form XObjects painted with Do.
const maxFormDepth = 8

// ExtractText returns the text shown by the page's Tj, TJ, ' and "
// operators, including text inside form XObjects the page paints.
//
// String bytes are decoded as WinAnsi unless they carry a UTF-16BE byte
// order mark. Fonts with custom encodings or ToUnicode CMaps are not
// interpreted.
func (p *Page) ExtractText() (string, error) {
	data, err := p.ContentStream()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	p.doc.extractText(&sb, data, p.Resources, 0)
	return strings.Join(strings.Fields(sb.String()), " "), nil
}

// extractText scans one content stream. Operands are collected until an
// operator token is reached, as in a PostScript-style interpreter.
func (d *Document) extractText(sb *strings.Builder, data []byte, res Dict, depth int) {
	p := newParser(data)
	var operands []Object
	for {
		p.skipWhitespace()
		b, ok := p.peek()
		if !ok {
			return
		}
		if b == '(' || b == '<' || b == '/' || b == '[' || b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9') {
			obj, err := p.ParseObject()
			if err != nil {
				p.pos++
				operands = operands[:0]
				continue
			}
			operands = append(operands, obj)
			continue
		}
		if !isRegular(b) {
			p.pos++
			continue
		}

		switch op := p.readToken(); op {
		case "BT", "ET", "Td", "TD", "T*":
			sb.WriteByte(' ')
		case "Tj":
			writeStrings(sb, operands)
		case "'", "\"":
			sb.WriteByte(' ')
			writeStrings(sb, operands)
		case "TJ":
			for _, o := range operands {
				if arr, ok := o.(Array); ok {
					writeStrings(sb, arr)
				}
			}
		case "Do":
			if len(operands) > 0 && depth < maxFormDepth {
				if name, ok := operands[len(operands)-1].(Name); ok {
					d.extractForm(sb, name, res, depth)
				}
			}
		case "BI":
			skipInlineImage(p)
		}
		operands = operands[:0]
	}
}

// extractForm follows a /Name Do reference into a form XObject.
func (d *Document) extractForm(sb *strings.Builder, name Name, res Dict, depth int) {
	xobjs, _ := d.resolveIfRef(res["XObject"])
	xd, ok := xobjs.(Dict)
	if !ok {
		return
	}
	obj, err := d.resolveIfRef(xd[name])
	if err != nil {
		return
	}
	s, ok := obj.(Stream)
	if !ok || s.Dict.GetName("Subtype") != "Form" {
		return
	}
	data, err := s.Decode()
	if err != nil {
		return
	}
	formRes := res
	if r, err := d.resolveIfRef(s.Dict["Resources"]); err == nil {
		if rd, ok := r.(Dict); ok {
			formRes = rd
		}
	}
	sb.WriteByte(' ')
	d.extractText(sb, data, formRes, depth+1)
	sb.WriteByte(' ')
}

func writeStrings(sb *strings.Builder, objs []Object) {
	for _, o := range objs {
		if s, ok := o.(String); ok {
			sb.WriteString(decodeTextString(s.Value))
		}
	}
}

// skipInlineImage advances past "ID <data> EI".
func skipInlineImage(p *parser) {
	idx := bytes.Index(p.data[p.pos:], []byte("ID"))
	if idx < 0 {
		p.pos = len(p.data)
		return
	}
	p.pos += idx + 2
	for p.pos < len(p.data) {
		idx := bytes.Index(p.data[p.pos:], []byte("EI"))
		if idx < 0 {
			p.pos = len(p.data)
			return
		}
		at := p.pos + idx
		p.pos = at + 2
		if at > 0 && isWhitespace(p.data[at-1]) && (p.pos >= len(p.data) || !isRegular(p.data[p.pos])) {
			return
		}
	}
}

// decodeTextString decodes a string shown by a text operator.
func decodeTextString(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		return decodeUTF16BE(data[2:])
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return decodePDFString(data)
	}
	return string(out)
}

// decodePDFString decodes a text string from the document structure.
// Strings with a UTF-16BE byte order mark are decoded as such; anything
// else is treated as PDFDocEncoding, which matches Latin-1 for printable
// characters.
func decodePDFString(data []byte) string {
	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		return decodeUTF16BE(data[2:])
	}
	var buf strings.Builder
	for _, b := range data {
		buf.WriteRune(rune(b))
	}
	return buf.String()
}

// decodeUTF16BE decodes UTF-16BE encoded bytes to a Go string.
func decodeUTF16BE(data []byte) string {
	if len(data)%2 != 0 {
		data = append(data, 0)
	}
	u16s := make([]uint16, len(data)/2)
	for i := range u16s {
		u16s[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return string(utf16.Decode(u16s))
}
