package reader

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// parser is a recursive descent parser for PDF object syntax.
type parser struct {
	data []byte
	pos  int

	// streamLength resolves an indirect /Length value. When nil, or when
	// it fails, the stream extent is found by scanning for "endstream".
	streamLength func(Reference) (int, bool)
}

func newParser(data []byte) *parser {
	return &parser{data: data}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	return p.data[p.pos], true
}

// skipWhitespace advances past whitespace and comments.
func (p *parser) skipWhitespace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', 0:
			p.pos++
		case '%':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
		default:
			return
		}
	}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegular(b byte) bool {
	return !isWhitespace(b) && !isDelimiter(b)
}

// readToken reads the next run of regular characters (keyword or number).
func (p *parser) readToken() string {
	p.skipWhitespace()
	start := p.pos
	for p.pos < len(p.data) && isRegular(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// hasKeyword reports whether kw starts at the current position.
func (p *parser) hasKeyword(kw string) bool {
	return bytes.HasPrefix(p.data[p.pos:], []byte(kw))
}

// ParseObject parses the next PDF object from the current position.
func (p *parser) ParseObject() (Object, error) {
	p.skipWhitespace()
	b, ok := p.peek()
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}

	switch {
	case b == '<':
		if p.pos+1 < len(p.data) && p.data[p.pos+1] == '<' {
			return p.parseDict()
		}
		return p.parseHexString()
	case b == '(':
		return p.parseLiteralString()
	case b == '/':
		return p.parseName()
	case b == '[':
		return p.parseArray()
	case b == 't' || b == 'f':
		return p.parseBoolean()
	case b == 'n':
		return p.parseNull()
	case b >= '0' && b <= '9', b == '+', b == '-', b == '.':
		return p.parseNumberOrRef()
	default:
		return nil, fmt.Errorf("reader: unexpected character %q at position %d", b, p.pos)
	}
}

// parseName parses a name object, decoding #xx escapes.
func (p *parser) parseName() (Name, error) {
	if b, ok := p.peek(); !ok || b != '/' {
		return "", fmt.Errorf("reader: expected '/' at position %d", p.pos)
	}
	p.pos++

	var buf bytes.Buffer
	for p.pos < len(p.data) {
		b := p.data[p.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		if b == '#' && p.pos+2 < len(p.data) {
			hi, lo := unhex(p.data[p.pos+1]), unhex(p.data[p.pos+2])
			if hi >= 0 && lo >= 0 {
				buf.WriteByte(byte(hi<<4 | lo))
				p.pos += 3
				continue
			}
		}
		buf.WriteByte(b)
		p.pos++
	}
	return Name(buf.String()), nil
}

func (p *parser) parseBoolean() (Boolean, error) {
	switch tok := p.readToken(); tok {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("reader: expected boolean, got %q", tok)
	}
}

func (p *parser) parseNull() (Null, error) {
	if tok := p.readToken(); tok != "null" {
		return Null{}, fmt.Errorf("reader: expected null, got %q", tok)
	}
	return Null{}, nil
}

// parseNumberOrRef parses an integer, a real, or an indirect reference "N G R".
func (p *parser) parseNumberOrRef() (Object, error) {
	start := p.pos
	tok := p.readToken()

	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(tok, 64)
		if ferr != nil {
			return nil, fmt.Errorf("reader: invalid number %q at position %d", tok, start)
		}
		return Real(f), nil
	}

	afterFirst := p.pos
	p.skipWhitespace()
	if b, ok := p.peek(); ok && b >= '0' && b <= '9' {
		gen, err := strconv.ParseInt(p.readToken(), 10, 64)
		if err == nil {
			p.skipWhitespace()
			if b, ok := p.peek(); ok && b == 'R' {
				p.pos++
				return Reference{Number: int(n), Generation: int(gen)}, nil
			}
		}
	}
	p.pos = afterFirst
	return Integer(n), nil
}

// parseLiteralString parses "(text)" with balanced parentheses and escapes.
func (p *parser) parseLiteralString() (String, error) {
	value, end, ok := scanLiteralString(p.data, p.pos)
	if !ok {
		return String{}, fmt.Errorf("reader: unterminated literal string at position %d", p.pos)
	}
	p.pos = end
	return String{Value: value}, nil
}

// scanLiteralString decodes the literal string starting at data[pos] == '('.
// It returns the decoded bytes and the position after the closing ')'.
func scanLiteralString(data []byte, pos int) ([]byte, int, bool) {
	if pos >= len(data) || data[pos] != '(' {
		return nil, pos, false
	}
	pos++

	var buf bytes.Buffer
	depth := 1
	for pos < len(data) {
		b := data[pos]
		pos++
		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return buf.Bytes(), pos, true
			}
			buf.WriteByte(b)
		case '\\':
			if pos >= len(data) {
				return buf.Bytes(), pos, false
			}
			esc := data[pos]
			pos++
			switch esc {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r':
				// line continuation
				if pos < len(data) && data[pos] == '\n' {
					pos++
				}
			case '\n':
			default:
				if esc >= '0' && esc <= '7' {
					oct := int(esc - '0')
					for i := 0; i < 2 && pos < len(data) && data[pos] >= '0' && data[pos] <= '7'; i++ {
						oct = oct*8 + int(data[pos]-'0')
						pos++
					}
					buf.WriteByte(byte(oct))
				} else {
					buf.WriteByte(esc)
				}
			}
		default:
			buf.WriteByte(b)
		}
	}
	return buf.Bytes(), pos, false
}

// parseHexString parses "<hex digits>".
func (p *parser) parseHexString() (String, error) {
	value, end, err := scanHexString(p.data, p.pos)
	if err != nil {
		return String{}, err
	}
	p.pos = end
	return String{Value: value, IsHex: true}, nil
}

func scanHexString(data []byte, pos int) ([]byte, int, error) {
	if pos >= len(data) || data[pos] != '<' {
		return nil, pos, fmt.Errorf("reader: expected '<' at position %d", pos)
	}
	pos++

	var buf bytes.Buffer
	hi := -1
	for pos < len(data) {
		b := data[pos]
		pos++
		if b == '>' {
			if hi >= 0 {
				buf.WriteByte(byte(hi << 4))
			}
			return buf.Bytes(), pos, nil
		}
		if isWhitespace(b) {
			continue
		}
		v := unhex(b)
		if v < 0 {
			return nil, pos, fmt.Errorf("reader: invalid hex character %q in hex string", b)
		}
		if hi < 0 {
			hi = v
		} else {
			buf.WriteByte(byte(hi<<4 | v))
			hi = -1
		}
	}
	return nil, pos, fmt.Errorf("reader: unterminated hex string")
}

func (p *parser) parseArray() (Array, error) {
	p.pos++ // '['
	var arr Array
	for {
		p.skipWhitespace()
		b, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("reader: unterminated array")
		}
		if b == ']' {
			p.pos++
			return arr, nil
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("reader: in array: %w", err)
		}
		arr = append(arr, obj)
	}
}

func (p *parser) parseDict() (Dict, error) {
	p.pos += 2 // '<<'
	d := make(Dict)
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("reader: unterminated dictionary")
		}
		if p.hasKeyword(">>") {
			p.pos += 2
			return d, nil
		}
		key, err := p.parseName()
		if err != nil {
			return nil, fmt.Errorf("reader: dict key: %w", err)
		}
		val, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("reader: dict value for %s: %w", key, err)
		}
		d[key] = val
	}
}

// ParseIndirectObject parses "N G obj ... endobj", including stream bodies.
func (p *parser) ParseIndirectObject() (*IndirectObject, error) {
	num, err := strconv.Atoi(p.readToken())
	if err != nil {
		return nil, fmt.Errorf("reader: expected object number at position %d", p.pos)
	}
	gen, err := strconv.Atoi(p.readToken())
	if err != nil {
		return nil, fmt.Errorf("reader: expected generation number at position %d", p.pos)
	}
	if tok := p.readToken(); tok != "obj" {
		return nil, fmt.Errorf("reader: expected 'obj', got %q", tok)
	}

	val, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("reader: object %d %d: %w", num, gen, err)
	}

	p.skipWhitespace()
	if p.hasKeyword("stream") {
		dict, ok := val.(Dict)
		if !ok {
			return nil, fmt.Errorf("reader: stream object %d %d has non-dict header", num, gen)
		}
		data, err := p.readStreamData(dict)
		if err != nil {
			return nil, fmt.Errorf("reader: object %d %d: %w", num, gen, err)
		}
		val = Stream{Dict: dict, Data: data}
	}

	p.skipWhitespace()
	if p.hasKeyword("endobj") {
		p.pos += len("endobj")
	}

	return &IndirectObject{
		Reference: Reference{Number: num, Generation: gen},
		Value:     val,
	}, nil
}

// readStreamData reads the body following the "stream" keyword.
func (p *parser) readStreamData(dict Dict) ([]byte, error) {
	p.pos += len("stream")
	if p.pos < len(p.data) && p.data[p.pos] == '\r' {
		p.pos++
	}
	if p.pos < len(p.data) && p.data[p.pos] == '\n' {
		p.pos++
	}
	start := p.pos

	length, ok := p.declaredLength(dict)
	if ok && start+length <= len(p.data) {
		end := start + length
		rest := newParser(p.data[end:])
		rest.skipWhitespace()
		if rest.hasKeyword("endstream") {
			p.pos = end + rest.pos + len("endstream")
			return bytes.Clone(p.data[start:end]), nil
		}
	}

	// /Length is missing, indirect and unresolvable, or wrong.
	idx := bytes.Index(p.data[start:], []byte("endstream"))
	if idx < 0 {
		return nil, fmt.Errorf("stream has no endstream")
	}
	end := start + idx
	if end > start && p.data[end-1] == '\n' {
		end--
	}
	if end > start && p.data[end-1] == '\r' {
		end--
	}
	p.pos = start + idx + len("endstream")
	return bytes.Clone(p.data[start:end]), nil
}

func (p *parser) declaredLength(dict Dict) (int, bool) {
	switch v := dict["Length"].(type) {
	case Integer:
		return int(v), v >= 0
	case Reference:
		if p.streamLength != nil {
			return p.streamLength(v)
		}
	}
	return 0, false
}

// unhex returns the numeric value of a hex digit, or -1 if not valid.
func unhex(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	default:
		return -1
	}
}
