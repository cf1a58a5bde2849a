package reader

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
)

// xrefEntry locates one object. Objects stored inside an object stream
// have Stream set to the containing stream's object number and Index to
// their position in it; Offset is unused for them.
type xrefEntry struct {
	Offset     int64
	Generation int
	InUse      bool
	Stream     int
	Index      int
}

func (e xrefEntry) compressed() bool { return e.Stream > 0 }

// xrefTable maps object numbers to their locations.
type xrefTable map[int]xrefEntry

// merge adds entries from older sections without overriding newer ones.
func (t xrefTable) merge(older xrefTable) {
	for num, entry := range older {
		if _, exists := t[num]; !exists {
			t[num] = entry
		}
	}
}

// findStartXRef locates the offset recorded after the last "startxref".
func findStartXRef(data []byte) (int64, error) {
	tail := data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("reader: startxref not found")
	}
	p := newParser(tail[idx+len("startxref"):])
	tok := p.readToken()
	offset, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("reader: invalid startxref offset %q: %w", tok, err)
	}
	return offset, nil
}

// readXRef parses the cross-reference chain starting at offset, following
// /Prev and /XRefStm links. The returned trailer is the newest one.
func readXRef(data []byte, offset int64) (xrefTable, Dict, error) {
	table := make(xrefTable)
	var trailer Dict
	seen := make(map[int64]bool)

	for next, ok := offset, true; ok; {
		if seen[next] {
			return nil, nil, fmt.Errorf("reader: xref chain loops at offset %d", next)
		}
		seen[next] = true

		section, dict, err := readXRefSection(data, next)
		if err != nil {
			return nil, nil, err
		}

		// A hybrid file keeps the compressed objects in a stream referenced
		// from the classic trailer; those entries rank right after the table.
		if stm, ok := dict.GetInt("XRefStm"); ok && !seen[stm] {
			seen[stm] = true
			if hidden, _, err := readXRefSection(data, stm); err == nil {
				section.merge(hidden)
			}
		}

		table.merge(section)
		if trailer == nil {
			trailer = dict
		}

		var prev int64
		prev, ok = dict.GetInt("Prev")
		next = prev
	}
	return table, trailer, nil
}

// readXRefSection parses one classic table or one cross-reference stream.
func readXRefSection(data []byte, offset int64) (xrefTable, Dict, error) {
	if offset < 0 || offset >= int64(len(data)) {
		return nil, nil, fmt.Errorf("reader: xref offset %d out of bounds", offset)
	}
	p := newParser(data[offset:])
	p.skipWhitespace()
	if !p.hasKeyword("xref") {
		return parseXRefStream(data, offset)
	}
	p.pos += len("xref")
	return parseXRefTable(p)
}

// parseXRefTable parses "xref" subsections up to and including the trailer.
func parseXRefTable(p *parser) (xrefTable, Dict, error) {
	table := make(xrefTable)
	for {
		p.skipWhitespace()
		if p.pos >= len(p.data) {
			return nil, nil, fmt.Errorf("reader: xref table has no trailer")
		}
		if p.hasKeyword("trailer") {
			p.pos += len("trailer")
			break
		}

		startObj, err := strconv.Atoi(p.readToken())
		if err != nil {
			return nil, nil, fmt.Errorf("reader: xref subsection start: %w", err)
		}
		count, err := strconv.Atoi(p.readToken())
		if err != nil {
			return nil, nil, fmt.Errorf("reader: xref subsection count: %w", err)
		}

		for i := 0; i < count; i++ {
			offset, err := strconv.ParseInt(p.readToken(), 10, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("reader: xref entry %d offset: %w", startObj+i, err)
			}
			gen, err := strconv.Atoi(p.readToken())
			if err != nil {
				return nil, nil, fmt.Errorf("reader: xref entry %d generation: %w", startObj+i, err)
			}
			kind := p.readToken()

			// first definition within a section wins
			if _, exists := table[startObj+i]; !exists {
				table[startObj+i] = xrefEntry{Offset: offset, Generation: gen, InUse: kind == "n"}
			}
		}
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, nil, fmt.Errorf("reader: trailer dict: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, nil, fmt.Errorf("reader: trailer is not a dictionary")
	}
	return table, trailer, nil
}

// parseXRefStream parses a cross-reference stream object (PDF 1.5+).
func parseXRefStream(data []byte, offset int64) (xrefTable, Dict, error) {
	p := newParser(data[offset:])
	obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, nil, fmt.Errorf("reader: xref stream object: %w", err)
	}
	stream, ok := obj.Value.(Stream)
	if !ok || stream.Dict.GetName("Type") != "XRef" {
		return nil, nil, fmt.Errorf("reader: object at offset %d is not an xref stream", offset)
	}

	decoded, err := decodeStream(stream)
	if err != nil {
		return nil, nil, fmt.Errorf("reader: decoding xref stream: %w", err)
	}

	wArr := stream.Dict.GetArray("W")
	if len(wArr) != 3 {
		return nil, nil, fmt.Errorf("reader: xref stream /W must have 3 elements")
	}
	var widths [3]int
	for i, w := range wArr {
		v, ok := number(w)
		if !ok || v < 0 || v > 8 {
			return nil, nil, fmt.Errorf("reader: xref stream /W element %d is invalid", i)
		}
		widths[i] = int(v)
	}
	entrySize := widths[0] + widths[1] + widths[2]
	if entrySize == 0 {
		return nil, nil, fmt.Errorf("reader: xref stream has zero-width entries")
	}

	var index []int
	for _, v := range stream.Dict.GetArray("Index") {
		if n, ok := number(v); ok {
			index = append(index, int(n))
		}
	}
	if len(index) == 0 {
		size, _ := stream.Dict.GetInt("Size")
		index = []int{0, int(size)}
	}

	table := make(xrefTable)
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		for j := 0; j < index[i+1]; j++ {
			if pos+entrySize > len(decoded) {
				return table, stream.Dict, nil
			}
			var fields [3]int64
			for f := 0; f < 3; f++ {
				for k := 0; k < widths[f]; k++ {
					fields[f] = fields[f]<<8 | int64(decoded[pos])
					pos++
				}
			}
			if widths[0] == 0 {
				fields[0] = 1
			}

			num := index[i] + j
			switch fields[0] {
			case 0:
				table[num] = xrefEntry{Generation: int(fields[2])}
			case 1:
				table[num] = xrefEntry{Offset: fields[1], Generation: int(fields[2]), InUse: true}
			case 2:
				table[num] = xrefEntry{Stream: int(fields[1]), Index: int(fields[2]), InUse: true}
			}
		}
	}
	return table, stream.Dict, nil
}

var objHeaderRe = regexp.MustCompile(`(?m)(?:^|[\r\n\s])(\d+)\s+(\d+)\s+obj\b`)

// rebuildXRef reconstructs a table by scanning for object headers. It is
// used when the recorded cross-reference data is unusable; later
// definitions of the same object win, as they would after an update.
func rebuildXRef(data []byte) (xrefTable, Dict, error) {
	table := make(xrefTable)
	var root Reference
	for _, m := range objHeaderRe.FindAllSubmatchIndex(data, -1) {
		num, err1 := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(data[m[4]:m[5]]))
		if err1 != nil || err2 != nil {
			continue
		}
		table[num] = xrefEntry{Offset: int64(m[2]), Generation: gen, InUse: true}

		p := newParser(data[m[2]:])
		obj, err := p.ParseIndirectObject()
		if err != nil {
			continue
		}
		if d, ok := obj.Value.(Dict); ok && d.GetName("Type") == "Catalog" {
			root = obj.Reference
		}
	}
	if root.Number == 0 {
		return nil, nil, fmt.Errorf("reader: no catalog found while rebuilding xref")
	}
	return table, Dict{"Root": root}, nil
}
