package reader

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"io"
)

// decodeStream applies the stream's filter chain and returns the plain data.
func decodeStream(s Stream) ([]byte, error) {
	filters, params, err := streamFilters(s.Dict)
	if err != nil {
		return nil, err
	}

	data := s.Data
	for i, f := range filters {
		data, err = applyFilter(f, params[i], data)
		if err != nil {
			return nil, fmt.Errorf("reader: applying filter %s: %w", f, err)
		}
	}
	return data, nil
}

// streamFilters normalizes /Filter and /DecodeParms into parallel slices.
func streamFilters(d Dict) ([]Name, []Dict, error) {
	var filters []Name
	switch f := d["Filter"].(type) {
	case nil:
		return nil, nil, nil
	case Name:
		filters = []Name{f}
	case Array:
		for _, item := range f {
			n, ok := item.(Name)
			if !ok {
				return nil, nil, fmt.Errorf("reader: filter array contains %T", item)
			}
			filters = append(filters, n)
		}
	default:
		return nil, nil, fmt.Errorf("reader: unexpected filter type %T", f)
	}

	params := make([]Dict, len(filters))
	switch p := d["DecodeParms"].(type) {
	case Dict:
		params[0] = p
	case Array:
		for i, item := range p {
			if i < len(params) {
				params[i], _ = item.(Dict)
			}
		}
	}
	return filters, params, nil
}

func applyFilter(name Name, params Dict, data []byte) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		out, err := flateDecode(data)
		if err != nil {
			return nil, err
		}
		return unpredict(out, params)
	case "ASCIIHexDecode", "AHx":
		return asciiHexDecode(data)
	case "ASCII85Decode", "A85":
		return ascii85Decode(data)
	default:
		return nil, fmt.Errorf("unsupported filter %s", name)
	}
}

func flateDecode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib init: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		// Many writers omit the checksum; keep what was inflated.
		if buf.Len() > 0 && (err == io.ErrUnexpectedEOF || err == zlib.ErrChecksum) {
			return buf.Bytes(), nil
		}
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	return buf.Bytes(), nil
}

// unpredict reverses the TIFF (2) or PNG (>= 10) predictor named in params.
func unpredict(data []byte, params Dict) ([]byte, error) {
	predictor, _ := params.GetInt("Predictor")
	if predictor <= 1 {
		return data, nil
	}

	colors, columns, bpc := int64(1), int64(1), int64(8)
	if v, ok := params.GetInt("Colors"); ok && v > 0 {
		colors = v
	}
	if v, ok := params.GetInt("Columns"); ok && v > 0 {
		columns = v
	}
	if v, ok := params.GetInt("BitsPerComponent"); ok && v > 0 {
		bpc = v
	}
	bpp := int((colors*bpc + 7) / 8)
	rowLen := int((colors*bpc*columns + 7) / 8)

	if predictor == 2 {
		if bpc != 8 {
			return nil, fmt.Errorf("TIFF predictor with %d bits per component", bpc)
		}
		out := bytes.Clone(data)
		for row := 0; row+rowLen <= len(out); row += rowLen {
			for i := row + bpp; i < row+rowLen; i++ {
				out[i] += out[i-bpp]
			}
		}
		return out, nil
	}

	// PNG: every row is prefixed with its filter type byte.
	stride := rowLen + 1
	out := make([]byte, 0, len(data)/stride*rowLen)
	prev := make([]byte, rowLen)
	cur := make([]byte, rowLen)
	for row := 0; row+stride <= len(data); row += stride {
		kind := data[row]
		copy(cur, data[row+1:row+stride])
		for i := range cur {
			var left, up, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up = prev[i]
			switch kind {
			case 0:
			case 1:
				cur[i] += left
			case 2:
				cur[i] += up
			case 3:
				cur[i] += byte((int(left) + int(up)) / 2)
			case 4:
				cur[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG filter type %d", kind)
			}
		}
		out = append(out, cur...)
		prev, cur = cur, prev
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// asciiHexDecode decodes ASCII hex data terminated by '>'.
func asciiHexDecode(data []byte) ([]byte, error) {
	var clean []byte
	for _, b := range data {
		if b == '>' {
			break
		}
		if !isWhitespace(b) {
			clean = append(clean, b)
		}
	}
	if len(clean)%2 != 0 {
		clean = append(clean, '0')
	}
	dst := make([]byte, hex.DecodedLen(len(clean)))
	if _, err := hex.Decode(dst, clean); err != nil {
		return nil, fmt.Errorf("ascii hex decode: %w", err)
	}
	return dst, nil
}

// ascii85Decode decodes ASCII85 data terminated by "~>".
func ascii85Decode(data []byte) ([]byte, error) {
	if end := bytes.Index(data, []byte("~>")); end >= 0 {
		data = data[:end]
	}
	data = bytes.TrimPrefix(bytes.TrimSpace(data), []byte("<~"))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, ascii85.NewDecoder(bytes.NewReader(data))); err != nil {
		return nil, fmt.Errorf("ascii85 decode: %w", err)
	}
	return buf.Bytes(), nil
}
