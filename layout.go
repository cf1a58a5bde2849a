package pdfformfiller

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// baselineRatio places the first baseline below the top of the frame, as a
// fraction of the font size.
const baselineRatio = 0.8

// sizePrecision is the resolution of the shrink-to-fit search, in points.
const sizePrecision = 0.05

// measurer is the part of *fpdf.Fpdf the layout needs.
type measurer interface {
	SetFont(familyStr, styleStr string, size float64)
	GetStringWidth(s string) float64
}

// textLayout is the result of fitting text into a frame.
type textLayout struct {
	Size    float64
	Leading float64
	Lines   []string // WinAnsi encoded
	Clipped bool     // the text overflows the frame even at MinSize
}

// layoutText breaks text into lines that fit width and picks the largest
// font size in [st.MinSize, st.Size] at which the lines also fit height.
// When nothing fits, the layout at MinSize is returned with Clipped set.
// st must be complete (see Style.over).
func layoutText(m measurer, text string, st Style, width, height float64) textLayout {
	paragraphs := splitParagraphs(encodeWinAnsi(text))
	if len(paragraphs) == 0 {
		return textLayout{Size: st.Size, Leading: st.Leading}
	}

	try := func(size float64) (textLayout, bool) {
		m.SetFont(st.Family, st.FontStyle, size)
		lines, ok := wrap(m, paragraphs, width)
		l := textLayout{Size: size, Leading: st.Leading * size / st.Size, Lines: lines}
		needed := float64(len(lines)-1)*l.Leading + size
		return l, ok && needed <= height+1e-9
	}

	if l, ok := try(st.Size); ok {
		return l
	}
	best, ok := try(st.MinSize)
	if !ok {
		best.Clipped = true
		return best
	}
	lo, hi := st.MinSize, st.Size
	for hi-lo > sizePrecision {
		mid := (lo + hi) / 2
		if l, ok := try(mid); ok {
			lo, best = mid, l
		} else {
			hi = mid
		}
	}
	return best
}

// splitParagraphs splits on line breaks. Text that is empty or only
// whitespace yields no paragraphs.
func splitParagraphs(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// wrap breaks each paragraph greedily at spaces. Words wider than width are
// broken between characters. The result reports false when a single
// character does not fit.
func wrap(m measurer, paragraphs []string, width float64) ([]string, bool) {
	fits := true
	var lines []string
	for _, para := range paragraphs {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := ""
		for _, w := range words {
			candidate := w
			if cur != "" {
				candidate = cur + " " + w
			}
			if m.GetStringWidth(candidate) <= width {
				cur = candidate
				continue
			}
			if cur != "" {
				lines = append(lines, cur)
			}
			if m.GetStringWidth(w) <= width {
				cur = w
				continue
			}
			pieces, ok := breakWord(m, w, width)
			fits = fits && ok
			lines = append(lines, pieces[:len(pieces)-1]...)
			cur = pieces[len(pieces)-1]
		}
		lines = append(lines, cur)
	}
	return lines, fits
}

// breakWord splits a single-byte encoded word into pieces no wider than
// width. A character wider than width gets a piece of its own.
func breakWord(m measurer, w string, width float64) ([]string, bool) {
	ok := true
	var pieces []string
	start := 0
	for i := 1; i <= len(w); i++ {
		if m.GetStringWidth(w[start:i]) <= width {
			continue
		}
		if i-1 == start {
			ok = false
			pieces = append(pieces, w[start:i])
			start = i
			continue
		}
		pieces = append(pieces, w[start:i-1])
		start = i - 1
		i--
	}
	if start < len(w) {
		pieces = append(pieces, w[start:])
	}
	return pieces, ok
}

// encodeWinAnsi converts UTF-8 text to the single-byte encoding used by
// the core fonts. Runes without a WinAnsi code become '?'; tabs become
// spaces and other control characters are dropped.
func encodeWinAnsi(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			sb.WriteRune(r)
		case r == '\t':
			sb.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
		default:
			b, ok := charmap.Windows1252.EncodeRune(r)
			if !ok {
				b = '?'
			}
			sb.WriteByte(b)
		}
	}
	return sb.String()
}
