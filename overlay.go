package pdfformfiller

import (
	"log/slog"

	"github.com/lvillar/pdfformfiller/pageops"
)

// boxLineWidth is the stroke width of field outlines, in points.
const boxLineWidth = 1

// effective returns the style and padding a field is drawn with.
func (f *Filler) effective(field TextField) (Style, Padding) {
	st := f.cfg.style
	if field.Style != nil {
		st = field.Style.over(st)
	}
	pad := f.cfg.padding
	if field.Padding != nil {
		pad = *field.Padding
	}
	return st, pad
}

// drawFields renders the fields of one page onto its overlay, in
// insertion order.
func (f *Filler) drawFields(ov *pageops.Overlay, page int, fields []TextField) {
	if f.cfg.boxes {
		col := f.cfg.boxColor
		ov.SetDrawColor(col.R, col.G, col.B)
		ov.SetLineWidth(boxLineWidth)
	}

	for i, field := range fields {
		st, pad := f.effective(field)
		r := field.Rect
		if f.cfg.boxes {
			ov.Rect(r.X, r.top(ov.Height), r.Width, r.Height, "D")
		}

		frame := r.Inset(pad)
		if !frame.Valid() {
			f.cfg.logger.Debug("padding leaves no room for text", slog.Int("page", page), slog.Int("field", i))
			continue
		}
		l := layoutText(ov, field.Text, st, frame.Width, frame.Height)
		if len(l.Lines) == 0 {
			continue
		}
		if l.Clipped {
			f.cfg.logger.Debug("text clipped",
				slog.Int("page", page), slog.Int("field", i), slog.Float64("size", l.Size))
		}
		drawLayout(ov, l, st, frame)
	}
}

// drawLayout draws laid out lines inside frame, clipped to it.
func drawLayout(ov *pageops.Overlay, l textLayout, st Style, frame Rect) {
	top := frame.top(ov.Height)
	ov.ClipRect(frame.X, top, frame.Width, frame.Height, false)
	defer ov.ClipEnd()

	ov.SetFont(st.Family, st.FontStyle, l.Size)
	ov.SetTextColor(st.Color.R, st.Color.G, st.Color.B)
	for i, line := range l.Lines {
		if line == "" {
			continue
		}
		x := frame.X
		switch st.Align {
		case AlignCenter:
			x += (frame.Width - ov.GetStringWidth(line)) / 2
		case AlignRight:
			x += frame.Width - ov.GetStringWidth(line)
		}
		baseline := top + float64(i)*l.Leading + baselineRatio*l.Size
		ov.Text(x, baseline, line)
	}
}
