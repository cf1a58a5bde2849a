package pdfformfiller

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lvillar/pdfformfiller/pageops"
	"github.com/lvillar/pdfformfiller/reader"
)

func TestEffectiveStyleAndPadding(t *testing.T) {
	cfg := defaultConfig()
	WithStyle(Style{Family: "Helvetica", Size: 12, Leading: 14})(&cfg)
	WithPadding(Padding{Left: 2, Bottom: 2, Right: 2, Top: 2})(&cfg)
	f := &Filler{cfg: cfg}

	// Field without overrides inherits the defaults.
	st, pad := f.effective(TextField{})
	if st.Family != "Helvetica" || st.Size != 12 || st.Leading != 14 {
		t.Errorf("inherited style = %+v", st)
	}
	if pad != (Padding{Left: 2, Bottom: 2, Right: 2, Top: 2}) {
		t.Errorf("inherited padding = %+v", pad)
	}

	// Overrides win; unset style fields still come from the defaults and
	// an override padding replaces the default one entirely.
	field := TextField{
		Style:   &Style{Size: 6, Color: &Color{R: 10, G: 20, B: 30}, Align: "r"},
		Padding: &Padding{Left: 6},
	}
	st, pad = f.effective(field)
	want := Style{
		Family:  "Helvetica",
		Size:    6,
		Leading: 7,
		Color:   &Color{R: 10, G: 20, B: 30},
		Align:   AlignRight,
		MinSize: 1,
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("override style mismatch (-want +got):\n%s", diff)
	}
	if pad != (Padding{Left: 6}) {
		t.Errorf("override padding = %+v, want only the left inset", pad)
	}
}

func TestStyleOverClampsMinSize(t *testing.T) {
	st := Style{Size: 4, MinSize: 9}.over(DefaultStyle())
	if st.MinSize != 4 {
		t.Errorf("MinSize = %v, want it clamped to Size 4", st.MinSize)
	}
}

// renderFields draws fields onto a letter sized overlay and parses it back.
func renderFields(t *testing.T, f *Filler, fields ...TextField) *reader.Page {
	t.Helper()
	ov := pageops.NewOverlay(612, 792)
	f.drawFields(ov, 0, fields)
	data, err := ov.Bytes()
	if err != nil {
		t.Fatalf("rendering overlay: %v", err)
	}
	doc, err := reader.Parse(data)
	if err != nil {
		t.Fatalf("parsing overlay: %v", err)
	}
	p, err := doc.Page(1)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestOverlayDrawsBoxes(t *testing.T) {
	field := TextField{Text: "boxed", Rect: Rect{X: 50, Y: 692, Width: 450, Height: 50}}

	cfg := defaultConfig()
	plain := renderFields(t, &Filler{cfg: cfg}, field)
	content, err := plain.ContentStream()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(content, []byte("re S")) {
		t.Errorf("outline drawn without boxes enabled:\n%s", content)
	}

	WithBoxColor(Color{B: 255})(&cfg)
	boxed := renderFields(t, &Filler{cfg: cfg}, field)
	content, err = boxed.ContentStream()
	if err != nil {
		t.Fatal(err)
	}
	for _, op := range []string{"0.000 0.000 1.000 RG", "1.00 w", "50.00 742.00 450.00 -50.00 re S"} {
		if !bytes.Contains(content, []byte(op)) {
			t.Errorf("content lacks %q:\n%s", op, content)
		}
	}
}

func TestOverlayClipsAndPlacesText(t *testing.T) {
	f := &Filler{cfg: defaultConfig()}
	p := renderFields(t, f, TextField{
		Text:    "Joe Smith",
		Rect:    Rect{X: 50, Y: 692, Width: 450, Height: 50},
		Padding: &Padding{Left: 5, Top: 10},
	})
	content, err := p.ContentStream()
	if err != nil {
		t.Fatal(err)
	}
	// Clip to the padded frame, first baseline 0.8 * 20pt below its top.
	for _, op := range []string{"q 55.00 732.00 445.00 -40.00 re W n", "BT 55.00 716.00 Td (Joe Smith) Tj ET"} {
		if !bytes.Contains(content, []byte(op)) {
			t.Errorf("content lacks %q:\n%s", op, content)
		}
	}
	text, err := p.ExtractText()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Joe Smith" {
		t.Errorf("ExtractText = %q", text)
	}
}

func TestOverlaySkipsFieldsWithoutRoom(t *testing.T) {
	f := &Filler{cfg: defaultConfig()}
	p := renderFields(t, f,
		TextField{Text: "hidden", Rect: Rect{X: 10, Y: 10, Width: 20, Height: 20}, Padding: &Padding{Left: 15, Right: 15}},
		TextField{Text: "shown", Rect: Rect{X: 100, Y: 100, Width: 200, Height: 40}},
	)
	text, err := p.ExtractText()
	if err != nil {
		t.Fatal(err)
	}
	if text != "shown" {
		t.Errorf("ExtractText = %q, want only the field with room", text)
	}
}
