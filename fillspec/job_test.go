package fillspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/google/go-cmp/cmp"

	"github.com/lvillar/pdfformfiller"
	"github.com/lvillar/pdfformfiller/reader"
)

func writeForm(t *testing.T, path string, pages int) {
	t.Helper()
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetFont("Helvetica", "", 10)
	for range pages {
		pdf.AddPage()
		pdf.Text(50, 45, "Name:")
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("writing form: %v", err)
	}
}

func TestParse(t *testing.T) {
	data := `{
		"source": "form.pdf",
		"output": "out/filled.pdf",
		"style": {"family": "Helvetica", "size": 12, "color": {"r": 0, "g": 0, "b": 128}, "align": "C"},
		"padding": {"left": 2, "bottom": 2, "right": 2, "top": 2},
		"boxes": {"r": 0, "g": 0, "b": 255},
		"fields": [
			{"text": "Joe Smith", "page": 0, "upperLeft": [50, 50], "lowerRight": [500, 100],
			 "style": {"size": 8}, "padding": {"left": 6}}
		]
	}`
	job, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := &Job{
		Source:  "form.pdf",
		Output:  "out/filled.pdf",
		Style:   &Style{Family: "Helvetica", Size: 12, Color: &Color{B: 128}, Align: "C"},
		Padding: &Padding{Left: 2, Bottom: 2, Right: 2, Top: 2},
		Boxes:   Boxes{Enabled: true, Color: &Color{B: 255}},
		Fields: []Field{{
			Text:       "Joe Smith",
			UpperLeft:  [2]float64{50, 50},
			LowerRight: [2]float64{500, 100},
			Style:      &Style{Size: 8},
			Padding:    &Padding{Left: 6},
		}},
	}
	if diff := cmp.Diff(want, job); diff != "" {
		t.Errorf("job mismatch (-want +got):\n%s", diff)
	}
}

func TestBoxesJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Boxes
	}{
		{`true`, Boxes{Enabled: true}},
		{`false`, Boxes{}},
		{`null`, Boxes{}},
		{` {"r": 1, "g": 2, "b": 3}`, Boxes{Enabled: true, Color: &Color{R: 1, G: 2, B: 3}}},
	}
	for _, tt := range tests {
		var b Boxes
		if err := json.Unmarshal([]byte(tt.in), &b); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if diff := cmp.Diff(tt.want, b); diff != "" {
			t.Errorf("Unmarshal(%s) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}

	var b Boxes
	if err := json.Unmarshal([]byte(`"yes"`), &b); err == nil {
		t.Error("Unmarshal accepted a string")
	}

	out, err := json.Marshal(Job{Source: "a.pdf", Boxes: Boxes{Enabled: true, Color: &Color{R: 9}}})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(out, []byte(`"boxes":{"r":9,"g":0,"b":0}`)) {
		t.Errorf("Marshal = %s", out)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name, data, want string
	}{
		{"syntax", `{"source": `, "parsing job"},
		{"unknown key", `{"source": "a.pdf", "feilds": []}`, "unknown field"},
		{"no source", `{"fields": []}`, "source is required"},
		{"negative page", `{"source": "a.pdf", "fields": [{"page": -1, "upperLeft": [0, 0], "lowerRight": [1, 1]}]}`, "fields[0]: negative page"},
		{"inverted box", `{"source": "a.pdf", "fields": [{"upperLeft": [0, 0], "lowerRight": [1, 1]}, {"upperLeft": [5, 5], "lowerRight": [1, 1]}]}`, "fields[1]: lowerRight"},
		{"box color", `{"source": "a.pdf", "boxes": {"r": 300}, "fields": []}`, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	job := Job{Fields: []Field{{Page: -2, LowerRight: [2]float64{1, 1}}}}
	err := job.Validate()
	if err == nil {
		t.Fatal("Validate accepted an invalid job")
	}
	for _, want := range []string{"source is required", "negative page"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestJobFiller(t *testing.T) {
	dir := t.TempDir()
	writeForm(t, filepath.Join(dir, "form.pdf"), 1)
	data, err := os.ReadFile(filepath.Join(dir, "form.pdf"))
	if err != nil {
		t.Fatal(err)
	}

	job := &Job{
		Source: "form.pdf",
		Style:  &Style{Family: "Courier", Size: 10},
		Fields: []Field{{
			Text: "Joe Smith", UpperLeft: [2]float64{50, 50}, LowerRight: [2]float64{500, 100},
			Style: &Style{Align: "R"}, Padding: &Padding{Right: 3},
		}},
	}
	f, err := job.Filler(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Filler: %v", err)
	}
	fields := f.FieldsForPage(0)
	if len(fields) != 1 {
		t.Fatalf("got %d fields, want 1", len(fields))
	}
	if fields[0].Rect != (pdfformfiller.Rect{X: 50, Y: 692, Width: 450, Height: 50}) {
		t.Errorf("Rect = %+v", fields[0].Rect)
	}
	if fields[0].Style == nil || fields[0].Style.Align != "R" {
		t.Errorf("field style = %+v", fields[0].Style)
	}
	if fields[0].Padding == nil || *fields[0].Padding != (pdfformfiller.Padding{Right: 3}) {
		t.Errorf("field padding = %+v", fields[0].Padding)
	}

	job.Fields[0].Page = 4
	_, err = job.Filler(bytes.NewReader(data))
	if !errors.Is(err, pdfformfiller.ErrPageNotFound) {
		t.Errorf("Filler error = %v, want ErrPageNotFound", err)
	}
	if err == nil || !strings.Contains(err.Error(), "fields[0]") {
		t.Errorf("error %v does not name the field", err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeForm(t, filepath.Join(dir, "form.pdf"), 2)
	jobPath := filepath.Join(dir, "job.json")
	err := os.WriteFile(jobPath, []byte(`{
		"source": "form.pdf",
		"output": "filled.pdf",
		"boxes": true,
		"fields": [
			{"text": "Joe Smith", "page": 0, "upperLeft": [50, 50], "lowerRight": [500, 100]},
			{"text": "Second page", "page": 1, "upperLeft": [50, 200], "lowerRight": [300, 240]}
		]
	}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	job, err := Load(jobPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	res, err := Run(job, dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := &Result{Output: filepath.Join(dir, "filled.pdf"), Pages: 2, Fields: 2}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	doc, err := reader.Open(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	for n, wantText := range map[int]string{1: "Name: Joe Smith", 2: "Name: Second page"} {
		p, err := doc.Page(n)
		if err != nil {
			t.Fatal(err)
		}
		text, err := p.ExtractText()
		if err != nil {
			t.Fatal(err)
		}
		if text != wantText {
			t.Errorf("page %d text = %q, want %q", n, text, wantText)
		}
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	writeForm(t, filepath.Join(dir, "form.pdf"), 1)

	if _, err := Run(&Job{Source: "form.pdf"}, dir); err == nil {
		t.Error("Run without output succeeded")
	}
	if _, err := Run(&Job{Source: "form.pdf", Output: "./form.pdf"}, dir); err == nil {
		t.Error("Run overwriting its source succeeded")
	}
	_, err := Run(&Job{Source: "missing.pdf", Output: "out.pdf"}, dir)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Run error = %v, want os.ErrNotExist", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.pdf")); !os.IsNotExist(err) {
		t.Error("failed run left an output file")
	}
}
