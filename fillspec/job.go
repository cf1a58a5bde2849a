package fillspec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/lvillar/pdfformfiller"
)

// Parse decodes a JSON job and validates it. Unknown keys are rejected.
func Parse(data []byte) (*Job, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var job Job
	if err := dec.Decode(&job); err != nil {
		return nil, fmt.Errorf("fillspec: parsing job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Load reads and parses the job file at path.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Validate reports every structural problem of the job at once. Page
// ranges and style values are checked against the document by the filler.
func (j *Job) Validate() error {
	var errs []error
	if j.Source == "" {
		errs = append(errs, errors.New("source is required"))
	}
	if j.Boxes.Color != nil && !validColor(*j.Boxes.Color) {
		errs = append(errs, fmt.Errorf("boxes: color %+v out of range", *j.Boxes.Color))
	}
	for i, f := range j.Fields {
		if f.Page < 0 {
			errs = append(errs, fmt.Errorf("fields[%d]: negative page %d", i, f.Page))
		}
		for _, v := range append(f.UpperLeft[:], f.LowerRight[:]...) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				errs = append(errs, fmt.Errorf("fields[%d]: non-finite coordinate", i))
				break
			}
		}
		if f.LowerRight[0] <= f.UpperLeft[0] || f.LowerRight[1] <= f.UpperLeft[1] {
			errs = append(errs, fmt.Errorf("fields[%d]: lowerRight %v is not below and right of upperLeft %v", i, f.LowerRight, f.UpperLeft))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("fillspec: invalid job: %w", err)
	}
	return nil
}

func validColor(c Color) bool {
	return c.R >= 0 && c.R <= 255 && c.G >= 0 && c.G <= 255 && c.B >= 0 && c.B <= 255
}

// Options converts the job-wide settings to filler options.
func (j *Job) Options() []pdfformfiller.Option {
	var opts []pdfformfiller.Option
	if j.Style != nil {
		opts = append(opts, pdfformfiller.WithStyle(j.Style.style()))
	}
	if j.Padding != nil {
		opts = append(opts, pdfformfiller.WithPadding(j.Padding.padding()))
	}
	switch {
	case j.Boxes.Color != nil:
		opts = append(opts, pdfformfiller.WithBoxColor(j.Boxes.Color.color()))
	case j.Boxes.Enabled:
		opts = append(opts, pdfformfiller.WithBoxes())
	}
	return opts
}

// Filler opens src with the job's settings and adds every field. Extra
// options are applied after the job's own.
func (j *Job) Filler(src io.ReadSeeker, opts ...pdfformfiller.Option) (*pdfformfiller.Filler, error) {
	f, err := pdfformfiller.New(src, append(j.Options(), opts...)...)
	if err != nil {
		return nil, err
	}
	if err := j.addFields(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (j *Job) addFields(f *pdfformfiller.Filler) error {
	for i, fd := range j.Fields {
		var fopts []pdfformfiller.FieldOption
		if fd.Style != nil {
			fopts = append(fopts, pdfformfiller.WithFieldStyle(fd.Style.style()))
		}
		if fd.Padding != nil {
			fopts = append(fopts, pdfformfiller.WithFieldPadding(fd.Padding.padding()))
		}
		ul := pdfformfiller.Point{X: fd.UpperLeft[0], Y: fd.UpperLeft[1]}
		lr := pdfformfiller.Point{X: fd.LowerRight[0], Y: fd.LowerRight[1]}
		if err := f.AddText(fd.Text, fd.Page, ul, lr, fopts...); err != nil {
			return fmt.Errorf("fillspec: fields[%d]: %w", i, err)
		}
	}
	return nil
}

// Result summarizes a completed run.
type Result struct {
	Output string // absolute path of the written file
	Pages  int
	Fields int
}

// Run executes the job, resolving relative source and output paths
// against baseDir.
func Run(job *Job, baseDir string, opts ...pdfformfiller.Option) (*Result, error) {
	if job.Output == "" {
		return nil, errors.New("fillspec: output is required")
	}
	src := resolve(baseDir, job.Source)
	out := resolve(baseDir, job.Output)
	if src == out {
		return nil, fmt.Errorf("fillspec: output %s would overwrite the source", out)
	}

	f, err := pdfformfiller.Open(src, append(job.Options(), opts...)...)
	if err != nil {
		return nil, err
	}
	if err := job.addFields(f); err != nil {
		return nil, err
	}
	if err := f.WriteFile(out); err != nil {
		return nil, err
	}
	return &Result{Output: out, Pages: f.NumPages(), Fields: f.NumFields()}, nil
}

func resolve(dir, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (s Style) style() pdfformfiller.Style {
	st := pdfformfiller.Style{
		Family:    s.Family,
		FontStyle: s.FontStyle,
		Size:      s.Size,
		Leading:   s.Leading,
		MinSize:   s.MinSize,
		Align:     s.Align,
	}
	if s.Color != nil {
		c := s.Color.color()
		st.Color = &c
	}
	return st
}

func (p Padding) padding() pdfformfiller.Padding {
	return pdfformfiller.Padding{Left: p.Left, Bottom: p.Bottom, Right: p.Right, Top: p.Top}
}

func (c Color) color() pdfformfiller.Color {
	return pdfformfiller.Color{R: c.R, G: c.G, B: c.B}
}
