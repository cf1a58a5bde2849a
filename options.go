package pdfformfiller

import (
	"io"
	"log/slog"
)

// Option is a functional option for configuring a Filler via Open or New.
type Option func(*config)

// config holds the defaults applied to every field of a Filler. It is
// built once at construction and never changed afterwards.
type config struct {
	style    Style
	padding  Padding
	boxes    bool
	boxColor Color
	logger   *slog.Logger
}

func defaultConfig() config {
	return config{
		style:    DefaultStyle(),
		boxColor: Color{R: 255},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithStyle sets the default text style. Zero-valued fields keep their
// DefaultStyle values.
func WithStyle(s Style) Option {
	return func(c *config) {
		c.style = s.over(DefaultStyle())
	}
}

// WithPadding sets the default inner padding of every field.
func WithPadding(p Padding) Option {
	return func(c *config) {
		c.padding = p
	}
}

// WithBoxes outlines every field rectangle in red. Useful while working
// out coordinates for a new form.
func WithBoxes() Option {
	return func(c *config) {
		c.boxes = true
	}
}

// WithBoxColor outlines every field rectangle in the given color.
func WithBoxColor(col Color) Option {
	return func(c *config) {
		c.boxes = true
		c.boxColor = col
	}
}

// WithLogger sets the logger used for debug and progress records.
// A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
