package pdfformfiller

import "math"

// Point is a position in points. Points passed to AddText are measured
// from the top-left corner of the page, with Y growing downwards.
type Point struct {
	X, Y float64
}

// Rect is a rectangle in PDF coordinates: (X, Y) is its bottom-left
// corner, relative to the lower-left corner of the displayed page, and Y
// grows upwards.
type Rect struct {
	X, Y, Width, Height float64
}

// Normalize converts a box given by its top-left and bottom-right corners
// in top-left-origin coordinates into a bottom-left-origin Rect, for a
// page of the given height.
func Normalize(pageHeight float64, upperLeft, lowerRight Point) Rect {
	return Rect{
		X:      upperLeft.X,
		Y:      pageHeight - lowerRight.Y,
		Width:  lowerRight.X - upperLeft.X,
		Height: lowerRight.Y - upperLeft.Y,
	}
}

// Denormalize is the inverse of Normalize.
func Denormalize(pageHeight float64, r Rect) (upperLeft, lowerRight Point) {
	upperLeft = Point{X: r.X, Y: pageHeight - r.Y - r.Height}
	lowerRight = Point{X: r.X + r.Width, Y: pageHeight - r.Y}
	return upperLeft, lowerRight
}

// Valid reports whether r has finite coordinates and a positive area.
func (r Rect) Valid() bool {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width > 0 && r.Height > 0
}

// Inset shrinks r by p on every side. The result may be empty.
func (r Rect) Inset(p Padding) Rect {
	return Rect{
		X:      r.X + p.Left,
		Y:      r.Y + p.Bottom,
		Width:  r.Width - p.Left - p.Right,
		Height: r.Height - p.Bottom - p.Top,
	}
}

// top returns the distance from the top edge of a page of the given
// height to the top of r.
func (r Rect) top(pageHeight float64) float64 {
	return pageHeight - r.Y - r.Height
}
