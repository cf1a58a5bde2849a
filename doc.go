// Package pdfformfiller overlays auto-fitting text onto the pages of an
// existing PDF document.
//
// A Filler collects text fields, each bound to a rectangle on a page.
// Rectangles are given by their upper-left and lower-right corners in
// points, measured from the top-left corner of the page:
//
//	f, err := pdfformfiller.Open("form.pdf")
//	if err != nil {
//		return err
//	}
//	err = f.AddText("Joe Smith", 0,
//		pdfformfiller.Point{X: 50, Y: 50},
//		pdfformfiller.Point{X: 500, Y: 100})
//	if err != nil {
//		return err
//	}
//	return f.WriteFile("filled.pdf")
//
// When the document is written, every page with fields gets a transparent
// overlay page holding the fields' text, stacked over the original page
// content. Text is wrapped to the width of its rectangle and shrunk until
// it fits; text that does not fit even at the style's minimum size is
// clipped to the rectangle. Pages without fields are copied unchanged.
//
// Text is drawn with the PDF core fonts, so only characters of the
// WinAnsi (Windows-1252) character set can be shown.
package pdfformfiller
