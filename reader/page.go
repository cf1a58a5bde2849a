package reader

import (
	"fmt"
)

// Rectangle represents a PDF rectangle [llx lly urx ury].
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the width of the rectangle.
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the height of the rectangle.
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// LetterBox is used for pages whose page tree carries no /MediaBox at all.
var LetterBox = Rectangle{URX: 612, URY: 792}

// Page represents a single page in a PDF document.
type Page struct {
	Number    int // 1-based
	MediaBox  Rectangle
	CropBox   *Rectangle
	Resources Dict
	Contents  []Stream
	Rotate    int
	dict      Dict
	doc       *Document
}

// ContentStream returns the decoded content of the page. Multiple content
// streams are concatenated with a newline between them.
func (p *Page) ContentStream() ([]byte, error) {
	var result []byte
	for _, s := range p.Contents {
		decoded, err := s.Decode()
		if err != nil {
			return nil, fmt.Errorf("reader: decoding page %d content: %w", p.Number, err)
		}
		result = append(result, decoded...)
		result = append(result, '\n')
	}
	return result, nil
}

// parseRectangle parses a rectangle array. Corners may be given in any
// order; the result always has LLX <= URX and LLY <= URY.
func parseRectangle(obj Object) (Rectangle, error) {
	arr, ok := obj.(Array)
	if !ok || len(arr) != 4 {
		return Rectangle{}, fmt.Errorf("reader: rectangle must be a 4-element array")
	}
	var v [4]float64
	for i, item := range arr {
		n, ok := number(item)
		if !ok {
			return Rectangle{}, fmt.Errorf("reader: rectangle element %d is not numeric", i)
		}
		v[i] = n
	}
	return Rectangle{
		LLX: min(v[0], v[2]), LLY: min(v[1], v[3]),
		URX: max(v[0], v[2]), URY: max(v[1], v[3]),
	}, nil
}

// buildPageList flattens the page tree into d.pages.
func (d *Document) buildPageList() error {
	root, err := d.resolveIfRef(d.trailer["Root"])
	if err != nil {
		return fmt.Errorf("reader: resolving root: %w", err)
	}
	catalog, ok := root.(Dict)
	if !ok {
		return fmt.Errorf("reader: missing or invalid /Root")
	}

	pagesObj, err := d.resolveIfRef(catalog["Pages"])
	if err != nil {
		return fmt.Errorf("reader: resolving /Pages: %w", err)
	}
	pagesDict, ok := pagesObj.(Dict)
	if !ok {
		return fmt.Errorf("reader: /Pages is not a dictionary")
	}

	d.pages = nil
	return d.traversePageTree(pagesDict, nil, make(map[Reference]bool))
}

// inheritable page attributes (ISO 32000-1, table 30)
var inheritable = []Name{"MediaBox", "CropBox", "Resources", "Rotate"}

// traversePageTree collects leaf pages depth first.
func (d *Document) traversePageTree(node Dict, inherited Dict, visited map[Reference]bool) error {
	merged := make(Dict, len(inheritable))
	for k, v := range inherited {
		merged[k] = v
	}
	for _, key := range inheritable {
		if v, ok := node[key]; ok {
			merged[key] = v
		}
	}

	_, hasKids := node["Kids"]
	if node.GetName("Type") == "Page" || (node.GetName("Type") == "" && !hasKids) {
		page, err := d.newPage(node, merged)
		if err != nil {
			return err
		}
		d.pages = append(d.pages, page)
		return nil
	}

	kidsObj, err := d.resolveIfRef(node["Kids"])
	if err != nil {
		return fmt.Errorf("reader: resolving /Kids: %w", err)
	}
	kids, _ := kidsObj.(Array)
	for _, kid := range kids {
		if ref, ok := kid.(Reference); ok {
			if visited[ref] {
				return fmt.Errorf("reader: page tree cycle at %s", ref)
			}
			visited[ref] = true
		}
		kidObj, err := d.resolveIfRef(kid)
		if err != nil {
			return fmt.Errorf("reader: resolving page tree kid: %w", err)
		}
		kidDict, ok := kidObj.(Dict)
		if !ok {
			continue
		}
		if err := d.traversePageTree(kidDict, merged, visited); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) newPage(node, attrs Dict) (*Page, error) {
	page := &Page{
		Number:   len(d.pages) + 1,
		MediaBox: LetterBox,
		dict:     node,
		doc:      d,
	}

	if mb, err := d.resolveIfRef(attrs["MediaBox"]); err == nil {
		if rect, err := parseRectangle(mb); err == nil {
			page.MediaBox = rect
		}
	}
	if cb, err := d.resolveIfRef(attrs["CropBox"]); err == nil {
		if rect, err := parseRectangle(cb); err == nil {
			page.CropBox = &rect
		}
	}
	if res, err := d.resolveIfRef(attrs["Resources"]); err == nil {
		page.Resources, _ = res.(Dict)
	}
	if rot, err := d.resolveIfRef(attrs["Rotate"]); err == nil {
		if n, ok := number(rot); ok {
			page.Rotate = ((int(n) % 360) + 360) % 360
		}
	}

	contents, err := d.resolveIfRef(node["Contents"])
	if err != nil {
		return nil, fmt.Errorf("reader: page %d contents: %w", page.Number, err)
	}
	switch c := contents.(type) {
	case Stream:
		page.Contents = []Stream{c}
	case Array:
		for _, item := range c {
			obj, err := d.resolveIfRef(item)
			if err != nil {
				return nil, fmt.Errorf("reader: page %d contents: %w", page.Number, err)
			}
			if s, ok := obj.(Stream); ok {
				page.Contents = append(page.Contents, s)
			}
		}
	}
	return page, nil
}
