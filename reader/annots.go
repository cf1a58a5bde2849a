package reader

import "fmt"

// Annotation is an entry of a page's /Annots array.
type Annotation struct {
	Subtype Name
	Rect    Rectangle
	URI     string // target of a /URI action, if any
}

// Annotations returns the annotations of the page in document order.
// Entries that are not dictionaries or lack a valid /Rect are skipped.
func (p *Page) Annotations() ([]Annotation, error) {
	obj, err := p.doc.resolveIfRef(p.dict["Annots"])
	if err != nil {
		return nil, fmt.Errorf("reader: page %d annotations: %w", p.Number, err)
	}
	arr, _ := obj.(Array)

	var annots []Annotation
	for _, item := range arr {
		obj, err := p.doc.resolveIfRef(item)
		if err != nil {
			return nil, fmt.Errorf("reader: page %d annotations: %w", p.Number, err)
		}
		d, ok := obj.(Dict)
		if !ok {
			continue
		}
		rectObj, err := p.doc.resolveIfRef(d["Rect"])
		if err != nil {
			continue
		}
		rect, err := parseRectangle(rectObj)
		if err != nil {
			continue
		}
		a := Annotation{Subtype: d.GetName("Subtype"), Rect: rect}
		if action, err := p.doc.resolveIfRef(d["A"]); err == nil {
			if ad, ok := action.(Dict); ok && ad.GetName("S") == "URI" {
				if uri, err := p.doc.resolveIfRef(ad["URI"]); err == nil {
					if s, ok := uri.(String); ok {
						a.URI = string(s.Value)
					}
				}
			}
		}
		annots = append(annots, a)
	}
	return annots, nil
}
