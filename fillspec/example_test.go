package fillspec_test

import (
	"fmt"

	"github.com/lvillar/pdfformfiller/fillspec"
)

func ExampleParse() {
	job, err := fillspec.Parse([]byte(`{
		"source": "form.pdf",
		"output": "filled.pdf",
		"style": {"family": "Helvetica", "size": 12},
		"boxes": {"r": 0, "g": 0, "b": 255},
		"fields": [
			{"text": "Joe Smith", "page": 0, "upperLeft": [50, 50], "lowerRight": [500, 100]},
			{"text": "42 Main St", "page": 0, "upperLeft": [50, 120], "lowerRight": [500, 170]}
		]
	}`))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(job.Source, "->", job.Output)
	fmt.Println("boxes:", job.Boxes.Enabled, *job.Boxes.Color)
	for _, f := range job.Fields {
		fmt.Printf("page %d %v-%v %q\n", f.Page, f.UpperLeft, f.LowerRight, f.Text)
	}
	// Output:
	// form.pdf -> filled.pdf
	// boxes: true {0 0 255}
	// page 0 [50 50]-[500 100] "Joe Smith"
	// page 0 [50 120]-[500 170] "42 Main St"
}
