package reader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// pdfBuilder assembles small PDF files by hand so that cross-reference
// layouts fpdf never produces can be exercised.
type pdfBuilder struct {
	buf        bytes.Buffer
	offsets    map[int]int
	compressed map[int][2]int // object -> {stream, index}
	pending    []int
	lastXRef   int
}

func newPDFBuilder() *pdfBuilder {
	b := &pdfBuilder{offsets: make(map[int]int), compressed: make(map[int][2]int), lastXRef: -1}
	b.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	return b
}

func (b *pdfBuilder) obj(num int, body string) {
	b.offsets[num] = b.buf.Len()
	b.pending = append(b.pending, num)
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func (b *pdfBuilder) stream(num int, dict string, data []byte) {
	b.offsets[num] = b.buf.Len()
	b.pending = append(b.pending, num)
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", num, dict, len(data))
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
}

// objStream stores the given objects, in order, in object stream num.
func (b *pdfBuilder) objStream(num int, nums []int, bodies []string) {
	var header, body strings.Builder
	for i, n := range nums {
		fmt.Fprintf(&header, "%d %d ", n, body.Len())
		body.WriteString(bodies[i])
		body.WriteString("\n")
		b.compressed[n] = [2]int{num, i}
	}
	dict := fmt.Sprintf("/Type /ObjStm /N %d /First %d", len(nums), header.Len())
	b.stream(num, dict, []byte(header.String()+body.String()))
}

// xref writes a classic table for the objects added since the last call.
func (b *pdfBuilder) xref(trailer string) []byte {
	start := b.buf.Len()
	b.buf.WriteString("xref\n")
	if b.lastXRef < 0 {
		b.buf.WriteString("0 1\n0000000000 65535 f \n")
	}
	for _, n := range b.pending {
		fmt.Fprintf(&b.buf, "%d 1\n%010d 00000 n \n", n, b.offsets[n])
	}
	if b.lastXRef >= 0 {
		trailer += fmt.Sprintf(" /Prev %d", b.lastXRef)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", b.size(), trailer, start)
	b.pending = nil
	b.lastXRef = start
	return slices.Clone(b.buf.Bytes())
}

// xrefStream writes a cross-reference stream covering every object.
func (b *pdfBuilder) xrefStream(num int, trailer string) []byte {
	b.offsets[num] = b.buf.Len()
	size := max(b.size(), num+1)
	var entries bytes.Buffer
	for n := 0; n < size; n++ {
		var kind byte
		var f2 uint32
		var f3 uint16
		if off, ok := b.offsets[n]; ok {
			kind, f2 = 1, uint32(off)
		} else if c, ok := b.compressed[n]; ok {
			kind, f2, f3 = 2, uint32(c[0]), uint16(c[1])
		}
		entries.WriteByte(kind)
		binary.Write(&entries, binary.BigEndian, f2)
		binary.Write(&entries, binary.BigEndian, f3)
	}
	start := b.buf.Len()
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] %s /Length %d >>\nstream\n",
		num, size, trailer, entries.Len())
	b.buf.Write(entries.Bytes())
	fmt.Fprintf(&b.buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", start)
	return slices.Clone(b.buf.Bytes())
}

func (b *pdfBuilder) size() int {
	n := 0
	for k := range b.offsets {
		n = max(n, k+1)
	}
	for k := range b.compressed {
		n = max(n, k+1)
	}
	return n
}

func mediaBoxes(t *testing.T, doc *Document) []Rectangle {
	t.Helper()
	var boxes []Rectangle
	for _, p := range doc.Pages() {
		boxes = append(boxes, p.MediaBox)
	}
	return boxes
}

func TestClassicXRefWithInheritance(t *testing.T) {
	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R 5 0 R] /Count 2 /MediaBox [0 0 300 400] >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>")
	b.stream(4, "", []byte("BT /F1 12 Tf 10 10 Td (Inherited box) Tj ET"))
	b.obj(5, "<< /Type /Page /Parent 2 0 R /MediaBox [612 792 0 0] /Rotate -90 >>")
	data := b.xref("/Root 1 0 R")

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Version != "1.7" {
		t.Errorf("Version = %q, want 1.7", doc.Version)
	}
	want := []Rectangle{{URX: 300, URY: 400}, {URX: 612, URY: 792}}
	if diff := cmp.Diff(want, mediaBoxes(t, doc)); diff != "" {
		t.Errorf("media boxes (-want +got):\n%s", diff)
	}

	p1, _ := doc.Page(1)
	text, err := p1.ExtractText()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Inherited box" {
		t.Errorf("ExtractText = %q", text)
	}

	p2, _ := doc.Page(2)
	if p2.Rotate != 270 {
		t.Errorf("Rotate = %d, want 270", p2.Rotate)
	}
	if len(p2.Contents) != 0 {
		t.Errorf("page without /Contents has %d streams", len(p2.Contents))
	}
}

func TestMissingMediaBoxDefaultsToLetter(t *testing.T) {
	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R >>")
	doc, err := Parse(b.xref("/Root 1 0 R"))
	if err != nil {
		t.Fatal(err)
	}
	p, _ := doc.Page(1)
	if p.MediaBox != LetterBox {
		t.Errorf("MediaBox = %+v, want %+v", p.MediaBox, LetterBox)
	}
}

func TestXRefStreamAndObjectStream(t *testing.T) {
	b := newPDFBuilder()
	b.stream(4, "/Filter /FlateDecode", deflate(t, []byte("BT (Compressed) Tj ET")))
	b.objStream(10, []int{1, 2, 3}, []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 100] /Contents 4 0 R >>",
	})
	data := b.xrefStream(11, "/Root 1 0 R")

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Fatalf("NumPages = %d, want 1", doc.NumPages())
	}
	p, _ := doc.Page(1)
	if p.MediaBox != (Rectangle{URX: 200, URY: 100}) {
		t.Errorf("MediaBox = %+v", p.MediaBox)
	}
	text, err := p.ExtractText()
	if err != nil {
		t.Fatal(err)
	}
	if text != "Compressed" {
		t.Errorf("ExtractText = %q, want Compressed", text)
	}
}

func TestIncrementalUpdate(t *testing.T) {
	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100] >>")
	b.xref("/Root 1 0 R")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 500 700] >>")
	data := b.xref("/Root 1 0 R")

	doc, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := doc.Page(1)
	if p.MediaBox != (Rectangle{URX: 500, URY: 700}) {
		t.Errorf("MediaBox = %+v, want the updated box", p.MediaBox)
	}
}

func TestStaleOffsetsAreRebuilt(t *testing.T) {
	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 10 20] >>")
	// Shift every recorded offset by inserting junk after the header.
	data := b.xref("/Root 1 0 R")
	broken := slices.Concat(data[:9], []byte("% padding that moves every object\n"), data[9:])

	doc, err := Parse(broken)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.NumPages() != 1 {
		t.Errorf("NumPages = %d, want 1", doc.NumPages())
	}
}

func TestEncryptedDocument(t *testing.T) {
	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	b.obj(5, "<< /Filter /Standard /V 2 /R 3 >>")
	_, err := Parse(b.xref("/Root 1 0 R /Encrypt 5 0 R"))
	if !errors.Is(err, ErrEncrypted) {
		t.Fatalf("Parse error = %v, want ErrEncrypted", err)
	}
}

func TestPageTreeCycle(t *testing.T) {
	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Pages /Kids [2 0 R 3 0 R] /Count 1 >>")
	if _, err := Parse(b.xref("/Root 1 0 R")); err == nil {
		t.Fatal("expected error for cyclic page tree")
	}
}

func TestFormXObjectText(t *testing.T) {
	b := newPDFBuilder()
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 300 300] /Contents 4 0 R "+
		"/Resources << /XObject << /Fm1 5 0 R >> >> >>")
	b.stream(4, "", []byte("BT (Before) Tj ET q 1 0 0 1 0 0 cm /Fm1 Do Q BT [(Af) -20 (ter)] TJ ET"))
	b.stream(5, "/Type /XObject /Subtype /Form /BBox [0 0 300 300] /Resources << /XObject << /Fm2 6 0 R >> >>",
		[]byte("BT (Inside) Tj ET /Fm2 Do"))
	b.stream(6, "/Type /XObject /Subtype /Form /BBox [0 0 300 300]", []byte("BT <4E6573746564> Tj ET"))
	doc, err := Parse(b.xref("/Root 1 0 R"))
	if err != nil {
		t.Fatal(err)
	}
	p, _ := doc.Page(1)
	text, err := p.ExtractText()
	if err != nil {
		t.Fatal(err)
	}
	if want := "Before Inside Nested After"; text != want {
		t.Errorf("ExtractText = %q, want %q", text, want)
	}
}

func TestEmptyInput(t *testing.T) {
	if _, err := Parse(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := Parse([]byte("not a pdf at all")); err == nil {
		t.Fatal("expected error for garbage input")
	}
}
