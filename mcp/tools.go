package mcp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lvillar/pdfformfiller/fillspec"
	"github.com/lvillar/pdfformfiller/reader"
)

// RegisterDefaultTools adds all built-in tools to the server.
func RegisterDefaultTools(s *Server) {
	s.AddTool(fillPDFTool())
	s.AddTool(pdfPagesTool())
	s.AddTool(pdfTextTool())
}

func pathSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path to the PDF file",
			},
		},
		"required": []string{"path"},
	}
}

func pathArg(args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return "", errors.New("missing 'path' argument")
	}
	return path, nil
}

func fillPDFTool() Tool {
	return Tool{
		Name: "fill_pdf",
		Description: "Overlay text onto the pages of an existing PDF. Each field is a box given by its upper-left and " +
			"lower-right corners in points from the top-left of the page (pages are 0-based); text wraps and shrinks " +
			"to fit its box. Writes to outputPath (or the job's output) or returns the PDF as base64.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"job": map[string]any{
					"type": "object",
					"description": `Fill job: {"source": "form.pdf", "style": {"family": "Helvetica", "size": 12}, ` +
						`"padding": {"left": 2}, "boxes": false, "fields": [{"text": "Joe Smith", "page": 0, ` +
						`"upperLeft": [50, 50], "lowerRight": [500, 100]}]}`,
				},
				"outputPath": map[string]any{
					"type":        "string",
					"description": "Optional file path to save the PDF. Overrides the job's output.",
				},
			},
			"required": []string{"job"},
		},
		Handler: handleFillPDF,
	}
}

func handleFillPDF(args map[string]any) (ToolResult, error) {
	raw, ok := args["job"]
	if !ok {
		return ToolResult{}, errors.New("missing 'job' argument")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return ToolResult{}, fmt.Errorf("encoding job: %w", err)
	}
	job, err := fillspec.Parse(data)
	if err != nil {
		return ToolResult{}, err
	}
	if out, ok := args["outputPath"].(string); ok && out != "" {
		job.Output = out
	}

	if job.Output != "" {
		res, err := fillspec.Run(job, "")
		if err != nil {
			return ToolResult{}, err
		}
		return textResult("PDF filled successfully: %s (%d pages, %d fields)", res.Output, res.Pages, res.Fields), nil
	}

	src, err := os.ReadFile(job.Source)
	if err != nil {
		return ToolResult{}, err
	}
	f, err := job.Filler(bytes.NewReader(src))
	if err != nil {
		return ToolResult{}, err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return ToolResult{}, err
	}
	return textResult("PDF filled successfully (%d pages, %d fields, %d bytes). Base64 data:\n%s",
		f.NumPages(), f.NumFields(), buf.Len(), base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

func pdfPagesTool() Tool {
	return Tool{
		Name:        "pdf_pages",
		Description: "Report the page count, metadata and each page's media box of a PDF. Use it to choose field coordinates.",
		InputSchema: pathSchema(),
		Handler:     handlePDFPages,
	}
}

// pageInfo describes one page in tool and resource output. Page is
// 0-based to match fill job fields.
type pageInfo struct {
	Page     int        `json:"page"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	MediaBox [4]float64 `json:"mediaBox"`
	Rotate   int        `json:"rotate,omitempty"`
}

type docInfo struct {
	Version  string            `json:"version"`
	NumPages int               `json:"numPages"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Pages    []pageInfo        `json:"pages"`
}

func describe(path string) (*docInfo, error) {
	doc, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	info := &docInfo{
		Version:  doc.Version,
		NumPages: doc.NumPages(),
		Metadata: doc.Metadata(),
		Pages:    make([]pageInfo, 0, doc.NumPages()),
	}
	for n, page := range doc.Pages() {
		mb := page.MediaBox
		info.Pages = append(info.Pages, pageInfo{
			Page:     n - 1,
			Width:    mb.Width(),
			Height:   mb.Height(),
			MediaBox: [4]float64{mb.LLX, mb.LLY, mb.URX, mb.URY},
			Rotate:   page.Rotate,
		})
	}
	return info, nil
}

func handlePDFPages(args map[string]any) (ToolResult, error) {
	path, err := pathArg(args)
	if err != nil {
		return ToolResult{}, err
	}
	info, err := describe(path)
	if err != nil {
		return ToolResult{}, err
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return ToolResult{}, err
	}
	return textResult("%s", data), nil
}

func pdfTextTool() Tool {
	return Tool{
		Name:        "pdf_text",
		Description: "Extract the text of every page of a PDF, including text placed by fill_pdf.",
		InputSchema: pathSchema(),
		Handler:     handlePDFText,
	}
}

func extractText(path string) (string, error) {
	doc, err := reader.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	var sb strings.Builder
	for n, page := range doc.Pages() {
		text, err := page.ExtractText()
		if err != nil {
			fmt.Fprintf(&sb, "--- Page %d (error: %v) ---\n", n-1, err)
			continue
		}
		fmt.Fprintf(&sb, "--- Page %d ---\n%s\n", n-1, text)
	}
	return sb.String(), nil
}

func handlePDFText(args map[string]any) (ToolResult, error) {
	path, err := pathArg(args)
	if err != nil {
		return ToolResult{}, err
	}
	text, err := extractText(path)
	if err != nil {
		return ToolResult{}, err
	}
	return textResult("%s", text), nil
}
