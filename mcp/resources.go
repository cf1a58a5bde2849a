package mcp

import (
	"encoding/json"
	"errors"
	"net/url"
)

// RegisterDefaultResources adds the built-in resources to the server. The
// file to inspect is passed in the query: pdf://pages?path=/path/to/file.pdf
func RegisterDefaultResources(s *Server) {
	s.AddResource(Resource{
		URI:         "pdf://pages",
		Name:        "PDF Page Info",
		Description: "Page count, metadata and media box of every page. Pass the file path as a query parameter: pdf://pages?path=/path/to/file.pdf",
		MIMEType:    "application/json",
		Handler:     handlePagesResource,
	})

	s.AddResource(Resource{
		URI:         "pdf://text",
		Name:        "PDF Text Content",
		Description: "Text of every page. Pass the file path as a query parameter: pdf://text?path=/path/to/file.pdf",
		MIMEType:    "text/plain",
		Handler:     handleTextResource,
	})
}

func pathFromURI(u *url.URL) (string, error) {
	path := u.Query().Get("path")
	if path == "" {
		return "", errors.New("missing 'path' parameter in URI")
	}
	return path, nil
}

func handlePagesResource(u *url.URL) ([]ResourceContent, error) {
	path, err := pathFromURI(u)
	if err != nil {
		return nil, err
	}
	info, err := describe(path)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, err
	}
	return []ResourceContent{{
		URI:      u.String(),
		MIMEType: "application/json",
		Text:     string(data),
	}}, nil
}

func handleTextResource(u *url.URL) ([]ResourceContent, error) {
	path, err := pathFromURI(u)
	if err != nil {
		return nil, err
	}
	text, err := extractText(path)
	if err != nil {
		return nil, err
	}
	return []ResourceContent{{
		URI:      u.String(),
		MIMEType: "text/plain",
		Text:     text,
	}}, nil
}
