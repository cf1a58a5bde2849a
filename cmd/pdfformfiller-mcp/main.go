// Command pdfformfiller-mcp is an MCP (Model Context Protocol) server that
// lets AI assistants overlay text onto existing PDF pages.
//
// # Installation
//
//	go install github.com/lvillar/pdfformfiller/cmd/pdfformfiller-mcp@latest
//
// # Configuration for Claude Desktop
//
// Add to ~/.config/claude/claude_desktop_config.json:
//
//	{
//	  "mcpServers": {
//	    "pdfformfiller": {
//	      "command": "pdfformfiller-mcp"
//	    }
//	  }
//	}
//
// # Available Tools
//
//   - fill_pdf: Place auto-fitting text in boxes on existing pages
//   - pdf_pages: Page count and media boxes
//   - pdf_text: Extract page text
//
// # Available Resources
//
//   - pdf://pages?path=... : Page information
//   - pdf://text?path=... : Text content
//
// Logs go to stderr; -v enables debug records.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/lvillar/pdfformfiller/mcp"
)

func main() {
	verbose := flag.Bool("v", false, "log debug records to stderr")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	server := mcp.NewServer(logger)
	mcp.RegisterDefaultTools(server)
	mcp.RegisterDefaultResources(server)

	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "pdfformfiller-mcp: %v\n", err)
		os.Exit(1)
	}
}
