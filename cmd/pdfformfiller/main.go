// Command pdfformfiller overlays text onto existing PDF pages.
//
// Usage:
//
//	pdfformfiller fill [-boxes] [-o out.pdf] [-v] job.json
//	pdfformfiller pages file.pdf
//	pdfformfiller version
//
// The fill job format is described in package fillspec. Relative paths in
// a job are resolved against the directory of the job file; -o is taken
// relative to the working directory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lvillar/pdfformfiller"
	"github.com/lvillar/pdfformfiller/fillspec"
	"github.com/lvillar/pdfformfiller/reader"
)

var version = "dev"

const usage = `usage:
  pdfformfiller fill [-boxes] [-o out.pdf] [-v] job.json
  pdfformfiller pages file.pdf
  pdfformfiller version
`

var errUsage = errors.New("invalid usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	err := dispatch(args, stdout, stderr)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprint(stderr, usage)
		return 2
	}
	fmt.Fprintf(stderr, "pdfformfiller: %v\n", err)
	return 1
}

func dispatch(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "fill":
		return fill(args[1:], stdout, stderr)
	case "pages":
		return pages(args[1:], stdout)
	case "version":
		fmt.Fprintln(stdout, "pdfformfiller", version)
		return nil
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	return errUsage
}

func fill(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fill", flag.ContinueOnError)
	fs.SetOutput(stderr)
	boxes := fs.Bool("boxes", false, "outline every field box in red")
	out := fs.String("o", "", "output file, overriding the job's output")
	verbose := fs.Bool("v", false, "log progress to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	jobPath := fs.Arg(0)
	job, err := fillspec.Load(jobPath)
	if err != nil {
		return err
	}
	if *out != "" {
		abs, err := filepath.Abs(*out)
		if err != nil {
			return err
		}
		job.Output = abs
	}
	if *boxes && !job.Boxes.Enabled {
		job.Boxes = fillspec.Boxes{Enabled: true}
	}

	res, err := fillspec.Run(job, filepath.Dir(jobPath), pdfformfiller.WithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s (%d pages, %d fields)\n", res.Output, res.Pages, res.Fields)
	return nil
}

func pages(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	doc, err := reader.Open(args[0])
	if err != nil {
		return err
	}
	for n, p := range doc.Pages() {
		mb := p.MediaBox
		fmt.Fprintf(stdout, "page %d: %gx%g pt, media box [%g %g %g %g]", n-1, mb.Width(), mb.Height(), mb.LLX, mb.LLY, mb.URX, mb.URY)
		if p.Rotate != 0 {
			fmt.Fprintf(stdout, ", rotated %d", p.Rotate)
		}
		fmt.Fprintln(stdout)
	}
	return nil
}
