// Package testutil builds small PDF fixtures for tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
)

// Page describes the content of one fixture page, drawn top to bottom.
type Page struct {
	Heading string
	Lines   []string
	// Table rows are drawn as evenly spaced text columns.
	Table [][]string
	// Links become URI link annotations over a "link" label.
	Links []string
}

// PDFBytes renders pages into an uncompressed PDF.
func PDFBytes(t testing.TB, pages ...Page) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(false)
	if len(pages) == 0 {
		pages = []Page{{}}
	}
	for _, p := range pages {
		pdf.AddPage()
		y := 60.0
		if p.Heading != "" {
			pdf.SetFont("Helvetica", "B", 24)
			pdf.Text(50, y, p.Heading)
			y += 40
		}
		pdf.SetFont("Helvetica", "", 11)
		for _, line := range p.Lines {
			pdf.Text(50, y, line)
			y += 16
		}
		if len(p.Table) > 0 {
			y += 24
			for _, row := range p.Table {
				for c, cell := range row {
					pdf.Text(50+float64(c)*160, y, cell)
				}
				y += 16
			}
		}
		for _, link := range p.Links {
			y += 24
			pdf.LinkString(50, y-11, 40, 14, link)
			pdf.Text(50, y, "link")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("render fixture pdf: %v", err)
	}
	return buf.Bytes()
}

// WritePDF renders pages to dir/name and returns the path.
func WritePDF(t testing.TB, dir, name string, pages ...Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, PDFBytes(t, pages...), 0o644); err != nil {
		t.Fatalf("write fixture pdf: %v", err)
	}
	return path
}
