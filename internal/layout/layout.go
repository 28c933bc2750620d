// Package layout rebuilds reading order from the positioned glyphs of PDF pages:
// glyphs become lines, lines become paragraphs, headings and tables.
package layout

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Gap thresholds are expressed in multiples of the font size.
const (
	wordGap      = 0.15
	cellGap      = 2.5
	lineTol      = 0.5
	paragraphGap = 1.6
	headingRatio = 1.3
)

// Run is text sharing one font treatment.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	Size   float64
}

// Cell is a horizontally separated group of runs on one line.
type Cell struct {
	X    float64
	Runs []Run
}

// Text joins the cell's runs.
func (c Cell) Text() string {
	var b strings.Builder
	for _, r := range c.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Line is a row of glyphs sharing a baseline, top of page first.
type Line struct {
	Y     float64
	Size  float64
	Cells []Cell
}

// Text joins the line's cells with tabs.
func (l Line) Text() string {
	parts := make([]string, len(l.Cells))
	for i, c := range l.Cells {
		parts[i] = c.Text()
	}
	return strings.Join(parts, "\t")
}

// Page is one page of reconstructed lines.
type Page struct {
	Number int
	Lines  []Line
}

// Text returns the page's plain text, one line per row.
func (p Page) Text() string {
	rows := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		rows[i] = l.Text()
	}
	return strings.Join(rows, "\n")
}

// Document is every page of a PDF plus the dominant body font size.
type Document struct {
	Pages    []Page
	BodySize float64
}

// ReadFile reads and lays out every page of the PDF at path.
func ReadFile(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()
	return read(r)
}

// Read lays out a PDF held in ra.
func Read(ra io.ReaderAt, size int64) (*Document, error) {
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	return read(r)
}

func read(r *pdf.Reader) (doc *Document, err error) {
	// The pdf package reports malformed content by panicking.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("malformed pdf content: %v", rec)
		}
	}()

	doc = &Document{}
	sizes := map[float64]int{}
	for i := 1; i <= r.NumPage(); i++ {
		page := Page{Number: i}
		p := r.Page(i)
		if !p.V.IsNull() {
			glyphs := p.Content().Text
			for _, g := range glyphs {
				if !isBlank(g.S) {
					sizes[math.Round(g.FontSize)]++
				}
			}
			page.Lines = buildLines(glyphs)
		}
		doc.Pages = append(doc.Pages, page)
	}
	doc.BodySize = dominantSize(sizes)
	return doc, nil
}

func dominantSize(sizes map[float64]int) float64 {
	best, count := 0.0, 0
	for s, n := range sizes {
		if n > count || (n == count && s < best) {
			best, count = s, n
		}
	}
	return best
}

// buildLines groups glyphs by baseline and splits each line into cells on wide gaps.
func buildLines(glyphs []pdf.Text) []Line {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var lines []Line
	var row []pdf.Text
	rowY := sorted[0].Y
	for _, g := range sorted {
		if len(row) > 0 && math.Abs(g.Y-rowY) > lineTol*fontSize(g) {
			lines = append(lines, buildLine(row))
			row = row[:0:0]
		}
		if len(row) == 0 {
			rowY = g.Y
		}
		row = append(row, g)
	}
	if len(row) > 0 {
		lines = append(lines, buildLine(row))
	}

	out := lines[:0]
	for _, l := range lines {
		if len(l.Cells) > 0 {
			out = append(out, l)
		}
	}
	return out
}

func buildLine(row []pdf.Text) Line {
	sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

	line := Line{Y: row[0].Y}
	var cell *Cell
	prevEnd := math.Inf(-1)
	pendingSpace := false
	for _, g := range row {
		size := fontSize(g)
		width := g.W
		if width <= 0 {
			// Fonts without a Widths array report zero advance.
			width = 0.5 * size * float64(utf8.RuneCountInString(g.S))
		}
		if isBlank(g.S) {
			pendingSpace = cell != nil
			prevEnd = math.Max(prevEnd, g.X+width)
			continue
		}

		gap := g.X - prevEnd
		switch {
		case cell == nil || gap > cellGap*size:
			line.Cells = append(line.Cells, Cell{X: g.X})
			cell = &line.Cells[len(line.Cells)-1]
		case pendingSpace || gap > wordGap*size:
			appendText(cell, " ", g)
		}
		appendText(cell, g.S, g)
		pendingSpace = false
		prevEnd = math.Max(prevEnd, g.X+width)
		line.Size = math.Max(line.Size, g.FontSize)
	}
	return line
}

func appendText(c *Cell, s string, g pdf.Text) {
	bold, italic := fontStyle(g.Font)
	if n := len(c.Runs); n > 0 {
		last := &c.Runs[n-1]
		if s == " " || (last.Bold == bold && last.Italic == italic && last.Size == g.FontSize) {
			last.Text += s
			return
		}
	}
	c.Runs = append(c.Runs, Run{Text: s, Bold: bold, Italic: italic, Size: g.FontSize})
}

func fontStyle(name string) (bold, italic bool) {
	lower := strings.ToLower(name)
	bold = strings.Contains(lower, "bold") || strings.Contains(lower, "black") || strings.Contains(lower, "heavy")
	italic = strings.Contains(lower, "italic") || strings.Contains(lower, "oblique")
	return bold, italic
}

func fontSize(g pdf.Text) float64 {
	return math.Max(g.FontSize, 1)
}

func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
