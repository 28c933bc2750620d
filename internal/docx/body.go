package docx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Run is a span of text sharing character formatting.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	// Size in points; zero keeps the paragraph style's size.
	Size float64
}

// Paragraph is a read-only view of a body paragraph.
type Paragraph struct {
	Style string
	Text  string
}

// AddParagraph appends a paragraph made of runs, styled with styleID (empty for Normal).
func (d *Document) AddParagraph(styleID string, runs ...Run) {
	d.appendBlock(newParagraph(styleID, runs))
}

// AddText appends a Normal paragraph with plain text.
func (d *Document) AddText(text string) {
	d.AddParagraph("", Run{Text: text})
}

// AddHeading appends a heading paragraph at the given level.
func (d *Document) AddHeading(text string, level int) {
	d.ensureStyle(headingDef(clampLevel(level)))
	d.AddParagraph(HeadingStyle(level), Run{Text: text})
}

// AddPageBreak appends a paragraph holding a single page break.
func (d *Document) AddPageBreak() {
	p := etree.NewElement("w:p")
	p.CreateElement("w:r").CreateElement("w:br").CreateAttr("w:type", "page")
	d.appendBlock(p)
}

// AddTable appends a table; cells hold plain text. Rows may differ in length,
// short rows are padded with empty cells.
func (d *Document) AddTable(rows [][]string) {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return
	}
	// Text width of an A4 page with one inch margins is 9026 twips.
	colWidth := 9026 / cols

	tbl := etree.NewElement("w:tbl")
	tblPr := tbl.CreateElement("w:tblPr")
	tblW := tblPr.CreateElement("w:tblW")
	tblW.CreateAttr("w:w", "0")
	tblW.CreateAttr("w:type", "auto")
	tblPr.CreateElement("w:tblLook").CreateAttr("w:val", "04A0")

	grid := tbl.CreateElement("w:tblGrid")
	for range cols {
		grid.CreateElement("w:gridCol").CreateAttr("w:w", fmt.Sprint(colWidth))
	}
	for _, r := range rows {
		tr := tbl.CreateElement("w:tr")
		for c := range cols {
			text := ""
			if c < len(r) {
				text = r[c]
			}
			tc := tr.CreateElement("w:tc")
			tcW := tc.CreateElement("w:tcPr").CreateElement("w:tcW")
			tcW.CreateAttr("w:w", fmt.Sprint(colWidth))
			tcW.CreateAttr("w:type", "dxa")
			tc.AddChild(newParagraph("", []Run{{Text: text}}))
		}
	}
	d.appendBlock(tbl)
}

// Table is a handle on a table element in the document body.
type Table struct {
	el *etree.Element
}

// Tables returns every table in the document, nested tables included.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, el := range d.body.FindElements(".//w:tbl") {
		out = append(out, &Table{el: el})
	}
	return out
}

// Style returns the table's style ID, or "" when none is set.
func (t *Table) Style() string {
	if pr := t.el.SelectElement("w:tblPr"); pr != nil {
		if s := pr.SelectElement("w:tblStyle"); s != nil {
			return s.SelectAttrValue("w:val", "")
		}
	}
	return ""
}

// Rows returns the plain text of each cell, row by row.
func (t *Table) Rows() [][]string {
	var rows [][]string
	for _, tr := range t.el.SelectElements("w:tr") {
		var row []string
		for _, tc := range tr.SelectElements("w:tc") {
			row = append(row, elementText(tc))
		}
		rows = append(rows, row)
	}
	return rows
}

// setStyle points the table at styleID; tblStyle must be the first child of tblPr.
func (t *Table) setStyle(styleID string) {
	pr := t.el.SelectElement("w:tblPr")
	if pr == nil {
		pr = etree.NewElement("w:tblPr")
		t.el.InsertChildAt(0, pr)
	}
	s := pr.SelectElement("w:tblStyle")
	if s == nil {
		s = etree.NewElement("w:tblStyle")
		pr.InsertChildAt(0, s)
	}
	s.CreateAttr("w:val", styleID)
}

// ApplyTableGrid gives every table the bordered "Table Grid" style and returns
// how many tables were restyled.
func (d *Document) ApplyTableGrid() int {
	tables := d.Tables()
	if len(tables) == 0 {
		return 0
	}
	d.ensureStyle(tableGridDef)
	for _, t := range tables {
		t.setStyle(StyleTableGrid)
	}
	return len(tables)
}

// Paragraphs returns the top-level body paragraphs in order.
func (d *Document) Paragraphs() []Paragraph {
	var out []Paragraph
	for _, p := range d.body.SelectElements("w:p") {
		style := ""
		if pr := p.SelectElement("w:pPr"); pr != nil {
			if ps := pr.SelectElement("w:pStyle"); ps != nil {
				style = ps.SelectAttrValue("w:val", "")
			}
		}
		out = append(out, Paragraph{Style: style, Text: elementText(p)})
	}
	return out
}

// PageBreaks counts explicit page breaks in the body.
func (d *Document) PageBreaks() int {
	n := 0
	for _, br := range d.body.FindElements(".//w:br") {
		if br.SelectAttrValue("w:type", "") == "page" {
			n++
		}
	}
	return n
}

func (d *Document) appendBlock(el *etree.Element) {
	if sect := d.body.SelectElement("w:sectPr"); sect != nil {
		d.body.InsertChildAt(sect.Index(), el)
		return
	}
	d.body.AddChild(el)
}

func newParagraph(styleID string, runs []Run) *etree.Element {
	p := etree.NewElement("w:p")
	if styleID != "" && styleID != StyleNormal {
		p.CreateElement("w:pPr").CreateElement("w:pStyle").CreateAttr("w:val", styleID)
	}
	for _, run := range runs {
		if run.Text == "" {
			continue
		}
		r := p.CreateElement("w:r")
		if run.Bold || run.Italic || run.Size > 0 {
			rpr := r.CreateElement("w:rPr")
			if run.Bold {
				rpr.CreateElement("w:b")
			}
			if run.Italic {
				rpr.CreateElement("w:i")
			}
			if run.Size > 0 {
				half := fmt.Sprint(int(run.Size*2 + 0.5))
				rpr.CreateElement("w:sz").CreateAttr("w:val", half)
				rpr.CreateElement("w:szCs").CreateAttr("w:val", half)
			}
		}
		writeText(r, run.Text)
	}
	return p
}

// writeText emits text into a run, mapping tabs and newlines to their elements.
func writeText(r *etree.Element, text string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			r.CreateElement("w:br")
		}
		for j, seg := range strings.Split(line, "\t") {
			if j > 0 {
				r.CreateElement("w:tab")
			}
			if seg == "" {
				continue
			}
			t := r.CreateElement("w:t")
			t.CreateAttr("xml:space", "preserve")
			t.SetText(seg)
		}
	}
}

func elementText(el *etree.Element) string {
	var b strings.Builder
	for _, t := range el.FindElements(".//w:t") {
		b.WriteString(t.Text())
	}
	return b.String()
}

func clampLevel(level int) int {
	return min(max(level, 1), 9)
}
