package layout

import (
	"strings"
	"testing"

	"github.com/Lllllllleong/pdfwordconverter/internal/testutil"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// glyphs lays s out one glyph per rune starting at x, each half an em wide.
func glyphs(s string, x, y, size float64, font string) []pdf.Text {
	var out []pdf.Text
	w := size / 2
	for _, r := range s {
		out = append(out, pdf.Text{Font: font, FontSize: size, X: x, Y: y, W: w, S: string(r)})
		x += w
	}
	return out
}

func concat(parts ...[]pdf.Text) []pdf.Text {
	var out []pdf.Text
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestBuildLines(t *testing.T) {
	tests := []struct {
		name   string
		glyphs []pdf.Text
		want   []string
	}{
		{
			name:   "explicit space glyph",
			glyphs: glyphs("Hello world", 0, 700, 10, "Helvetica"),
			want:   []string{"Hello world"},
		},
		{
			name:   "word gap without space glyph",
			glyphs: concat(glyphs("Hello", 0, 700, 10, "Helvetica"), glyphs("world", 28, 700, 10, "Helvetica")),
			want:   []string{"Hello world"},
		},
		{
			name:   "wide gap splits cells",
			glyphs: concat(glyphs("Name", 0, 700, 10, "Helvetica"), glyphs("Role", 200, 700, 10, "Helvetica")),
			want:   []string{"Name\tRole"},
		},
		{
			name:   "top line first regardless of stream order",
			glyphs: concat(glyphs("bottom", 0, 100, 10, "Helvetica"), glyphs("top", 0, 700, 10, "Helvetica")),
			want:   []string{"top", "bottom"},
		},
		{
			name:   "slight baseline drift stays on one line",
			glyphs: concat(glyphs("ab", 0, 700, 10, "Helvetica"), glyphs("cd", 10, 701.5, 10, "Helvetica")),
			want:   []string{"abcd"},
		},
		{
			name: "zero width glyphs keep stream order",
			glyphs: []pdf.Text{
				{FontSize: 10, X: 5, Y: 700, S: "g"},
				{FontSize: 10, X: 5, Y: 700, S: "o"},
				{FontSize: 10, X: 5, Y: 700, S: " "},
				{FontSize: 10, X: 5, Y: 700, S: "!"},
			},
			want: []string{"go !"},
		},
		{
			name:   "whitespace only",
			glyphs: glyphs("   ", 0, 700, 10, "Helvetica"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, l := range buildLines(tt.glyphs) {
				got = append(got, l.Text())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildLinesRuns(t *testing.T) {
	lines := buildLines(concat(
		glyphs("Bold", 0, 700, 12, "Helvetica-Bold"),
		glyphs(" plain", 24, 700, 12, "Helvetica"),
	))
	require.Len(t, lines, 1)
	require.Len(t, lines[0].Cells, 1)
	runs := lines[0].Cells[0].Runs
	require.Len(t, runs, 2)
	assert.Equal(t, Run{Text: "Bold ", Bold: true, Size: 12}, runs[0])
	assert.Equal(t, Run{Text: "plain", Size: 12}, runs[1])
	assert.Equal(t, 12.0, lines[0].Size)
}

func TestBlocks(t *testing.T) {
	page := Page{Lines: buildLines(concat(
		glyphs("Title", 0, 780, 24, "Helvetica-Bold"),
		glyphs("line one", 0, 740, 11, "Helvetica"),
		glyphs("line two", 0, 724, 11, "Helvetica"),
		glyphs("Name", 0, 680, 11, "Helvetica"), glyphs("Role", 160, 680, 11, "Helvetica"),
		glyphs("Alice", 0, 664, 11, "Helvetica"), glyphs("Admin", 160, 664, 11, "Helvetica"),
		glyphs("after the table", 0, 600, 11, "Helvetica"),
	))}

	blocks := page.Blocks(11)
	require.Len(t, blocks, 4)

	assert.Equal(t, KindHeading, blocks[0].Kind)
	assert.Equal(t, 1, blocks[0].Level)

	assert.Equal(t, KindParagraph, blocks[1].Kind)
	assert.Equal(t, "line one line two", runText(blocks[1].Runs))

	assert.Equal(t, KindTable, blocks[2].Kind)
	assert.Equal(t, [][]string{{"Name", "Role"}, {"Alice", "Admin"}}, blocks[2].Rows)

	assert.Equal(t, KindParagraph, blocks[3].Kind)
	assert.Equal(t, "after the table", runText(blocks[3].Runs))
}

func TestBlocksSingleMultiCellLineIsParagraph(t *testing.T) {
	page := Page{Lines: buildLines(concat(
		glyphs("Left", 0, 700, 11, "Helvetica"), glyphs("Right", 300, 700, 11, "Helvetica"),
	))}
	blocks := page.Blocks(11)
	require.Len(t, blocks, 1)
	assert.Equal(t, KindParagraph, blocks[0].Kind)
	assert.Equal(t, "Left\tRight", runText(blocks[0].Runs))
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 0, headingLevel(11, 11))
	assert.Equal(t, 0, headingLevel(14, 11))
	assert.Equal(t, 3, headingLevel(15, 11))
	assert.Equal(t, 2, headingLevel(18, 11))
	assert.Equal(t, 1, headingLevel(24, 11))
	assert.Equal(t, 0, headingLevel(24, 0))
}

func TestReadFile(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "doc.pdf",
		testutil.Page{
			Heading: "Quarterly Report",
			Lines:   []string{"First paragraph line.", "Second line of it."},
			Table:   [][]string{{"Name", "Role"}, {"Alice", "Admin"}, {"Bob", "User"}},
		},
		testutil.Page{Lines: []string{"see http://example.com)."}},
	)

	doc, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, 11.0, doc.BodySize)

	first := doc.Pages[0]
	assert.Contains(t, first.Text(), "Quarterly Report")
	assert.Contains(t, first.Text(), "First paragraph line.")

	var kinds []BlockKind
	var table [][]string
	for _, b := range first.Blocks(doc.BodySize) {
		kinds = append(kinds, b.Kind)
		if b.Kind == KindTable {
			table = b.Rows
		}
	}
	assert.Equal(t, []BlockKind{KindHeading, KindParagraph, KindTable}, kinds)
	assert.Equal(t, [][]string{{"Name", "Role"}, {"Alice", "Admin"}, {"Bob", "User"}}, table)

	assert.Equal(t, "see http://example.com).", doc.Pages[1].Text())
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(strings.NewReader("not a pdf"), int64(len("not a pdf")))
	assert.Error(t, err)
}

func runText(runs []Run) string {
	var s string
	for _, r := range runs {
		s += r.Text
	}
	return s
}
