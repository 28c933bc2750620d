package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/pdfwordconverter/internal/docx"
	"github.com/Lllllllleong/pdfwordconverter/internal/layout"
	"github.com/Lllllllleong/pdfwordconverter/internal/pdfdoc"
)

// DefaultLinkHeading titles the page of links appended to converted documents.
const DefaultLinkHeading = "link list"

// linkHeadingLevel is the heading level of the link list title.
const linkHeadingLevel = 2

// LayoutConverter turns the PDF at pdfPath into a Word document at docxPath.
type LayoutConverter interface {
	Convert(ctx context.Context, pdfPath, docxPath string) error
}

// TextLayoutConverter rebuilds headings, paragraphs and tables from the text
// geometry of each page. Images and vector drawings are not carried over.
type TextLayoutConverter struct{}

// Convert writes one page of the document per PDF page, separated by page breaks.
func (TextLayoutConverter) Convert(ctx context.Context, pdfPath, docxPath string) error {
	src, err := layout.ReadFile(pdfPath)
	if err != nil {
		return err
	}

	out := docx.New()
	for i, page := range src.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			out.AddPageBreak()
		}
		for _, b := range page.Blocks(src.BodySize) {
			switch b.Kind {
			case layout.KindHeading:
				out.AddHeading(strings.TrimSpace(joinRuns(b.Runs)), b.Level)
			case layout.KindTable:
				out.AddTable(b.Rows)
			default:
				out.AddParagraph(docx.StyleNormal, wordRuns(b.Runs, src.BodySize)...)
			}
		}
	}
	return out.Save(docxPath)
}

func joinRuns(runs []layout.Run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// wordRuns keeps bold and italic and only records sizes that differ from the body text.
func wordRuns(runs []layout.Run, bodySize float64) []docx.Run {
	out := make([]docx.Run, 0, len(runs))
	for _, r := range runs {
		wr := docx.Run{Text: r.Text, Bold: r.Bold, Italic: r.Italic}
		if r.Size != bodySize {
			wr.Size = r.Size
		}
		out = append(out, wr)
	}
	return out
}

// ConverterConfig holds the settings of a Converter. LinkHeading defaults to DefaultLinkHeading.
type ConverterConfig struct {
	LinkHeading string
}

// Converter produces Word documents from PDFs and post-processes them.
type Converter struct {
	layout LayoutConverter
	config ConverterConfig
}

// NewConverter returns a Converter. A nil layout selects TextLayoutConverter.
func NewConverter(lc LayoutConverter, config ConverterConfig) *Converter {
	if lc == nil {
		lc = TextLayoutConverter{}
	}
	if config.LinkHeading == "" {
		config.LinkHeading = DefaultLinkHeading
	}
	return &Converter{layout: lc, config: config}
}

// ConvertDocument validates the PDF, converts every page into docxPath and
// gives every table in the result the Table Grid style. It returns the page count.
func (c *Converter) ConvertDocument(ctx context.Context, pdfPath, docxPath string) (int, error) {
	pageCount, err := pdfdoc.Inspect(pdfPath)
	if err != nil {
		return 0, err
	}
	if err := c.layout.Convert(ctx, pdfPath, docxPath); err != nil {
		return 0, fmt.Errorf("failed to convert PDF layout: %w", err)
	}

	doc, err := docx.Open(docxPath)
	if err != nil {
		return 0, fmt.Errorf("failed to reopen converted document: %w", err)
	}
	tables := doc.ApplyTableGrid()
	if err := doc.Save(docxPath); err != nil {
		return 0, fmt.Errorf("failed to save styled document: %w", err)
	}
	slog.Debug("Converted PDF to Word.", "pdf", pdfPath, "pageCount", pageCount, "tables", tables)
	return pageCount, nil
}

// AppendLinks adds a page break, the link list heading and one paragraph per
// link to the document at docxPath. Nothing is written when links is empty.
func (c *Converter) AppendLinks(docxPath string, links []string) error {
	if len(links) == 0 {
		return nil
	}
	doc, err := docx.Open(docxPath)
	if err != nil {
		return fmt.Errorf("failed to open document for links: %w", err)
	}
	doc.AddPageBreak()
	doc.AddHeading(c.config.LinkHeading, linkHeadingLevel)
	for _, link := range links {
		doc.AddText(link)
	}
	if err := doc.Save(docxPath); err != nil {
		return fmt.Errorf("failed to save document with links: %w", err)
	}
	return nil
}
