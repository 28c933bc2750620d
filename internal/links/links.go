// Package links collects the hyperlinks of a PDF: URI link annotations and
// URL-shaped text, deduplicated in first-seen order.
package links

import (
	"context"
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/Lllllllleong/pdfwordconverter/internal/layout"
	"github.com/Lllllllleong/pdfwordconverter/internal/pdfdoc"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// urlPattern stops at whitespace, quotes, angle brackets, ')' and ']'.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"'\)\]]+`)

// trailingChars are stripped from the end of every candidate link.
const trailingChars = ".,;:)]"

// Set is an insertion-ordered set of links.
type Set struct {
	items []string
	seen  map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{seen: map[string]struct{}{}}
}

// Add strips trailing punctuation from raw and records it unless it is empty
// or already present. It reports whether the link was new.
func (s *Set) Add(raw string) bool {
	u := strings.TrimRight(raw, trailingChars)
	if u == "" {
		return false
	}
	if _, ok := s.seen[u]; ok {
		return false
	}
	s.seen[u] = struct{}{}
	s.items = append(s.items, u)
	return true
}

// Items returns the links in first-seen order.
func (s *Set) Items() []string {
	return slices.Clone(s.items)
}

// Len returns the number of distinct links.
func (s *Set) Len() int {
	return len(s.items)
}

// ScanText adds every URL found in text to s.
func ScanText(text string, s *Set) {
	for _, m := range urlPattern.FindAllString(text, -1) {
		s.Add(m)
	}
}

// Extractor reads links from PDF files.
type Extractor struct {
	conf *model.Configuration
}

// NewExtractor returns an Extractor using relaxed PDF validation.
func NewExtractor() *Extractor {
	return &Extractor{conf: pdfdoc.Configuration()}
}

// Extract returns the links of the PDF at path. For each page the link
// annotations come first, then URLs in the page text. A PDF without links
// yields an empty result and no error.
func (e *Extractor) Extract(ctx context.Context, path string) ([]string, error) {
	annots, err := e.annotationURIs(path)
	if err != nil {
		return nil, err
	}
	doc, err := layout.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page text: %w", err)
	}

	pageCount := len(doc.Pages)
	for pageNr := range annots {
		pageCount = max(pageCount, pageNr)
	}

	set := NewSet()
	for pageNr := 1; pageNr <= pageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, uri := range annots[pageNr] {
			set.Add(uri)
		}
		if pageNr <= len(doc.Pages) {
			ScanText(doc.Pages[pageNr-1].Text(), set)
		}
	}
	return set.Items(), nil
}

// annotationURIs maps page numbers to the URIs of their link annotations,
// ordered by annotation object number.
func (e *Extractor) annotationURIs(path string) (map[int][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	annots, err := api.Annotations(f, nil, e.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}

	out := make(map[int][]string, len(annots))
	for pageNr, pageAnnots := range annots {
		linkAnnots, ok := pageAnnots[model.AnnLink]
		if !ok {
			continue
		}
		for _, key := range slices.Sorted(maps.Keys(linkAnnots.Map)) {
			link, ok := linkAnnots.Map[key].(model.LinkAnnotation)
			if !ok || link.URI == "" {
				continue
			}
			out[pageNr] = append(out[pageNr], link.URI)
		}
	}
	return out, nil
}
