// Package docx reads, edits and writes WordprocessingML (.docx) packages.
//
// Only the parts needed for text documents are modelled: the main document,
// its styles and relationships. Any other part found in an opened package is
// carried through unchanged on save.
package docx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/zip"
)

// ErrNotWordDocument is returned when a package has no main document part.
var ErrNotWordDocument = errors.New("package has no word/document.xml part")

// Document is an in-memory .docx package.
type Document struct {
	order  []string
	parts  map[string][]byte
	doc    *etree.Document
	styles *etree.Document
	body   *etree.Element
}

// New returns an empty document with default page setup and styles.
func New() *Document {
	d := &Document{
		parts: map[string][]byte{
			contentTypesPart: []byte(contentTypesXML),
			packageRelsPart:  []byte(packageRelsXML),
			documentRelsPart: []byte(documentRelsXML),
			documentPart:     []byte(documentXML),
			stylesPart:       []byte(stylesXML),
		},
		order: []string{contentTypesPart, packageRelsPart, documentPart, documentRelsPart, stylesPart},
	}
	// The templates are constants; a parse failure is a programming error.
	if err := d.load(); err != nil {
		panic(fmt.Sprintf("docx: invalid built-in template: %v", err))
	}
	return d
}

// Open reads the .docx package at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return Parse(data)
}

// Parse reads a .docx package from memory.
func Parse(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx archive: %w", err)
	}
	d := &Document{parts: map[string][]byte{}}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open part %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %w", f.Name, err)
		}
		d.order = append(d.order, f.Name)
		d.parts[f.Name] = content
	}
	if _, ok := d.parts[documentPart]; !ok {
		return nil, ErrNotWordDocument
	}
	if _, ok := d.parts[stylesPart]; !ok {
		if err := d.addStylesPart(); err != nil {
			return nil, err
		}
	}
	if err := d.load(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) load() error {
	d.doc = etree.NewDocument()
	if err := d.doc.ReadFromBytes(d.parts[documentPart]); err != nil {
		return fmt.Errorf("failed to parse %s: %w", documentPart, err)
	}
	d.styles = etree.NewDocument()
	if err := d.styles.ReadFromBytes(d.parts[stylesPart]); err != nil {
		return fmt.Errorf("failed to parse %s: %w", stylesPart, err)
	}
	root := d.doc.Root()
	if root == nil {
		return ErrNotWordDocument
	}
	d.body = root.SelectElement("w:body")
	if d.body == nil {
		d.body = root.CreateElement("w:body")
	}
	return nil
}

// addStylesPart registers a default styles part in a package that lacks one.
func (d *Document) addStylesPart() error {
	d.parts[stylesPart] = []byte(stylesXML)
	d.order = append(d.order, stylesPart)

	ct := etree.NewDocument()
	if err := ct.ReadFromBytes(d.parts[contentTypesPart]); err != nil {
		return fmt.Errorf("failed to parse %s: %w", contentTypesPart, err)
	}
	registered := false
	for _, o := range ct.Root().SelectElements("Override") {
		if o.SelectAttrValue("PartName", "") == "/"+stylesPart {
			registered = true
		}
	}
	if !registered {
		override := ct.Root().CreateElement("Override")
		override.CreateAttr("PartName", "/"+stylesPart)
		override.CreateAttr("ContentType", "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml")
	}
	b, err := ct.WriteToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", contentTypesPart, err)
	}
	d.parts[contentTypesPart] = b

	raw, ok := d.parts[documentRelsPart]
	if !ok {
		d.parts[documentRelsPart] = []byte(documentRelsXML)
		d.order = append(d.order, documentRelsPart)
		return nil
	}
	rels := etree.NewDocument()
	if err := rels.ReadFromBytes(raw); err != nil {
		return fmt.Errorf("failed to parse %s: %w", documentRelsPart, err)
	}
	rel := rels.Root().CreateElement("Relationship")
	rel.CreateAttr("Id", fmt.Sprintf("rId%d", len(rels.Root().ChildElements())+1000))
	rel.CreateAttr("Type", "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles")
	rel.CreateAttr("Target", "styles.xml")
	if b, err = rels.WriteToBytes(); err != nil {
		return fmt.Errorf("failed to serialize %s: %w", documentRelsPart, err)
	}
	d.parts[documentRelsPart] = b
	return nil
}

// WriteTo writes the package as a zip archive.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if err := d.flush(); err != nil {
		return 0, err
	}
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, name := range d.order {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return cw.n, fmt.Errorf("failed to add part %s: %w", name, err)
		}
		if _, err := fw.Write(d.parts[name]); err != nil {
			return cw.n, fmt.Errorf("failed to write part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to finalize docx archive: %w", err)
	}
	return cw.n, nil
}

// Save writes the package to path, replacing any existing file.
func (d *Document) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docx-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := d.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// flush serializes the edited XML trees back into their parts.
func (d *Document) flush() error {
	for name, src := range map[string]*etree.Document{documentPart: d.doc, stylesPart: d.styles} {
		b, err := src.WriteToBytes()
		if err != nil {
			return fmt.Errorf("failed to serialize %s: %w", name, err)
		}
		d.parts[name] = b
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
