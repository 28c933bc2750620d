package docx

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, d *Document) *Document {
	t.Helper()
	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)
	out, err := Parse(buf.Bytes())
	require.NoError(t, err)
	return out
}

func TestNewDocumentIsEmpty(t *testing.T) {
	d := roundTrip(t, New())
	assert.Empty(t, d.Paragraphs())
	assert.Empty(t, d.Tables())
	assert.Equal(t, 0, d.PageBreaks())
}

func TestAddParagraphsAndHeadings(t *testing.T) {
	d := New()
	d.AddText("first")
	d.AddPageBreak()
	d.AddHeading("link list", 2)
	d.AddParagraph("", Run{Text: "bold", Bold: true}, Run{Text: " tail"})

	got := roundTrip(t, d)
	paras := got.Paragraphs()
	require.Len(t, paras, 4)
	assert.Equal(t, "first", paras[0].Text)
	assert.Equal(t, "", paras[1].Text)
	assert.Equal(t, Paragraph{Style: "Heading2", Text: "link list"}, paras[2])
	assert.Equal(t, "bold tail", paras[3].Text)
	assert.Equal(t, 1, got.PageBreaks())
	assert.True(t, got.HasStyle("Heading2"))
}

func TestBlocksStayBeforeSectionProperties(t *testing.T) {
	d := New()
	d.AddText("hello")
	d.AddTable([][]string{{"a", "b"}})

	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)

	xml := readPart(t, buf.Bytes(), documentPart)
	sect := strings.Index(xml, "<w:sectPr")
	require.NotEqual(t, -1, sect)
	assert.Less(t, strings.Index(xml, "hello"), sect)
	assert.Less(t, strings.Index(xml, "<w:tbl>"), sect)
}

func TestApplyTableGrid(t *testing.T) {
	d := New()
	d.AddTable([][]string{{"Name", "Role"}, {"Alice", "Admin"}, {"Bob"}})
	d.AddTable([][]string{{"x", "y"}})
	assert.False(t, d.HasStyle(StyleTableGrid))

	assert.Equal(t, 2, d.ApplyTableGrid())

	got := roundTrip(t, d)
	tables := got.Tables()
	require.Len(t, tables, 2)
	for _, tbl := range tables {
		assert.Equal(t, StyleTableGrid, tbl.Style())
	}
	assert.Equal(t, [][]string{{"Name", "Role"}, {"Alice", "Admin"}, {"Bob", ""}}, tables[0].Rows())
	assert.True(t, got.HasStyle(StyleTableGrid))
}

func TestApplyTableGridReplacesExistingStyle(t *testing.T) {
	d := New()
	d.AddTable([][]string{{"a"}})
	d.Tables()[0].setStyle("LightShading")
	require.Equal(t, "LightShading", d.Tables()[0].Style())

	d.ApplyTableGrid()
	assert.Equal(t, StyleTableGrid, d.Tables()[0].Style())
}

func TestApplyTableGridWithoutTables(t *testing.T) {
	d := New()
	d.AddText("no tables here")
	assert.Equal(t, 0, d.ApplyTableGrid())
	assert.False(t, d.HasStyle(StyleTableGrid))
}

func TestTextWithTabsAndNewlines(t *testing.T) {
	d := New()
	d.AddText("a\tb\nc")
	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)
	xml := readPart(t, buf.Bytes(), documentPart)
	assert.Contains(t, xml, "<w:tab/>")
	assert.Contains(t, xml, "<w:br/>")
	assert.Equal(t, "abc", roundTrip(t, d).Paragraphs()[0].Text)
}

func TestSaveAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.docx")
	d := New()
	d.AddText("persisted")
	require.NoError(t, d.Save(path))

	opened, err := Open(path)
	require.NoError(t, err)
	opened.AddText("appended")
	require.NoError(t, opened.Save(path))

	again, err := Open(path)
	require.NoError(t, err)
	var texts []string
	for _, p := range again.Paragraphs() {
		texts = append(texts, p.Text)
	}
	assert.Equal(t, []string{"persisted", "appended"}, texts)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.docx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseRejectsNonWordPackage(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("hello.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Parse(buf.Bytes())
	assert.ErrorIs(t, err, ErrNotWordDocument)
}

func TestParseAddsMissingStylesPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		contentTypesPart: contentTypesXML,
		packageRelsPart:  packageRelsXML,
		documentPart:     documentXML,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	d, err := Parse(buf.Bytes())
	require.NoError(t, err)
	d.AddHeading("title", 1)

	var out bytes.Buffer
	_, err = d.WriteTo(&out)
	require.NoError(t, err)
	assert.Contains(t, readPart(t, out.Bytes(), documentRelsPart), "styles.xml")
	assert.Contains(t, readPart(t, out.Bytes(), stylesPart), `w:styleId="Heading1"`)
}

func readPart(t *testing.T, archive []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		var b bytes.Buffer
		_, err = b.ReadFrom(rc)
		require.NoError(t, err)
		return b.String()
	}
	t.Fatalf("part %s not found", name)
	return ""
}
