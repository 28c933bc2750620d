package main

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/Lllllllleong/pdfwordconverter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return stdout.String()
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	pdf := testutil.WritePDF(t, dir, "report.pdf", testutil.Page{Lines: []string{"Read https://a.example today."}})
	out := filepath.Join(dir, "out")

	got := run(t, "convert", pdf, "--out", out)
	assert.Equal(t, filepath.Join(out, "report.docx")+"\n", got)
	assert.FileExists(t, filepath.Join(out, "report.docx"))
}

func TestConvertCommandBundlesSeveralFiles(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WritePDF(t, dir, "a.pdf", testutil.Page{Lines: []string{"A"}})
	b := testutil.WritePDF(t, dir, "b.pdf", testutil.Page{Lines: []string{"B"}})
	out := filepath.Join(dir, "out")

	got := run(t, "convert", a, b, "--out", out)
	assert.Equal(t, filepath.Join(out, "converted_docs.zip")+"\n", got)
	assert.FileExists(t, filepath.Join(out, "converted_docs.zip"))
}

func TestLinksCommand(t *testing.T) {
	dir := t.TempDir()
	pdf := testutil.WritePDF(t, dir, "in.pdf", testutil.Page{
		Lines: []string{"see http://example.com)."},
		Links: []string{"https://annot.example"},
	})

	got := run(t, "links", pdf)
	assert.Equal(t, "https://annot.example\nhttp://example.com\n", got)

	var byFile map[string][]string
	require.NoError(t, json.Unmarshal([]byte(run(t, "links", "--json", pdf)), &byFile))
	assert.Equal(t, []string{"https://annot.example", "http://example.com"}, byFile[pdf])
}
