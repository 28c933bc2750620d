package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Lllllllleong/pdfwordconverter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPDFObject(t *testing.T) {
	assert.True(t, IsPDFObject("report.pdf"))
	assert.True(t, IsPDFObject("inbox/2024/Report.PDF"))
	assert.False(t, IsPDFObject("report.docx"))
	assert.False(t, IsPDFObject("folder.pdf/"))
	assert.False(t, IsPDFObject("pdf"))
}

func TestOutputObjectName(t *testing.T) {
	assert.Equal(t, "report.docx", OutputObjectName("report.pdf"))
	assert.Equal(t, "inbox/2024/Report.docx", OutputObjectName("inbox/2024/Report.PDF"))
	assert.Equal(t, "v1.2/notes.docx", OutputObjectName("v1.2/notes.pdf"))
}

func TestResolveExisting(t *testing.T) {
	tests := []struct {
		name          string
		records       []existingRecord
		wantDuplicate string
		wantRetry     string
	}{
		{name: "new file"},
		{
			name:          "already converted",
			records:       []existingRecord{{ID: "a", Status: models.StatusConverted}},
			wantDuplicate: "a",
		},
		{
			name:          "conversion in flight",
			records:       []existingRecord{{ID: "a", Status: models.StatusConverting}},
			wantDuplicate: "a",
		},
		{
			name:      "failed conversion is retried",
			records:   []existingRecord{{ID: "a", Status: models.StatusFailed}},
			wantRetry: "a",
		},
		{
			name: "a live record wins over a failed one",
			records: []existingRecord{
				{ID: "old", Status: models.StatusFailed},
				{ID: "new", Status: models.StatusConverted},
			},
			wantDuplicate: "new",
		},
		{
			name:    "unknown status is neither",
			records: []existingRecord{{ID: "a", Status: ""}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dup, retry := resolveExisting(tt.records)
			assert.Equal(t, tt.wantDuplicate, dup)
			assert.Equal(t, tt.wantRetry, retry)
		})
	}
}

func TestLinksObjectName(t *testing.T) {
	assert.Equal(t, "inbox/report.links.json", LinksObjectName("inbox/report.pdf"))
}

func TestCalculateFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.pdf")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	hash, err := calculateFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hash)

	_, err = calculateFileHash(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
