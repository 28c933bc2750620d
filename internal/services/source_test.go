package services

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report.pdf", "report"},
		{"upper case extension", "REPORT.PDF", "REPORT"},
		{"nested path", "/tmp/uploads/a.pdf", "a"},
		{"windows path", `C:\Users\me\b.pdf`, "b"},
		{"dots in name", "v1.2.final.pdf", "v1.2.final"},
		{"no extension", "notes", "notes"},
		{"extension only", ".pdf", "output"},
		{"empty", "", "output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseName(tt.in))
		})
	}
}

func TestSourceLoad(t *testing.T) {
	t.Run("bytes keep their name", func(t *testing.T) {
		name, data, err := ByBytes("a.pdf", []byte("%PDF")).Load()
		require.NoError(t, err)
		assert.Equal(t, "a.pdf", name)
		assert.Equal(t, []byte("%PDF"), data)
	})

	t.Run("bytes without a name", func(t *testing.T) {
		name, _, err := ByBytes("", []byte("%PDF")).Load()
		require.NoError(t, err)
		assert.Equal(t, "output.pdf", name)
	})

	t.Run("path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "b.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
		name, data, err := ByPath(path).Load()
		require.NoError(t, err)
		assert.Equal(t, path, name)
		assert.Equal(t, []byte("%PDF-1.4"), data)
	})

	t.Run("missing path", func(t *testing.T) {
		_, _, err := ByPath(filepath.Join(t.TempDir(), "gone.pdf")).Load()
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("zero source", func(t *testing.T) {
		_, _, err := Source{}.Load()
		assert.ErrorIs(t, err, ErrUnsupportedInput)
	})
}
