package services

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
)

// ErrUnsupportedInput is returned for a Source that carries neither bytes nor a path.
var ErrUnsupportedInput = errors.New("unsupported input type")

// defaultSourceName names byte uploads that arrive without a filename.
const defaultSourceName = "output.pdf"

// SourceKind tags how a Source carries its PDF.
type SourceKind int

const (
	SourceUnknown SourceKind = iota
	SourceBytes
	SourcePath
)

// Source is one PDF handed to the converter, either as raw bytes with an
// original filename or as a path on disk.
type Source struct {
	Kind SourceKind
	Name string
	Data []byte
	Path string
}

// ByBytes wraps uploaded bytes and their original filename.
func ByBytes(name string, data []byte) Source {
	return Source{Kind: SourceBytes, Name: name, Data: data}
}

// ByPath refers to a PDF on disk; the path doubles as the original filename.
func ByPath(p string) Source {
	return Source{Kind: SourcePath, Path: p}
}

// Load returns the original filename and the PDF bytes.
func (s Source) Load() (string, []byte, error) {
	switch s.Kind {
	case SourceBytes:
		name := s.Name
		if name == "" {
			name = defaultSourceName
		}
		return name, s.Data, nil
	case SourcePath:
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
		}
		return s.Path, data, nil
	default:
		return "", nil, fmt.Errorf("%w: source kind %d", ErrUnsupportedInput, s.Kind)
	}
}

// BaseName strips directories and the extension from an original filename.
// Both slash styles are treated as separators since browsers may send either.
func BaseName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		return strings.TrimSuffix(defaultSourceName, ".pdf")
	}
	return base
}
