package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"
)

// ErrNoInputs is returned when a batch holds no PDFs.
var ErrNoInputs = errors.New("no PDF files to convert")

const (
	BundleName     = "converted_docs.zip"
	inputFileName  = "input.pdf"
	outputFileName = "output.docx"
)

// LinkExtractor finds the hyperlinks of a PDF.
type LinkExtractor interface {
	Extract(ctx context.Context, pdfPath string) ([]string, error)
}

// Result is one converted PDF.
type Result struct {
	SourceName string
	// Path is <base>.docx inside the file's working directory.
	Path      string
	PageCount int
	Links     []string
}

// Bundle is the deliverable of a batch: the single .docx of a one-file batch,
// or a zip of every converted document.
type Bundle struct {
	Path string
	// Dir is the batch working directory. Callers own it and remove it when done.
	Dir     string
	Results []Result
}

// Name is the file name offered for download.
func (b *Bundle) Name() string {
	return filepath.Base(b.Path)
}

// PackagerConfig holds the settings of a Packager.
type PackagerConfig struct {
	// TempRoot is where batch directories are created; empty uses os.TempDir.
	TempRoot string
}

// Packager converts batches of PDFs and bundles the results.
type Packager struct {
	converter *Converter
	extractor LinkExtractor
	config    PackagerConfig
}

// NewPackager returns a Packager that converts with converter and finds links with extractor.
func NewPackager(converter *Converter, extractor LinkExtractor, config PackagerConfig) *Packager {
	return &Packager{converter: converter, extractor: extractor, config: config}
}

// ConvertOne converts src inside a fresh directory under workDir and appends
// its link list.
func (p *Packager) ConvertOne(ctx context.Context, src Source, workDir string) (*Result, error) {
	name, data, err := src.Load()
	if err != nil {
		return nil, err
	}
	logCtx := slog.With("sourceName", name)

	fileDir, err := os.MkdirTemp(workDir, "file-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file dir: %w", err)
	}
	inputPath := filepath.Join(fileDir, inputFileName)
	outputPath := filepath.Join(fileDir, outputFileName)
	if err := os.WriteFile(inputPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write input PDF: %w", err)
	}

	// Both steps only read input.pdf.
	var pageCount int
	var found []string
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		n, err := p.converter.ConvertDocument(gctx, inputPath, outputPath)
		pageCount = n
		return err
	})
	eg.Go(func() error {
		l, err := p.extractor.Extract(gctx, inputPath)
		if err != nil {
			return fmt.Errorf("failed to extract links: %w", err)
		}
		found = l
		return nil
	})
	if err := eg.Wait(); err != nil {
		logCtx.Error("Failed to convert PDF.", "error", err)
		return nil, fmt.Errorf("failed to convert %s: %w", name, err)
	}

	if err := p.converter.AppendLinks(outputPath, found); err != nil {
		logCtx.Error("Failed to append link list.", "error", err)
		return nil, err
	}

	finalPath := filepath.Join(fileDir, BaseName(name)+".docx")
	if finalPath != outputPath {
		if err := CopyFile(outputPath, finalPath); err != nil {
			return nil, err
		}
	}
	logCtx.Info("Converted PDF.", "output", finalPath, "pageCount", pageCount, "linkCount", len(found))
	return &Result{SourceName: name, Path: finalPath, PageCount: pageCount, Links: found}, nil
}

// ConvertBatch converts sources one after another. A single source yields its
// .docx; several are zipped into converted_docs.zip. The first failure aborts
// the batch.
func (p *Packager) ConvertBatch(ctx context.Context, sources []Source) (_ *Bundle, err error) {
	if len(sources) == 0 {
		return nil, ErrNoInputs
	}
	for i, src := range sources {
		if src.Kind != SourceBytes && src.Kind != SourcePath {
			return nil, fmt.Errorf("input %d: %w", i, ErrUnsupportedInput)
		}
	}

	dir, err := os.MkdirTemp(p.config.TempRoot, "pdf2word-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create batch dir: %w", err)
	}
	logCtx := slog.With("batchDir", dir, "fileCount", len(sources))
	defer func() {
		// Callers only learn the dir through a returned Bundle.
		if err != nil {
			if rerr := os.RemoveAll(dir); rerr != nil {
				logCtx.Warn("Failed to remove batch dir.", "error", rerr)
			}
		}
	}()

	bundle := &Bundle{Dir: dir}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := p.ConvertOne(ctx, src, dir)
		if err != nil {
			return nil, err
		}
		bundle.Results = append(bundle.Results, *res)
	}

	if len(bundle.Results) == 1 {
		bundle.Path = bundle.Results[0].Path
		return bundle, nil
	}

	bundle.Path = filepath.Join(dir, BundleName)
	if err := writeZip(bundle.Path, bundle.Results); err != nil {
		logCtx.Error("Failed to write zip bundle.", "error", err)
		return nil, err
	}
	logCtx.Info("Bundled converted documents.", "path", bundle.Path)
	return bundle, nil
}

func writeZip(path string, results []Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create zip: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close zip: %w", cerr)
		}
	}()

	zw := zip.NewWriter(f)
	used := map[string]int{}
	for _, res := range results {
		entry := uniqueEntryName(filepath.Base(res.Path), used)
		if err := addZipEntry(zw, entry, res.Path); err != nil {
			_ = zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip: %w", err)
	}
	return nil
}

func addZipEntry(zw *zip.Writer, entry, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: entry, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to add zip entry %s: %w", entry, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to write zip entry %s: %w", entry, err)
	}
	return nil
}

// uniqueEntryName suffixes repeated names: a.docx, a (2).docx, a (3).docx.
func uniqueEntryName(name string, used map[string]int) string {
	used[name]++
	n := used[name]
	if n == 1 {
		return name
	}
	ext := filepath.Ext(name)
	candidate := fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
	if _, taken := used[candidate]; taken {
		return uniqueEntryName(name, used)
	}
	used[candidate]++
	return candidate
}

// CopyFile copies src to dst, replacing dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	return out.Close()
}
