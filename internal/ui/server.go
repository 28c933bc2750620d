// Package ui serves the upload, convert and download form.
package ui

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lllllllleong/pdfwordconverter/internal/models"
	"github.com/Lllllllleong/pdfwordconverter/internal/services"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "pdf2word_session"

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// Batcher converts a batch of PDFs into one downloadable bundle.
type Batcher interface {
	ConvertBatch(ctx context.Context, sources []services.Source) (*services.Bundle, error)
}

// Config holds the settings of a Server.
type Config struct {
	// MaxUploadBytes caps the size of one upload request.
	MaxUploadBytes int64
	// TempRoot holds session directories; empty uses os.TempDir.
	TempRoot string
	// SessionIdle is how long an unused session is kept; zero keeps it forever.
	SessionIdle time.Duration
}

// Server is the http.Handler behind the converter form.
type Server struct {
	batcher Batcher
	store   *Store
	config  Config
	mux     *http.ServeMux
}

// NewServer returns a Server converting uploads with batcher. A zero
// MaxUploadBytes allows 64 MB per upload.
func NewServer(batcher Batcher, config Config) *Server {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 64 << 20
	}
	s := &Server{
		batcher: batcher,
		store:   NewStore(config.TempRoot, config.SessionIdle),
		config:  config,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /state", s.handleState)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /clear", s.handleClear)
	s.mux.HandleFunc("POST /convert", s.handleConvert)
	s.mux.HandleFunc("GET /download", s.handleDownload)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Sessions exposes the session store.
func (s *Server) Sessions() *Store {
	return s.store
}

// session returns the caller's session, starting a new one when the cookie
// is missing or stale.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.store.Get(c.Value); ok {
			return sess, nil
		}
	}
	sess, err := s.store.Create()
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// withSession runs fn holding the caller's session lock.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*Session, *slog.Logger)) {
	sess, err := s.session(w, r)
	if err != nil {
		slog.Error("Failed to start session.", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess, slog.With("sessionId", sess.ID))
}

type indexData struct {
	Uploads      []string
	Enabled      bool
	DownloadName string
	MaxUploadMB  int64
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, logCtx *slog.Logger) {
		data := indexData{
			Uploads:     sess.names,
			Enabled:     sess.download.Enabled,
			MaxUploadMB: s.config.MaxUploadBytes >> 20,
		}
		if data.Enabled {
			data.DownloadName = filepath.Base(sess.download.Path)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTemplate.Execute(w, data); err != nil {
			logCtx.Error("Failed to render page.", "error", err)
		}
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, _ *slog.Logger) {
		writeJSON(w, http.StatusOK, stateOf(sess))
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.config.MaxUploadBytes>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	for _, fh := range files {
		if !isPDFName(fh.Filename) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s is not a .pdf file", fh.Filename))
			return
		}
	}

	s.withSession(w, r, func(sess *Session, logCtx *slog.Logger) {
		uploadDir, names, paths, err := saveUploads(sess.dir, files)
		if err != nil {
			logCtx.Error("Failed to store uploads.", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to store uploads")
			return
		}
		sess.setUploads(uploadDir, names, paths)
		logCtx.Info("Uploads replaced.", "count", len(paths))
		writeJSON(w, http.StatusOK, models.UploadResponse{Status: "ok", Count: len(paths), State: stateOf(sess)})
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, logCtx *slog.Logger) {
		sess.setUploads("", nil, nil)
		logCtx.Info("Uploads cleared.")
		writeJSON(w, http.StatusOK, models.UploadResponse{Status: "ok", State: stateOf(sess)})
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, logCtx *slog.Logger) {
		if len(sess.uploads) == 0 {
			writeError(w, http.StatusBadRequest, "upload at least one PDF first")
			return
		}
		// The current download stays usable until a new bundle replaces it.
		bundle, err := s.batcher.ConvertBatch(r.Context(), sess.uploads)
		if err != nil {
			logCtx.Error("Conversion failed.", "error", err)
			writeError(w, http.StatusInternalServerError, "conversion failed")
			return
		}
		sess.enable(bundle)

		linkCount := 0
		for _, res := range bundle.Results {
			linkCount += len(res.Links)
		}
		logCtx.Info("Conversion succeeded.", "bundle", bundle.Path, "fileCount", len(bundle.Results))
		writeJSON(w, http.StatusOK, models.ConvertResponse{
			Status:       "ok",
			DownloadName: bundle.Name(),
			Enabled:      true,
			FileCount:    len(bundle.Results),
			LinkCount:    linkCount,
		})
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, logCtx *slog.Logger) {
		if !sess.download.Enabled {
			writeError(w, http.StatusConflict, "nothing to download yet")
			return
		}
		f, err := os.Open(sess.download.Path)
		if err != nil {
			logCtx.Error("Failed to open bundle.", "path", sess.download.Path, "error", err)
			writeError(w, http.StatusInternalServerError, "download unavailable")
			return
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			logCtx.Error("Failed to stat bundle.", "path", sess.download.Path, "error", err)
			writeError(w, http.StatusInternalServerError, "download unavailable")
			return
		}

		name := filepath.Base(sess.download.Path)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("Content-Type", contentType(name))
		http.ServeContent(w, r, name, info.ModTime(), f)
	})
}

func stateOf(sess *Session) models.DownloadState {
	st := models.DownloadState{Enabled: sess.download.Enabled, Uploads: sess.names}
	if st.Uploads == nil {
		st.Uploads = []string{}
	}
	if sess.download.Enabled {
		st.DownloadName = filepath.Base(sess.download.Path)
	}
	return st
}

// saveUploads writes each file into its own numbered directory so repeated
// names do not collide, keeping the original base name.
func saveUploads(sessionDir string, files []*multipart.FileHeader) (string, []string, []string, error) {
	if len(files) == 0 {
		return "", nil, nil, nil
	}
	dir, err := os.MkdirTemp(sessionDir, "uploads-*")
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	names := make([]string, 0, len(files))
	paths := make([]string, 0, len(files))
	for i, fh := range files {
		name := uploadName(fh.Filename)
		dst := filepath.Join(dir, fmt.Sprint(i), name)
		if err := saveUpload(fh, dst); err != nil {
			os.RemoveAll(dir)
			return "", nil, nil, err
		}
		names = append(names, name)
		paths = append(paths, dst)
	}
	return dir, names, paths, nil
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to save upload %s: %w", fh.Filename, err)
	}
	return out.Close()
}

// uploadName is the base of a client-supplied file name.
func uploadName(name string) string {
	return path.Base(strings.ReplaceAll(name, `\`, "/"))
}

func isPDFName(name string) bool {
	return strings.EqualFold(path.Ext(uploadName(name)), ".pdf")
}

func contentType(name string) string {
	if strings.HasSuffix(name, ".zip") {
		return "application/zip"
	}
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Status: "error", Error: message})
}
