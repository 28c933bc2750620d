package ui

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Lllllllleong/pdfwordconverter/internal/services"
	"github.com/google/uuid"
)

// DownloadState is the Download button's state: disabled, or enabled with
// the path of the converted bundle.
type DownloadState struct {
	Enabled bool
	Path    string
}

// Session is one browser's uploads and download state. Handlers hold mu for
// the whole of an operation, so one session never runs two conversions at once.
type Session struct {
	ID string

	mu        sync.Mutex
	dir       string
	uploadDir string
	uploads   []services.Source
	names     []string
	download  DownloadState
	bundleDir string
	lastUsed  time.Time
}

// setUploads replaces the upload set and disables the download.
func (s *Session) setUploads(uploadDir string, names, paths []string) {
	if s.uploadDir != "" && s.uploadDir != uploadDir {
		removeDir(s.uploadDir)
	}
	s.uploadDir = uploadDir
	s.names = names
	s.uploads = make([]services.Source, len(paths))
	for i, p := range paths {
		s.uploads[i] = services.ByPath(p)
	}
	s.resetDownload()
}

// enable points the download at a new bundle, dropping the previous one.
func (s *Session) enable(bundle *services.Bundle) {
	s.resetDownload()
	s.bundleDir = bundle.Dir
	s.download = DownloadState{Enabled: true, Path: bundle.Path}
}

func (s *Session) resetDownload() {
	if s.bundleDir != "" {
		removeDir(s.bundleDir)
		s.bundleDir = ""
	}
	s.download = DownloadState{}
}

// release removes every file the session owns.
func (s *Session) release() {
	s.resetDownload()
	if s.uploadDir != "" {
		removeDir(s.uploadDir)
	}
	removeDir(s.dir)
}

func removeDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove directory.", "path", dir, "error", err)
	}
}

// Store keeps sessions in memory, keyed by the session cookie.
type Store struct {
	mu       sync.Mutex
	root     string
	maxIdle  time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates session directories under root. Sessions idle for longer
// than maxIdle are dropped; zero keeps them forever.
func NewStore(root string, maxIdle time.Duration) *Store {
	return &Store{
		root:     root,
		maxIdle:  maxIdle,
		sessions: map[string]*Session{},
		now:      time.Now,
	}
}

// Get returns the live session with id.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if ok {
		s.lastUsed = st.now()
	}
	return s, ok
}

// Create starts a session with a fresh ID and working directory.
func (st *Store) Create() (*Session, error) {
	st.Sweep()

	id := uuid.NewString()
	dir, err := os.MkdirTemp(st.root, "session-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	s := &Session{ID: id, dir: dir}

	st.mu.Lock()
	defer st.mu.Unlock()
	s.lastUsed = st.now()
	st.sessions[id] = s
	return s, nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops idle sessions and deletes their files. It returns how many were dropped.
func (st *Store) Sweep() int {
	if st.maxIdle <= 0 {
		return 0
	}
	st.mu.Lock()
	cutoff := st.now().Add(-st.maxIdle)
	var idle []*Session
	for id, s := range st.sessions {
		if s.lastUsed.Before(cutoff) {
			idle = append(idle, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range idle {
		// A handler may still be finishing with the session.
		s.mu.Lock()
		s.release()
		s.mu.Unlock()
		slog.Info("Dropped idle session.", "sessionId", s.ID)
	}
	return len(idle)
}
