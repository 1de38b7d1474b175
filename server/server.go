// Package server exposes a journal over HTTP: select queries, report
// commands and the account list, plus a Server-Sent Events stream that
// announces when the journal was reloaded after its files changed.
//
// SECURITY WARNING: The server has no authentication and should only be
// bound to localhost (127.0.0.1). It never writes to the journal.
package server

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/robinvdvleuten/ledger/logging"
	"github.com/robinvdvleuten/ledger/session"
	"github.com/robinvdvleuten/ledger/telemetry"
)

// Server serves one session over HTTP.
type Server struct {
	Host         string
	Port         int
	Version      string
	WatchEnabled bool

	base  *session.Context
	files []string

	// mu guards the session; commands mutate the journal's report data.
	mu      sync.Mutex
	session *session.Session
	sources []string

	sseMu      sync.Mutex
	sseClients map[chan string]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithPort sets the listening port.
func WithPort(port int) Option {
	return func(s *Server) {
		s.Port = port
	}
}

// WithVersion sets the version reported by /api/info.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.Version = version
	}
}

// WithWatch reloads the journal when one of its files changes.
func WithWatch(enabled bool) Option {
	return func(s *Server) {
		s.WatchEnabled = enabled
	}
}

// New creates a server for the journal files.
func New(base *session.Context, files []string, opts ...Option) *Server {
	s := &Server{
		Host:       "127.0.0.1",
		Port:       8080,
		base:       base,
		files:      files,
		sseClients: make(map[chan string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr is the listening address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// Start loads the journal and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	timer := telemetry.Start(ctx, "server.start "+s.Addr())
	defer timer.End()

	loadTimer := timer.Child("server.load_journal")
	if err := s.reload(ctx); err != nil {
		loadTimer.End()
		return fmt.Errorf("failed to load journal: %w", err)
	}
	loadTimer.End()

	if s.WatchEnabled {
		if err := s.startWatcher(ctx); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/info", s.handleInfo)
	mux.HandleFunc("GET /api/query", s.handleQuery)
	mux.HandleFunc("POST /api/command", s.handleCommand)
	mux.HandleFunc("GET /api/accounts", s.handleAccounts)
	mux.HandleFunc("GET /api/events", s.handleSSE)
	return mux
}

// reload reads the journal into a fresh session and swaps it in. A failed
// read keeps the previous session.
func (s *Server) reload(ctx context.Context) error {
	sess := session.New(s.base.Clone(),
		session.WithFiles(s.files...),
		session.WithOutput(&bytes.Buffer{}),
		session.WithErrorOutput(&bytes.Buffer{}),
	)
	if _, err := sess.ReadJournalFiles(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.session = sess
	s.sources = append([]string(nil), sess.Journal.Sources...)
	s.mu.Unlock()
	return nil
}

// execute runs args on the current session with its output captured.
func (s *Server) execute(ctx context.Context, args []string) session.Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out, errOut bytes.Buffer
	s.session.Out, s.session.Err = &out, &errOut
	status := s.session.ExecuteCommandWrapper(ctx, args)
	return session.Response{Output: out.String(), Error: errOut.String(), Status: status}
}

func (s *Server) startWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	s.mu.Lock()
	files := append([]string(nil), s.sources...)
	s.mu.Unlock()

	log := logging.FromContext(ctx)
	for _, file := range files {
		if err := watcher.Add(file); err != nil {
			log.Warn("Failed to watch file", "file", file, "error", err)
		}
	}

	go s.runWatcher(ctx, watcher)
	return nil
}

// debounceDelay absorbs editors that save a file in several writes.
const debounceDelay = 100 * time.Millisecond

func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// atomic saves show up as remove or rename
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(ctx, watcher)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.FromContext(ctx).Warn("File watcher error", "error", err)
		}
	}
}

// handleFileChange reloads the journal, moves the watches to its current
// sources and tells the clients.
func (s *Server) handleFileChange(ctx context.Context, watcher *fsnotify.Watcher) {
	log := logging.FromContext(ctx)

	s.mu.Lock()
	old := make(map[string]bool, len(s.sources))
	for _, f := range s.sources {
		old[f] = true
	}
	s.mu.Unlock()

	if err := s.reload(ctx); err != nil {
		log.Warn("Failed to reload journal", "error", err)
		s.broadcast("error")
		return
	}

	s.mu.Lock()
	current := append([]string(nil), s.sources...)
	s.mu.Unlock()

	seen := make(map[string]bool, len(current))
	for _, f := range current {
		seen[f] = true
		// re-add to catch files that were re-created
		if err := watcher.Add(f); err != nil {
			log.Warn("Failed to watch file", "file", f, "error", err)
		}
	}
	for f := range old {
		if !seen[f] {
			_ = watcher.Remove(f)
		}
	}

	log.Info("Reloaded journal", "files", len(current))
	s.broadcast("reload")
}
