// Package api implements the development audit service: the HTTP API the
// editor clients talk to, plus a WebSocket bridge that runs a session
// controller on behalf of a remote editor.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sprite-ai/auditor/internal/client"
	"github.com/sprite-ai/auditor/internal/store"
)

// Repo is the version-control view used by transform.
type Repo interface {
	Head(ctx context.Context) (string, error)
	AddedLines(ctx context.Context, commit, fileName string) ([]int, error)
}

// Server is the audit HTTP API server.
type Server struct {
	addr   string
	mux    *http.ServeMux
	server *http.Server
	logger *slog.Logger

	store            store.Store
	repo             Repo
	repoPath         string
	extensions       []string
	excludedPrefixes []string
	bridge           *client.Client
}

// Option configures a Server.
type Option func(*Server)

// WithStore sets the persistence backend. The default is in memory.
func WithStore(st store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithRepo enables transform against a git working tree.
func WithRepo(r Repo) Option {
	return func(s *Server) { s.repo = r }
}

// WithRepoPath strips path from the front of incoming file names, so
// absolute editor paths map onto repository-relative ones.
func WithRepoPath(path string) Option {
	return func(s *Server) { s.repoPath = path }
}

// WithExtensions limits the info overview to files with these suffixes.
func WithExtensions(exts []string) Option {
	return func(s *Server) { s.extensions = exts }
}

// WithExcludedPrefixes hides files under these paths from the overview.
func WithExcludedPrefixes(prefixes []string) Option {
	return func(s *Server) { s.excludedPrefixes = prefixes }
}

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithBridgeClient sets the client WebSocket sessions use to reach the
// service. Without one the bridge is disabled.
func WithBridgeClient(c *client.Client) Option {
	return func(s *Server) { s.bridge = c }
}

// New creates a new API server.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:   addr,
		logger: slog.Default(),
		store:  store.NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.handle("GET /health", s.handleHealth)
	s.handle("GET /reviews", s.handleGetReviews)
	s.handle("POST /reviews", s.handleMarkReviews)
	s.handle("POST /transform", s.handleTransform)
	s.handle("GET /comments", s.handleGetComments)
	s.handle("POST /comments", s.handleCreateComment)
	s.handle("DELETE /comments", s.handleDeleteComment)
	s.handle("POST /metadata", s.handleMetadata)
	s.handle("GET /info", s.handleInfo)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, instrument(pattern, h))
}

// ListenAndServe starts the HTTP server and stops it when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("audit service listening", "addr", s.addr)
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// fileName maps an incoming name to the stored one.
func (s *Server) fileName(name string) string {
	if s.repoPath == "" {
		return name
	}
	root := strings.TrimRight(s.repoPath, "/")
	if name == root {
		return ""
	}
	if rest, ok := strings.CutPrefix(name, root+"/"); ok {
		return rest
	}
	return name
}

// listed reports whether fileName belongs in the info overview.
func (s *Server) listed(fileName string) bool {
	for _, prefix := range s.excludedPrefixes {
		if strings.HasPrefix(fileName, prefix) {
			return false
		}
	}
	if len(s.extensions) == 0 {
		return true
	}
	for _, ext := range s.extensions {
		if strings.HasSuffix(fileName, "."+strings.TrimPrefix(ext, ".")) {
			return true
		}
	}
	return false
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode error", "error", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
