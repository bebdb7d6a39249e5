// Package api is the HTTP service facade: it validates inputs, resolves
// the Auth-Key header to a domain, and dispatches to the Indexer or Query
// Engine. It holds no domain logic of its own.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/peterbecom/autocompeter/internal/audit"
	"github.com/peterbecom/autocompeter/internal/authstore"
	"github.com/peterbecom/autocompeter/internal/indexer"
	"github.com/peterbecom/autocompeter/internal/query"
	"github.com/peterbecom/autocompeter/pkg/types"
)

// Server is the HTTP server for the autocomplete service.
type Server struct {
	config  types.ServerConfig
	query   types.QueryConfig
	auth    *authstore.Store
	indexer *indexer.Indexer
	engine  *query.Engine
	emitter *audit.Emitter

	httpServer   *http.Server
	startTime    time.Time
	requestCount atomic.Uint64
}

// NewServer wires a Server's dependencies.
func NewServer(
	serverConfig types.ServerConfig,
	queryConfig types.QueryConfig,
	auth *authstore.Store,
	ix *indexer.Indexer,
	engine *query.Engine,
	emitter *audit.Emitter,
) *Server {
	return &Server{
		config:    serverConfig,
		query:     queryConfig,
		auth:      auth,
		indexer:   ix,
		engine:    engine,
		emitter:   emitter,
		startTime: time.Now(),
	}
}

// Start begins serving HTTP on the configured port. It blocks until the
// server stops (returning http.ErrServerClosed after a Shutdown).
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/v1", s.handleV1)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)

	handler := s.loggingMiddleware(mux)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server, honoring ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, lrw.statusCode, time.Since(start))
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.requestCount.Add(1)
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "autocompeter")
}

func (s *Server) handleV1(w http.ResponseWriter, r *http.Request) {
	s.requestCount.Add(1)
	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	domain := q.Get("d")
	if domain == "" {
		http.Error(w, "missing d", http.StatusBadRequest)
		return
	}

	n := s.query.DefaultMaxResults
	if raw := q.Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid n", http.StatusBadRequest)
			return
		}
		if parsed <= 0 {
			n = s.query.DefaultMaxResults
		} else if parsed > s.query.MaxResultsCap {
			n = s.query.MaxResultsCap
		} else {
			n = parsed
		}
	}

	var groups []string
	if raw := q.Get("g"); raw != "" {
		for _, g := range strings.Split(raw, ",") {
			if g = strings.TrimSpace(g); g != "" {
				groups = append(groups, g)
			}
		}
	}

	resp, err := s.engine.Get(r.Context(), domain, q.Get("q"), n, groups)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.emitter != nil {
		s.emitter.Emit(audit.Event{Type: audit.Queried, Domain: domain, Query: q.Get("q"), Results: len(resp.Results)})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	domain, ok := s.resolveAuth(r)
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	url := strings.TrimSpace(r.FormValue("url"))
	if url == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	popularity := 0.0
	if raw := r.FormValue("popularity"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			http.Error(w, "invalid popularity", http.StatusBadRequest)
			return
		}
		popularity = parsed
	}

	var groups []string
	if raw := r.FormValue("groups"); raw != "" {
		groups = strings.Split(raw, ",")
	}

	doc := types.Document{
		URL:        url,
		Title:      r.FormValue("title"),
		Popularity: popularity,
		Groups:     groups,
	}

	if err := s.indexer.Put(r.Context(), domain, doc); err != nil {
		s.writeError(w, err)
		return
	}

	if s.emitter != nil {
		s.emitter.Emit(audit.Event{Type: audit.Indexed, Domain: domain, URL: url})
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	domain, ok := s.resolveAuth(r)
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if err := s.indexer.Delete(r.Context(), domain, url); err != nil {
		s.writeError(w, err)
		return
	}

	if s.emitter != nil {
		s.emitter.Emit(audit.Event{Type: audit.Deleted, Domain: domain, URL: url})
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resolveAuth(r *http.Request) (string, bool) {
	return s.auth.Resolve(r.Header.Get("Auth-Key"))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrInvalidArg):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, types.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrStorageIO), errors.Is(err, types.ErrStorageCorrupt):
		status = http.StatusInternalServerError
	}
	log.Printf("error: %v", err)
	w.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
