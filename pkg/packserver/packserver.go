// Package packserver publishes a local pack directory over HTTP in the
// layout the HTTP pack source reads:
//
//	GET /index.json
//	GET /{pack}/manifest.json
//	GET /{pack}/components/{dir}/{file}
//
// Requests may be required to carry a bearer token. When a Prometheus
// gatherer is configured, /metrics exposes it.
package packserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/zcc/pkg/errors"
	"github.com/arthur-debert/zcc/pkg/logging"
	"github.com/arthur-debert/zcc/pkg/packs/manifest"
	"github.com/arthur-debert/zcc/pkg/packs/sources"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// shutdownTimeout bounds how long Serve waits for in-flight requests.
const shutdownTimeout = 5 * time.Second

// Options configure a Server.
type Options struct {
	// Token, when set, must be presented as "Authorization: Bearer <token>".
	Token string
	// Gatherer enables /metrics.
	Gatherer prometheus.Gatherer
}

// IndexEntry is one pack in /index.json.
type IndexEntry struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Index is the /index.json document.
type Index struct {
	Packs []IndexEntry `json:"packs"`
}

// Server serves the packs of a local source.
type Server struct {
	source *sources.Local
	opts   Options
	router chi.Router
}

// New creates a server for the packs in source.
func New(source *sources.Local, opts Options) *Server {
	s := &Server{source: source, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Group(func(r chi.Router) {
		if opts.Token != "" {
			r.Use(bearerAuth(opts.Token))
		}
		r.Use(rejectDotSegments)
		r.Get("/"+sources.IndexFile, s.handleIndex)
		r.Get("/{pack}/"+manifest.FileName, s.handleManifest)
		r.Get("/{pack}/components/{dir}/{file}", s.handleComponent)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	logger := logging.GetLogger("packserver")
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("root", s.source.Root()).Msg("serving packs")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrapf(err, errors.ErrPermissionOrIO, "cannot serve on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down pack server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	names, err := s.source.ListPacks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	index := Index{Packs: []IndexEntry{}}
	for _, name := range names {
		structure, err := s.source.LoadPack(r.Context(), name)
		if err != nil {
			logger := logging.GetLogger("packserver")
			logger.Warn().Err(err).Str("pack", name).Msg("leaving invalid pack out of the index")
			continue
		}
		index.Packs = append(index.Packs, IndexEntry{
			Name:        name,
			Version:     structure.Manifest.Version,
			Description: structure.Manifest.Description,
		})
	}
	writeJSON(w, index)
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	structure, err := s.source.LoadPack(r.Context(), chi.URLParam(r, "pack"))
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := manifest.Encode(structure.Manifest)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	pack, dir, file := chi.URLParam(r, "pack"), chi.URLParam(r, "dir"), chi.URLParam(r, "file")

	componentType, err := manifest.ParseComponentType(dir)
	if err != nil || componentType.Dir() != dir {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSuffix(file, filepath.Ext(file))
	if componentType.FileName(name) != file {
		http.NotFound(w, r)
		return
	}

	data, err := s.source.ComponentContent(r.Context(), pack, componentType, name)
	if err != nil {
		writeError(w, err)
		return
	}
	if componentType == manifest.ComponentHook {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	}
	_, _ = w.Write(data)
}

func bearerAuth(token string) func(http.Handler) http.Handler {
	want := []byte("Bearer " + token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="zcc"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rejectDotSegments refuses paths that could leave the pack root.
func rejectDotSegments(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, segment := range strings.Split(r.URL.Path, "/") {
			if strings.HasPrefix(segment, ".") {
				http.NotFound(w, r)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger := logging.GetLogger("packserver")
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := logging.GetLogger("packserver")
		logger.Error().Err(err).Msg("cannot encode response")
	}
}

// writeError maps error codes to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetErrorCode(err) {
	case errors.ErrNotFound, errors.ErrFileNotFound:
		status = http.StatusNotFound
	case errors.ErrInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrInvalidManifest, errors.ErrInvalidJSON:
		status = http.StatusUnprocessableEntity
	}
	http.Error(w, err.Error(), status)
}
