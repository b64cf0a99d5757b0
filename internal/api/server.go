// Package api exposes the enrichment pipeline and the run log over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/equitle/enrichment-cli/internal/enrich"
	"github.com/equitle/enrichment-cli/internal/store"
)

// DefaultMaxUploadBytes is the upload limit when none is configured.
const DefaultMaxUploadBytes = 10 << 20

// Options configures a Server.
type Options struct {
	// Enricher runs uploads. When nil the enrichment endpoints answer 500
	// because no provider credentials are configured.
	Enricher *enrich.Enricher
	// Runs serves the run log endpoints. Nil disables them.
	Runs           store.Store
	MaxUploadBytes int64
	AllowedOrigins []string
}

// Server routes HTTP requests to the enrichment pipeline.
type Server struct {
	enricher  *enrich.Enricher
	runs      store.Store
	maxUpload int64
	router    chi.Router
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		enricher:  opts.Enricher,
		runs:      opts.Runs,
		maxUpload: opts.MaxUploadBytes,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", runIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/data-enrichment", func(r chi.Router) {
			r.Post("/enrich-file", s.handleEnrichFile)
			r.Post("/enrich-single", s.handleEnrichSingle)
			r.Post("/validate-key", s.handleValidateKey)
			r.Get("/sample", s.handleSample)
		})
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			zap.L().Info("api: request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
