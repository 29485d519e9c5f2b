// Package server exposes the pipelines over HTTP and reports health over gRPC.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/docintel/internal/auth"
	"github.com/joseph-ayodele/docintel/internal/diagnostics"
	"github.com/joseph-ayodele/docintel/internal/metrics"
	"github.com/joseph-ayodele/docintel/internal/scan"
)

// Scanner runs the on-demand scan. *scan.Pipeline satisfies it.
type Scanner interface {
	Scan(ctx context.Context, userID string, req scan.Request) (*scan.Result, error)
}

// Diagnoser produces a dependency report. *diagnostics.Checker satisfies it.
type Diagnoser interface {
	Run(ctx context.Context, requestID string) diagnostics.Report
}

// Exporter renders a user's review queue. *export.Service satisfies it.
type Exporter interface {
	ReviewQueueXLSX(ctx context.Context, userID string) ([]byte, error)
}

type RouterDeps struct {
	Scanner       Scanner
	Diagnostics   Diagnoser
	Exporter      Exporter
	Authenticator auth.Authenticator
	Metrics       *metrics.Recorder
	AccessLog     *zap.Logger
	Logger        *slog.Logger
}

// NewRouter builds the HTTP surface. Preflight requests from any origin get a 204.
func NewRouter(deps RouterDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Authenticator == nil {
		deps.Authenticator = auth.NoneAuthenticator{}
	}
	h := &handlers{deps: deps, logger: deps.Logger}

	router := chi.NewRouter()

	if deps.Metrics != nil {
		mm := metrics.NewMiddleware("docintel")
		mm.MustRegister(deps.Metrics.Registerer())
		router.Use(mm.Handler)
	}
	router.Use(
		cors.Handler(cors.Options{
			AllowedOrigins:     []string{"*"},
			AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:     []string{"*"},
			ExposedHeaders:     []string{requestIDHeader},
			OptionsPassthrough: true,
			MaxAge:             300,
		}),
		preflight,
		RequestID,
		AccessLog(deps.AccessLog),
		chimiddleware.Recoverer,
		auth.Middleware(deps.Authenticator, deps.Logger),
	)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Route("/v1", func(r chi.Router) {
		r.Post("/scan", h.scan)
		r.Get("/diagnostics", h.diagnostics)
		r.Get("/review-queue.xlsx", h.reviewQueue)
	})
	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	return router
}

// preflight answers OPTIONS requests after the CORS headers are set.
func preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
