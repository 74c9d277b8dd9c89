// Package api serves the dashboard JSON API on top of the same services the
// Zeebe workers run.
package api

import (
	"context"

	"ewaybill-workers/internal/models"
	bulkextend "ewaybill-workers/internal/workers/ewaybill/bulk-extend"
	extendvalidity "ewaybill-workers/internal/workers/ewaybill/extend-validity"
	fetchewaybill "ewaybill-workers/internal/workers/ewaybill/fetch-ewaybill"
	searchexpiring "ewaybill-workers/internal/workers/ewaybill/search-expiring"
	updatepartb "ewaybill-workers/internal/workers/ewaybill/update-part-b"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type BulkExtender interface {
	Execute(ctx context.Context, input *bulkextend.Input) (*models.BatchResult, error)
}

type SingleExtender interface {
	Execute(ctx context.Context, input *extendvalidity.Input) (*models.ExtensionOutcome, error)
}

type PartBUpdater interface {
	Execute(ctx context.Context, input *updatepartb.Input) (*updatepartb.Output, error)
}

type Fetcher interface {
	Execute(ctx context.Context, input *fetchewaybill.Input) (*fetchewaybill.Output, error)
}

type ExpirySearcher interface {
	Execute(ctx context.Context, input *searchexpiring.Input) (*searchexpiring.Output, error)
}

// ReadinessCheck reports whether a backing dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// Services are the operations exposed over HTTP. A nil service leaves its
// routes answering 503.
type Services struct {
	BulkExtend   BulkExtender
	Extend       SingleExtender
	UpdatePartB  PartBUpdater
	Fetch        Fetcher
	SearchExpiry ExpirySearcher
}

type Server struct {
	services Services
	checks   map[string]ReadinessCheck
	logger   *zap.Logger
}

func NewServer(services Services, checks map[string]ReadinessCheck, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{services: services, checks: checks, logger: log}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(LoggingMiddleware(s.logger))

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/ewaybills", func(r chi.Router) {
		r.Get("/", s.searchExpiring)
		r.Post("/bulk-extend", s.bulkExtend)
		r.Get("/{ewbNo}", s.fetch)
		r.Post("/{ewbNo}/extend", s.extend)
		r.Post("/{ewbNo}/part-b", s.updatePartB)
	})

	return r
}
