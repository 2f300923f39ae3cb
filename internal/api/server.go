package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/permutive/signalbridge/internal/config"
	"github.com/permutive/signalbridge/internal/middleware"
	"github.com/permutive/signalbridge/internal/observability"
	"github.com/permutive/signalbridge/internal/signal"
	"github.com/permutive/signalbridge/internal/store"
)

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger  *zap.Logger
	Store   *store.Redis
	Engine  *signal.Engine
	Metrics observability.MetricsRegistry
	Config  config.Config
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, st *store.Redis, engine *signal.Engine, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	return &Server{
		Logger:  logger,
		Store:   st,
		Engine:  engine,
		Metrics: metrics,
		Config:  cfg,
	}
}

// Routes builds the HTTP router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(s.Logger))

	r.HandleFunc("/v1/enrich", s.EnrichHandler).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}
