package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"forecast-studio/internal/config"
	"forecast-studio/internal/logging"
	"forecast-studio/internal/metrics"
	"forecast-studio/internal/service"
	"forecast-studio/internal/state"
)

type Handler struct {
	cfg      *config.Config
	sessions *state.SessionStore
	pipeline *service.Pipeline
	logger   *logrus.Logger
	metrics  *metrics.Metrics

	// connectDB opens the Postgres source for /api/db/load.
	connectDB func(ctx context.Context, cfg service.DataSourceConfig) (service.DataSource, error)
}

func NewHandler(cfg *config.Config, sessions *state.SessionStore, pipeline *service.Pipeline, logger *logrus.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		cfg:      cfg,
		sessions: sessions,
		pipeline: pipeline,
		logger:   logger,
		metrics:  m,
		connectDB: func(ctx context.Context, dsc service.DataSourceConfig) (service.DataSource, error) {
			return service.ConnectPostgres(ctx, dsc)
		},
	}
}

// NewRouter wires middleware and every route.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(h.logger))
	r.Use(h.metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(h.withSession)

		// Page
		r.Get("/", h.Page)
		r.Post("/upload", h.PageUpload)
		r.Get("/charts/history", h.HistoryChart)
		r.Get("/charts/forecast", h.ForecastChart)
		r.Get("/charts/components.png", h.ComponentsImage)
		r.Get("/download/predicciones.csv", h.DownloadCSV)
		r.Get("/download/predicciones.xlsx", h.DownloadXLSX)

		// JSON API
		r.Route("/api", func(r chi.Router) {
			r.Post("/upload", h.APIUpload)
			r.Get("/status", h.APIStatus)
			r.Get("/preview", h.APIPreview)
			r.Get("/column-types", h.APIColumnTypes)
			r.Get("/categories", h.APICategories)
			r.Get("/metrics", h.APIMetrics)
			r.Post("/forecast", h.APIForecast)
			r.Post("/db/load", h.APIDBLoad)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}
