package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/obsforge/obsforge/internal/config"
	"github.com/obsforge/obsforge/internal/repository"
)

// version is the reference binding's reported API version.
const version = "1"

// NewRouter builds the HTTP handler for every endpoint, backed by repo and
// cfg (the scheduler defaults applied when ingestion must run the
// prescheduler/scheduler itself, plus the analytics/validator settings
// applied to the ETL run that follows each ingest).
func NewRouter(repo repository.Repository, cfg *config.Config) http.Handler {
	h := &handlers{repo: repo, cfg: cfg}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(requestContext)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogging)
	r.Use(requestMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)

	r.Route("/schedules", func(r chi.Router) {
		r.Get("/", h.listSchedules)
		r.With(httprate.LimitByIP(30, time.Minute)).Post("/", h.ingestSchedule)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/sky-map", h.skyMap)
			r.Get("/distributions", h.distributions)
			r.Get("/timeline", h.timeline)
			r.Get("/insights", h.insights)
			r.Get("/trends", h.trends)
			r.Get("/validation-report", h.validationReport)
			r.Get("/compare/{other}", h.compare)
			r.Get("/visibility-map", h.visibilityMap)
			r.Get("/visibility-histogram", h.visibilityHistogram)
		})
	})

	return r
}
