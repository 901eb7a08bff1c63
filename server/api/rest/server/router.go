package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/server/metrics"
)

type APIRouter struct {
	chi.Router
}

// NewAPIRouter assembles the full route tree. The webhook intake and the
// health check sit at the root; everything the dashboard consumes is under
// /api. The SSE stream routes skip the request timeout since they hold
// their connection open indefinitely.
func NewAPIRouter(
	root *RootAPI,
	webhook *WebhookAPI,
	job *JobAPI,
	project *ProjectAPI,
	stats *StatsAPI,
	config *ConfigAPI,
	stream *StreamAPI,
	serverMetrics *metrics.Metrics,
	logFactory logger.LogFactory,
) *APIRouter {

	logger := logFactory("APIRouter")
	middleware.DefaultLogger = middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)

	r.Get("/", root.Get)
	r.Post("/webhook", webhook.HandleWebhook)
	r.Method(http.MethodGet, "/metrics", serverMetrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300, // Maximum value not ignored by any of major browsers
		}))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/jobs", func(r chi.Router) {
				r.Get("/", job.List)
				r.Route("/{job_id}", func(r chi.Router) {
					r.Get("/", job.Get)
					r.Get("/logs", job.GetLogs)
				})
			})
			r.Get("/projects", project.List)
			r.Get("/stats", stats.Get)
			r.Get("/config/current", config.GetCurrent)
			r.Post("/reload", config.Reload)
		})

		r.Route("/stream", func(r chi.Router) {
			r.Get("/jobs", stream.StreamJobs)
			r.Get("/logs", stream.StreamLogs)
		})
	})
	return &APIRouter{Router: r}
}
