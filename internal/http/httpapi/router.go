package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"studymate/internal/http/handlers"
	"studymate/internal/infra"
	"studymate/internal/middleware"
)

// NewRouter wires the HTTP surface. Everything under /v1 except the health
// check requires a bearer token; generation and ingestion are additionally
// rate limited per user.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.Locale,
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))

		r.Get("/v1/usage", app.GetUsage)

		r.Route("/v1/notes", func(r chi.Router) {
			r.With(limiter.Middleware).Post("/", app.CreateNote)
			r.Get("/{id}", app.GetNote)
		})

		r.Route("/v1/learning-tools", func(r chi.Router) {
			r.With(limiter.Middleware).Post("/", app.GenerateLearningTool)
			r.Get("/", app.ListLearningTools)
			r.Get("/{id}", app.GetLearningTool)
			r.Get("/{id}/export", app.ExportLearningTool)
			r.Delete("/{id}", app.DeleteLearningTool)
		})
	})

	if cfg.StorageBaseURL != "" && cfg.StoragePath != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StoragePath)))
		r.Handle("/static/*", fs)
	}

	return r
}
