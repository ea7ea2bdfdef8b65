package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/registryscout/registryscout/internal/classify"
	exporthttp "github.com/registryscout/registryscout/internal/export/http"
	"github.com/registryscout/registryscout/internal/observability"
	searchhttp "github.com/registryscout/registryscout/internal/search/http"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SearchHandler   *searchhttp.Handler
	ExportHandler   *exporthttp.Handler
	ClassifyHandler *classify.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	if params.SearchHandler != nil {
		params.SearchHandler.MountRoutes(r)
	}
	if params.ExportHandler != nil {
		params.ExportHandler.MountRoutes(r)
	}
	if params.ClassifyHandler != nil {
		params.ClassifyHandler.MountRoutes(r)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
