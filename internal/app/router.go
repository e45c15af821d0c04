package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawshaus/pawshaus/internal/booking"
	"github.com/pawshaus/pawshaus/internal/calendar"
	"github.com/pawshaus/pawshaus/internal/observability"
	"github.com/pawshaus/pawshaus/internal/pricing"
	"github.com/pawshaus/pawshaus/jobs"
	"github.com/pawshaus/pawshaus/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	PricingHandler *pricing.Handler
	BookingHandler *booking.Handler
	CalendarFeed   *calendar.Feed
	ReportHandler  *report.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
	Pool           *pgxpool.Pool
}

// NewRouter constructs the chi.Router with application defaults.
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

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				params.Logger.Warn("readiness probe failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if params.PricingHandler != nil {
			params.PricingHandler.MountPublicRoutes(api)
		}
		if params.BookingHandler != nil {
			params.BookingHandler.MountRoutes(api)
		}

		api.Route("/admin", func(admin chi.Router) {
			if params.Config != nil && params.Config.AdminTokenHash != "" {
				admin.Use(AdminAuth(params.Logger, params.Config.AdminTokenHash))
			}
			if params.PricingHandler != nil {
				params.PricingHandler.MountAdminRoutes(admin)
			}
			if params.CalendarFeed != nil {
				params.CalendarFeed.MountRoutes(admin)
			}
			if params.ReportHandler != nil {
				admin.Route("/reports", func(rr chi.Router) {
					params.ReportHandler.MountRoutes(rr)
				})
			}
			if params.JobHandler != nil {
				admin.Route("/jobs", func(jr chi.Router) {
					params.JobHandler.MountRoutes(jr)
				})
			}
		})
	})

	return r
}
