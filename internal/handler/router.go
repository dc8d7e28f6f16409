package handler

import (
	"net/http"
	"time"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/infra/observability"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// verifier may be nil, which leaves recap routes unauthenticated.
// allowedOrigins enables CORS for browser clients on other origins.
func NewRouter(svc *service.RecapService, verifier *service.TokenVerifier, metrics *observability.Metrics, allowedOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition", exportIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Recap page ---
	// GET /rekap/{ownerId}/{month}?kategori=
	r.With(OwnerAuthMiddleware(verifier, logger)).
		Get("/rekap/{ownerId}/{month}", recapPageHandler(svc, logger))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/recap", recapMetricsHandler(metrics))

		r.Route("/owners/{ownerId}/recaps/{month}", func(r chi.Router) {
			r.Use(OwnerAuthMiddleware(verifier, logger))

			r.Get("/", getRecapHandler(svc, logger))
			r.Get("/state", recapStateHandler(svc, logger))
			r.Get("/export", exportRecapHandler(svc, logger))
		})
	})

	return r
}

func healthzHandler(svc *service.RecapService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "rekap-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if svc != nil {
			start := time.Now()
			err := svc.Ping(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("health: expense store probe failed", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func recapMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetRecapSnapshot())
	}
}
