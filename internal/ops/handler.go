package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyunsoolee/aptpulse/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is a dependency that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams configure the worker's ops listener.
type RouterParams struct {
	Logger *logger.Logger
	DB     Pinger
	Redis  Pinger
}

// NewRouter exposes the operational surface of a worker: liveness with
// dependency checks and Prometheus metrics.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", healthHandler(params))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func healthHandler(params RouterParams) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		for name, dep := range map[string]Pinger{"db": params.DB, "redis": params.Redis} {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = err.Error()
				healthy = false
				if params.Logger != nil {
					params.Logger.Warn(ctx, "health check failed: "+name)
				}
				continue
			}
			checks[name] = "ok"
		}

		status := http.StatusOK
		body := map[string]any{"status": "ok", "checks": checks}
		if !healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
