package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sitepulse-io/sitepulse/internal/handlers"
	"github.com/sitepulse-io/sitepulse/internal/httputil"
	"github.com/sitepulse-io/sitepulse/internal/middleware"
	"github.com/sitepulse-io/sitepulse/internal/repository"
)

// NewRouter constructs a ServeMux with all API routes registered. The
// analytics routes sit behind the API key gate; the auth routes do not.
func NewRouter(auth *handlers.AuthHandler, analytics *handlers.AnalyticsHandler, repo repository.Repository) http.Handler {
	mux := http.NewServeMux()
	gate := middleware.APIKeyAuth(repo)

	// Key lifecycle endpoints
	mux.HandleFunc("POST /api/v1/auth/register", auth.Register)
	mux.HandleFunc("GET /api/v1/auth/key", auth.GetKey)
	mux.HandleFunc("POST /api/v1/auth/revoke", auth.Revoke)
	mux.HandleFunc("POST /api/v1/auth/regenerate", auth.Regenerate)

	// Ingestion is gated per request; the read views are open.
	mux.HandleFunc("POST /api/v1/analytics/collect", gate(analytics.Collect))
	mux.HandleFunc("GET /api/v1/analytics/event-summary", analytics.EventSummary)
	mux.HandleFunc("GET /api/v1/analytics/user-stats", analytics.UserStats)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
