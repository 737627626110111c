package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sitepulse-io/sitepulse/internal/httputil"
	"github.com/sitepulse-io/sitepulse/internal/middleware"
	"github.com/sitepulse-io/sitepulse/internal/models"
	"github.com/sitepulse-io/sitepulse/internal/service"
)

// AnalyticsHandler exposes event ingestion and the two aggregate read
// views. All three routes sit behind the API key gate.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) Collect(w http.ResponseWriter, r *http.Request) {
	app, ok := middleware.AppFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var req models.CollectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := h.analytics.Collect(r.Context(), app, &req, getClientIP(r)); err != nil {
		if errors.Is(err, service.ErrEventNameRequired) {
			httputil.WriteError(w, http.StatusBadRequest, "event required")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"message": "event recorded"})
}

func (h *AnalyticsHandler) EventSummary(w http.ResponseWriter, r *http.Request) {
	query := models.SummaryQuery{
		Event: r.URL.Query().Get("event"),
		AppID: r.URL.Query().Get("app_id"),
		Start: parseDate(r.URL.Query().Get("startDate")),
		End:   parseDate(r.URL.Query().Get("endDate")),
	}

	summary, err := h.analytics.EventSummary(r.Context(), query)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *AnalyticsHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.UserStats(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		if errors.Is(err, service.ErrUserIDRequired) {
			httputil.WriteError(w, http.StatusBadRequest, "userId required")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

// parseDate accepts RFC 3339 timestamps and plain dates. Anything else
// is treated as absent; a bad filter widens the query instead of
// failing it.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// getClientIP prefers the X-Forwarded-For chain set by proxies and falls
// back to the connection's remote address.
func getClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx != -1 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
