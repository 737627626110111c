package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sitepulse-io/sitepulse/internal/httputil"
	"github.com/sitepulse-io/sitepulse/internal/metrics"
	"github.com/sitepulse-io/sitepulse/internal/models"
	"github.com/sitepulse-io/sitepulse/internal/repository"
)

const appKey = contextKey("app")

// APIKeyAuth gates ingestion behind a valid API key. The key is taken
// from the X-API-Key header or the api_key query parameter. Validity is
// re-checked against the key store on every request; nothing is cached.
//
// Missing key -> 401. Unknown, revoked or expired key -> 403. The
// resolved app is attached to the request context for the handler to
// denormalize onto the stored event.
func APIKeyAuth(repo repository.Repository) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				apiKey = r.URL.Query().Get("api_key")
			}
			if apiKey == "" {
				metrics.AuthFailures.WithLabelValues("missing").Inc()
				httputil.WriteError(w, http.StatusUnauthorized, "API key missing")
				return
			}

			app, err := repo.GetAppByKey(r.Context(), apiKey)
			if err != nil {
				if errors.Is(err, repository.ErrKeyNotFound) {
					metrics.AuthFailures.WithLabelValues("unknown").Inc()
					httputil.WriteError(w, http.StatusForbidden, "Invalid or revoked API key")
					return
				}
				httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if app.Revoked {
				metrics.AuthFailures.WithLabelValues("revoked").Inc()
				httputil.WriteError(w, http.StatusForbidden, "Invalid or revoked API key")
				return
			}

			if app.KeyExpired(time.Now()) {
				metrics.AuthFailures.WithLabelValues("expired").Inc()
				httputil.WriteError(w, http.StatusForbidden, "API key expired")
				return
			}

			ctx := context.WithValue(r.Context(), appKey, app)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// AppFromContext returns the app resolved by APIKeyAuth, if any.
func AppFromContext(ctx context.Context) (*models.App, bool) {
	app, ok := ctx.Value(appKey).(*models.App)
	return app, ok
}
