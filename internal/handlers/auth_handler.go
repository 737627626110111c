package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sitepulse-io/sitepulse/internal/httputil"
	"github.com/sitepulse-io/sitepulse/internal/models"
	"github.com/sitepulse-io/sitepulse/internal/repository"
	"github.com/sitepulse-io/sitepulse/internal/service"
	"github.com/sitepulse-io/sitepulse/pkg/idtoken"
)

// AuthHandler exposes app registration and the API key lifecycle.
type AuthHandler struct {
	keys *service.KeyService
}

func NewAuthHandler(keys *service.KeyService) *AuthHandler {
	return &AuthHandler{keys: keys}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	app, err := h.keys.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNameRequired):
			httputil.WriteError(w, http.StatusBadRequest, "name required")
		case errors.Is(err, idtoken.ErrInvalidToken), errors.Is(err, idtoken.ErrNoSubject):
			httputil.WriteError(w, http.StatusBadRequest, "invalid identity token")
		default:
			httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, models.RegisterResponse{
		ID:        app.ID,
		APIKey:    app.APIKey,
		Name:      app.Name,
		ExpiresAt: app.ExpiresAt,
	})
}

func (h *AuthHandler) GetKey(w http.ResponseWriter, r *http.Request) {
	appID := r.URL.Query().Get("appId")
	ownerEmail := r.URL.Query().Get("ownerEmail")

	app, err := h.keys.Lookup(r.Context(), appID, ownerEmail)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLookupParamRequired):
			httputil.WriteError(w, http.StatusBadRequest, "appId or ownerEmail required")
		case errors.Is(err, repository.ErrAppNotFound):
			httputil.WriteError(w, http.StatusNotFound, "App not found")
		default:
			httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.KeyResponse{
		APIKey:    app.APIKey,
		Revoked:   app.Revoked,
		ExpiresAt: app.ExpiresAt,
	})
}

func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	var req models.KeyActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := h.keys.Revoke(r.Context(), req.APIKey); err != nil {
		writeKeyActionError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "API key revoked"})
}

func (h *AuthHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	var req models.KeyActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	app, err := h.keys.Regenerate(r.Context(), req.APIKey)
	if err != nil {
		writeKeyActionError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"apiKey": app.APIKey})
}

func writeKeyActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAPIKeyRequired):
		httputil.WriteError(w, http.StatusBadRequest, "apiKey required")
	case errors.Is(err, repository.ErrKeyNotFound):
		httputil.WriteError(w, http.StatusNotFound, "API key not found")
	default:
		httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
