package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sitepulse-io/sitepulse/internal/models"
	"github.com/sitepulse-io/sitepulse/internal/repository"
	"github.com/sitepulse-io/sitepulse/pkg/apikey"
	"github.com/sitepulse-io/sitepulse/pkg/idtoken"
)

var (
	ErrNameRequired        = errors.New("name required")
	ErrLookupParamRequired = errors.New("appId or ownerEmail required")
	ErrAPIKeyRequired      = errors.New("apiKey required")
)

// KeyService owns the app registry and the API key lifecycle:
// registration, lookup, revocation and regeneration.
type KeyService struct {
	repo     repository.Repository
	verifier *idtoken.Verifier
}

// NewKeyService creates the key service. verifier may be nil when no
// trusted issuer is configured; registrations carrying an identity token
// are then rejected rather than accepted unverified.
func NewKeyService(repo repository.Repository, verifier *idtoken.Verifier) *KeyService {
	return &KeyService{
		repo:     repo,
		verifier: verifier,
	}
}

// Register creates an app with a fresh API key. ExpiresInDays, when
// positive, sets the key expiry relative to now. An identity token, when
// supplied, must verify against the trusted issuer; the verified subject
// is recorded on the app.
func (s *KeyService) Register(ctx context.Context, req *models.RegisterRequest) (*models.App, error) {
	if req.Name == "" {
		return nil, ErrNameRequired
	}

	var subject string
	if req.IdentityToken != "" {
		if s.verifier == nil {
			return nil, idtoken.ErrInvalidToken
		}
		sub, err := s.verifier.Verify(req.IdentityToken)
		if err != nil {
			return nil, err
		}
		subject = sub
	}

	var expiresAt *time.Time
	if req.ExpiresInDays > 0 {
		t := time.Now().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour)
		expiresAt = &t
	}

	appID, _ := uuid.NewV7()
	app := &models.App{
		ID:               appID.String(),
		Name:             req.Name,
		OwnerEmail:       req.OwnerEmail,
		APIKey:           apikey.New(),
		ExpiresAt:        expiresAt,
		CreatedAt:        time.Now(),
		FederatedSubject: subject,
	}

	if err := s.repo.CreateApp(ctx, app); err != nil {
		// A 128-bit collision is all but impossible; one retry covers it.
		if errors.Is(err, repository.ErrKeyConflict) {
			app.APIKey = apikey.New()
			err = s.repo.CreateApp(ctx, app)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to register app: %w", err)
		}
	}

	return app, nil
}

// Lookup finds an app by ID or owner email. At least one must be given;
// ID takes precedence when both are.
func (s *KeyService) Lookup(ctx context.Context, appID, ownerEmail string) (*models.App, error) {
	if appID == "" && ownerEmail == "" {
		return nil, ErrLookupParamRequired
	}

	if appID != "" {
		return s.repo.GetAppByID(ctx, appID)
	}
	return s.repo.GetAppByOwnerEmail(ctx, ownerEmail)
}

// Revoke marks the key's app as revoked. The key remains on record (and
// on past events) but the auth gate rejects it from now on.
func (s *KeyService) Revoke(ctx context.Context, key string) (*models.App, error) {
	if key == "" {
		return nil, ErrAPIKeyRequired
	}
	return s.repo.RevokeKey(ctx, key)
}

// Regenerate replaces the app's key with a fresh one and clears the
// revoked flag. The old key stops working immediately.
func (s *KeyService) Regenerate(ctx context.Context, key string) (*models.App, error) {
	if key == "" {
		return nil, ErrAPIKeyRequired
	}

	app, err := s.repo.ReplaceKey(ctx, key, apikey.New())
	if errors.Is(err, repository.ErrKeyConflict) {
		app, err = s.repo.ReplaceKey(ctx, key, apikey.New())
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}
