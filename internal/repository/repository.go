package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sitepulse-io/sitepulse/internal/models"
)

var (
	ErrAppNotFound = errors.New("app not found")
	ErrKeyNotFound = errors.New("API key not found")
	ErrKeyConflict = errors.New("API key already exists")
)

// EventFilter narrows an event scan. Zero-value fields are ignored;
// Start and End are inclusive timestamp bounds.
type EventFilter struct {
	Name  string
	AppID string
	Start *time.Time
	End   *time.Time
}

// Repository is the persistence contract for the key store and the
// event store. Events are append-only: there is deliberately no update
// or delete method for them.
type Repository interface {
	CreateApp(ctx context.Context, app *models.App) error
	GetAppByID(ctx context.Context, id string) (*models.App, error)
	GetAppByOwnerEmail(ctx context.Context, email string) (*models.App, error)
	GetAppByKey(ctx context.Context, apiKey string) (*models.App, error)

	// RevokeKey marks the app holding apiKey as revoked and returns it.
	RevokeKey(ctx context.Context, apiKey string) (*models.App, error)

	// ReplaceKey swaps oldKey for newKey on the owning app and clears the
	// revoked flag, as a single atomic update. Returns the updated app.
	ReplaceKey(ctx context.Context, oldKey, newKey string) (*models.App, error)

	InsertEvent(ctx context.Context, event *models.Event) error
	QueryEvents(ctx context.Context, filter EventFilter) ([]*models.Event, error)

	// RecentEventsByUser returns up to limit events for userID ordered by
	// timestamp descending.
	RecentEventsByUser(ctx context.Context, userID string, limit int) ([]*models.Event, error)

	// CountEventsByUser returns the lifetime event count for userID,
	// independent of any recent-events window.
	CountEventsByUser(ctx context.Context, userID string) (int64, error)
}
