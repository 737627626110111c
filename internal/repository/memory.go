package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/sitepulse-io/sitepulse/internal/models"
)

// InMemoryRepository is a map-backed Repository used for tests and for
// running without a database (database.type=memory).
type InMemoryRepository struct {
	apps        map[string]*models.App // by ID
	appsByKey   map[string]*models.App
	appsByEmail map[string]*models.App
	events      []*models.Event
	mu          sync.RWMutex
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		apps:        make(map[string]*models.App),
		appsByKey:   make(map[string]*models.App),
		appsByEmail: make(map[string]*models.App),
	}
}

func (r *InMemoryRepository) CreateApp(ctx context.Context, app *models.App) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.appsByKey[app.APIKey]; exists {
		return ErrKeyConflict
	}

	cp := *app
	r.apps[cp.ID] = &cp
	r.appsByKey[cp.APIKey] = &cp
	if cp.OwnerEmail != "" {
		r.appsByEmail[cp.OwnerEmail] = &cp
	}
	return nil
}

func (r *InMemoryRepository) GetAppByID(ctx context.Context, id string) (*models.App, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, exists := r.apps[id]
	if !exists {
		return nil, ErrAppNotFound
	}
	cp := *app
	return &cp, nil
}

func (r *InMemoryRepository) GetAppByOwnerEmail(ctx context.Context, email string) (*models.App, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, exists := r.appsByEmail[email]
	if !exists {
		return nil, ErrAppNotFound
	}
	cp := *app
	return &cp, nil
}

func (r *InMemoryRepository) GetAppByKey(ctx context.Context, apiKey string) (*models.App, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, exists := r.appsByKey[apiKey]
	if !exists {
		return nil, ErrKeyNotFound
	}
	cp := *app
	return &cp, nil
}

func (r *InMemoryRepository) RevokeKey(ctx context.Context, apiKey string) (*models.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, exists := r.appsByKey[apiKey]
	if !exists {
		return nil, ErrKeyNotFound
	}
	app.Revoked = true
	cp := *app
	return &cp, nil
}

func (r *InMemoryRepository) ReplaceKey(ctx context.Context, oldKey, newKey string) (*models.App, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, exists := r.appsByKey[oldKey]
	if !exists {
		return nil, ErrKeyNotFound
	}
	if _, taken := r.appsByKey[newKey]; taken {
		return nil, ErrKeyConflict
	}

	delete(r.appsByKey, oldKey)
	app.APIKey = newKey
	app.Revoked = false
	r.appsByKey[newKey] = app

	cp := *app
	return &cp, nil
}

func (r *InMemoryRepository) InsertEvent(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *event
	r.events = append(r.events, &cp)
	return nil
}

func (r *InMemoryRepository) QueryEvents(ctx context.Context, filter EventFilter) ([]*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*models.Event
	for _, e := range r.events {
		if filter.Name != "" && e.Name != filter.Name {
			continue
		}
		if filter.AppID != "" && e.AppID != filter.AppID {
			continue
		}
		if filter.Start != nil && e.Timestamp.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && e.Timestamp.After(*filter.End) {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}
	return matched, nil
}

func (r *InMemoryRepository) RecentEventsByUser(ctx context.Context, userID string, limit int) ([]*models.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*models.Event
	for _, e := range r.events {
		if e.UserID == userID {
			cp := *e
			matched = append(matched, &cp)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *InMemoryRepository) CountEventsByUser(ctx context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, e := range r.events {
		if e.UserID == userID {
			count++
		}
	}
	return count, nil
}
