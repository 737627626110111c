package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sitepulse-io/sitepulse/internal/cache"
	"github.com/sitepulse-io/sitepulse/internal/metrics"
	"github.com/sitepulse-io/sitepulse/internal/models"
	"github.com/sitepulse-io/sitepulse/internal/repository"
)

var (
	ErrEventNameRequired = errors.New("event required")
	ErrUserIDRequired    = errors.New("userId required")
)

// recentWindow is the size of the recent-events window in the user-stats
// view. The lifetime total is not bounded by it.
const recentWindow = 20

// AnalyticsService appends events to the store and serves the two
// aggregate read views through the read-aside cache.
type AnalyticsService struct {
	repo  repository.Repository
	cache cache.Cache
	ttl   time.Duration
}

func NewAnalyticsService(repo repository.Repository, c cache.Cache, ttl time.Duration) *AnalyticsService {
	if c == nil {
		c = cache.Noop{}
	}
	return &AnalyticsService{
		repo:  repo,
		cache: c,
		ttl:   ttl,
	}
}

// Collect normalizes and appends one event for app. The event name is the
// only required field; the timestamp defaults to now and the IP address
// falls back to the client address. Metadata is stored as-is.
//
// Ingestion never touches the cache: staleness of the read views is
// bounded by the TTL alone.
func (s *AnalyticsService) Collect(ctx context.Context, app *models.App, req *models.CollectRequest, clientIP string) (*models.Event, error) {
	if req.Event == "" {
		metrics.IngestRejected.WithLabelValues("missing_name").Inc()
		return nil, ErrEventNameRequired
	}

	now := time.Now()
	timestamp := now
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}

	ipAddress := req.IPAddress
	if ipAddress == "" {
		ipAddress = clientIP
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	eventID, _ := uuid.NewV7()
	event := &models.Event{
		ID:        eventID.String(),
		AppID:     app.ID,
		APIKey:    app.APIKey,
		Name:      req.Event,
		URL:       req.URL,
		Referrer:  req.Referrer,
		Device:    req.Device,
		IPAddress: ipAddress,
		UserID:    req.UserID,
		Timestamp: timestamp,
		Metadata:  metadata,
		CreatedAt: now,
	}

	if err := s.repo.InsertEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to store event: %w", err)
	}

	metrics.EventsIngested.WithLabelValues(event.Name).Inc()
	return event, nil
}

// summaryCacheKey derives the cache key from the exact filter set, so
// distinct filter combinations never share an entry.
func summaryCacheKey(q models.SummaryQuery) string {
	event := q.Event
	if event == "" {
		event = "all"
	}
	start := "0"
	if q.Start != nil {
		start = q.Start.UTC().Format(time.RFC3339)
	}
	end := "now"
	if q.End != nil {
		end = q.End.UTC().Format(time.RFC3339)
	}
	appID := q.AppID
	if appID == "" {
		appID = "all"
	}
	return fmt.Sprintf("evsum:%s:%s:%s:%s", event, start, end, appID)
}

// EventSummary computes the per-event aggregate view: total count, count
// of distinct non-empty user IDs, and a device-label histogram. A query
// matching nothing yields a zero-valued summary, not an error.
//
// A malformed app_id filter is silently dropped rather than rejected.
func (s *AnalyticsService) EventSummary(ctx context.Context, q models.SummaryQuery) (*models.EventSummary, error) {
	if q.AppID != "" {
		if _, err := uuid.Parse(q.AppID); err != nil {
			q.AppID = ""
		}
	}

	key := summaryCacheKey(q)
	if data, ok := s.cache.Get(ctx, key); ok {
		var summary models.EventSummary
		if err := json.Unmarshal(data, &summary); err == nil {
			metrics.CacheHits.WithLabelValues("event_summary").Inc()
			return &summary, nil
		}
		// Corrupt entry: fall through and recompute.
	}
	metrics.CacheMisses.WithLabelValues("event_summary").Inc()

	start := time.Now()
	events, err := s.repo.QueryEvents(ctx, repository.EventFilter{
		Name:  q.Event,
		AppID: q.AppID,
		Start: q.Start,
		End:   q.End,
	})
	metrics.QueryDuration.WithLabelValues("event_summary").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	summary := summarize(q.Event, events)

	if data, err := json.Marshal(summary); err == nil {
		s.cache.Set(ctx, key, data, s.ttl)
	}

	return summary, nil
}

// summarize groups events by name and reduces one group to the summary
// shape. With a name filter there is exactly one group; without one the
// lexicographically first name is reported.
func summarize(requested string, events []*models.Event) *models.EventSummary {
	if len(events) == 0 {
		return &models.EventSummary{
			Event:       requested,
			Count:       0,
			UniqueUsers: 0,
			DeviceData:  map[string]int64{},
		}
	}

	groups := make(map[string][]*models.Event)
	for _, e := range events {
		groups[e.Name] = append(groups[e.Name], e)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	name := names[0]
	if requested != "" {
		name = requested
	}

	group := groups[name]
	users := make(map[string]struct{})
	deviceData := make(map[string]int64)
	for _, e := range group {
		if e.UserID != "" {
			users[e.UserID] = struct{}{}
		}
		if e.Device != "" {
			deviceData[e.Device]++
		}
	}

	return &models.EventSummary{
		Event:       name,
		Count:       int64(len(group)),
		UniqueUsers: int64(len(users)),
		DeviceData:  deviceData,
	}
}

// UserStats serves the per-user activity view: the most recent 20 events,
// the unbounded lifetime count, and device/IP details derived from the
// recent window.
//
// The derivation walks the window newest-to-oldest and overwrites
// browser/os whenever a later (older) event also sets them, and reports
// the first IP address encountered. That iteration-order dependence is
// the view's documented contract; callers should treat deviceDetails and
// ipAddress as "some recent value", not "the most recent".
func (s *AnalyticsService) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	key := "uStats:" + userID
	if data, ok := s.cache.Get(ctx, key); ok {
		var stats models.UserStats
		if err := json.Unmarshal(data, &stats); err == nil {
			metrics.CacheHits.WithLabelValues("user_stats").Inc()
			return &stats, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("user_stats").Inc()

	start := time.Now()
	recent, err := s.repo.RecentEventsByUser(ctx, userID, recentWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	total, err := s.repo.CountEventsByUser(ctx, userID)
	metrics.QueryDuration.WithLabelValues("user_stats").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	deviceDetails := make(map[string]string)
	ipAddress := ""
	for _, e := range recent {
		if browser, ok := e.Metadata["browser"].(string); ok {
			deviceDetails["browser"] = browser
		}
		if os, ok := e.Metadata["os"].(string); ok {
			deviceDetails["os"] = os
		}
		if ipAddress == "" && e.IPAddress != "" {
			ipAddress = e.IPAddress
		}
	}

	if recent == nil {
		recent = []*models.Event{}
	}

	stats := &models.UserStats{
		UserID:        userID,
		TotalEvents:   total,
		RecentEvents:  recent,
		DeviceDetails: deviceDetails,
		IPAddress:     ipAddress,
	}

	if data, err := json.Marshal(stats); err == nil {
		s.cache.Set(ctx, key, data, s.ttl)
	}

	return stats, nil
}
