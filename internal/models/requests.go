package models

import "time"

type RegisterRequest struct {
	Name          string `json:"name"`
	OwnerEmail    string `json:"ownerEmail,omitempty"`
	IdentityToken string `json:"identityToken,omitempty"`
	ExpiresInDays int    `json:"expiresInDays,omitempty"`
}

type RegisterResponse struct {
	ID        string     `json:"id"`
	APIKey    string     `json:"apiKey"`
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type KeyResponse struct {
	APIKey    string     `json:"apiKey"`
	Revoked   bool       `json:"revoked"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type KeyActionRequest struct {
	APIKey string `json:"apiKey"`
}

// CollectRequest is the ingestion payload. Everything except Event is
// optional; Timestamp defaults to receipt time and IPAddress falls back
// to the client address.
type CollectRequest struct {
	Event     string         `json:"event"`
	URL       string         `json:"url,omitempty"`
	Referrer  string         `json:"referrer,omitempty"`
	Device    string         `json:"device,omitempty"`
	IPAddress string         `json:"ipAddress,omitempty"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	UserID    string         `json:"userId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// EventSummary is the aggregate view for one event name (or all events
// matching the query when no name filter is given).
type EventSummary struct {
	Event       string           `json:"event"`
	Count       int64            `json:"count"`
	UniqueUsers int64            `json:"uniqueUsers"`
	DeviceData  map[string]int64 `json:"deviceData"`
}

// SummaryQuery holds the event-summary filters. All fields are optional;
// Start and End are inclusive bounds on the event timestamp.
type SummaryQuery struct {
	Event string
	AppID string
	Start *time.Time
	End   *time.Time
}

// UserStats is the per-user activity view. DeviceDetails and IPAddress are
// derived from the recent-events window only, in timestamp-descending
// iteration order.
type UserStats struct {
	UserID        string            `json:"userId"`
	TotalEvents   int64             `json:"totalEvents"`
	RecentEvents  []*Event          `json:"recentEvents"`
	DeviceDetails map[string]string `json:"deviceDetails"`
	IPAddress     string            `json:"ipAddress,omitempty"`
}
