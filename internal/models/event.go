package models

import "time"

// Event is a single analytics occurrence ingested for an app. Events are
// immutable once stored; there is no update or delete path.
//
// AppID and APIKey are denormalized copies taken at ingestion time. The
// key copy survives later rotation or revocation of the app's live key,
// which is what makes it usable as an audit trail.
type Event struct {
	ID     string `json:"id"`
	AppID  string `json:"appId"`
	APIKey string `json:"apiKey"`

	// Name is the only required field.
	Name string `json:"event"`

	URL       string `json:"url,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	Device    string `json:"device,omitempty"`
	IPAddress string `json:"ipAddress,omitempty"`
	UserID    string `json:"userId,omitempty"`

	// Timestamp is client-supplied, or assigned at ingestion if absent.
	Timestamp time.Time `json:"timestamp"`

	// Metadata is an open key/value bag (browser, os, screen size, ...).
	// It is stored as-is; no schema is enforced.
	Metadata map[string]any `json:"metadata,omitempty"`

	// CreatedAt is when the record was written, distinct from Timestamp.
	CreatedAt time.Time `json:"createdAt"`
}
