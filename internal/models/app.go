package models

import "time"

// App is a registered client application. An app holds exactly one API key
// at a time; regeneration replaces the key in place and clears the revoked
// flag. Apps are never hard-deleted.
type App struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	OwnerEmail       string     `json:"ownerEmail,omitempty"`
	APIKey           string     `json:"apiKey"`
	Revoked          bool       `json:"revoked"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	FederatedSubject string     `json:"-"`
}

// KeyExpired reports whether the app's key has an expiry in the past.
// A nil ExpiresAt means the key never expires.
func (a *App) KeyExpired(now time.Time) bool {
	return a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}
