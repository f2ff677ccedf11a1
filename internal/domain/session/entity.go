// internal/domain/session/entity.go
package session

import "time"

// Session is the per-user session snapshot the storefront works with. The
// authoritative copy lives in the backend; the cached copy is merged against
// it using LastActivity as the version token.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Balance      int64     `json:"balance"` // whole currency units, never negative
	IsAdmin      bool      `json:"is_admin"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// NewerThan reports whether this snapshot supersedes the other one.
// Equal LastActivity counts as newer so an authoritative refresh with the
// same version still lands.
func (s Session) NewerThan(other Session) bool {
	return !s.LastActivity.Before(other.LastActivity)
}
