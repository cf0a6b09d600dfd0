package domain

import "time"

// Session represents an opaque server-side login session. The ID is the raw
// cookie value: at least 128 bits of randomness, URL-safe encoded.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsActive reports whether the session is still valid at the supplied moment.
// Expiry is enforced lazily on read; no background sweeper exists.
func (s Session) IsActive(at time.Time) bool {
	return s.ExpiresAt.After(at)
}
