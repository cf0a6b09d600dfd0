package port

import (
	"context"
	"time"
)

// RateLimitStore records request attempts for sliding-window throttling.
// Implementations must tolerate concurrent writers for the same identifier.
type RateLimitStore interface {
	// TrimWindow discards attempts that fell out of the window before reference.
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	// CountAttempts reports how many attempts remain inside the window.
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	// RecordAttempt appends one attempt at the given instant.
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	// OldestAttempt returns the earliest attempt still in the window, when any.
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}
