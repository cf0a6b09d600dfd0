package port

import (
	"context"
	"time"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
)

// SessionStore persists opaque login sessions. Implementations must make
// Create first-write-wins so a generated session id can never silently
// overwrite an existing record.
type SessionStore interface {
	// Create stores the session with the supplied TTL. Returns
	// repository.ErrAlreadyExists when the id is already taken.
	Create(ctx context.Context, session domain.Session, ttl time.Duration) error
	// Get returns repository.ErrNotFound for unknown ids. An expired record
	// may still be returned; callers enforce expiry with Session.IsActive.
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	// Delete removes the record. Deleting an absent session is not an error.
	Delete(ctx context.Context, sessionID string) error
}
