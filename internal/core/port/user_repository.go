package port

import (
	"context"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
)

// UserRepository provisions and looks up local users keyed by external identity.
type UserRepository interface {
	// UpsertFromIdentity inserts or refreshes the user row for the identity's
	// (provider, external_id) pair in a single atomic statement. Concurrent
	// calls for the same identity converge on one row.
	UpsertFromIdentity(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, error)
	// GetByID returns repository.ErrNotFound when no user exists.
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
