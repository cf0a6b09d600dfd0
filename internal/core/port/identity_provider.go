package port

import (
	"context"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
)

// IdentityProvider exchanges an OAuth authorization code for a normalized
// external identity. Implementations bound the exchange with a timeout and
// fail closed on provider errors.
type IdentityProvider interface {
	Name() string
	// AuthCodeURL builds the consent-screen redirect URL carrying the
	// supplied CSRF state nonce.
	AuthCodeURL(state string) string
	// ExchangeCode resolves the authorization code into an identity. Returns
	// domain.ErrIncompleteIdentity for profiles missing required fields and a
	// provider-unreachable error on final transport failure.
	ExchangeCode(ctx context.Context, code string) (*domain.ExternalIdentity, error)
}
