package port

import (
	"context"
	"time"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
)

// OTPStore persists OTP challenges keyed by (subject, purpose).
type OTPStore interface {
	// Put stores the challenge with the supplied TTL, replacing any prior
	// challenge for the same (subject, purpose). Replacement is how a
	// pending challenge becomes invalidated.
	Put(ctx context.Context, challenge domain.OtpChallenge, ttl time.Duration) error
	// Get returns repository.ErrNotFound when no challenge exists.
	Get(ctx context.Context, subject, purpose string) (*domain.OtpChallenge, error)
	// IncrementAttempts bumps the attempt counter and returns the new value.
	IncrementAttempts(ctx context.Context, subject, purpose string) (int, error)
	// MarkLocked transitions the stored challenge to the locked state while
	// keeping it alive until its TTL so later verifies still observe the lock.
	MarkLocked(ctx context.Context, subject, purpose string) error
	// Consume atomically removes the challenge. Exactly one of N concurrent
	// callers gets nil; the rest get repository.ErrNotFound.
	Consume(ctx context.Context, subject, purpose string) error
}
