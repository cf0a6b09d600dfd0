package port

import (
	"context"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
)

// EventPublisher publishes auth lifecycle events to the message bus.
type EventPublisher interface {
	PublishUserProvisioned(ctx context.Context, event domain.UserProvisionedEvent) error
	PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error
	PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error
	PublishOtpRequested(ctx context.Context, event domain.OtpRequestedEvent) error
	PublishOtpVerified(ctx context.Context, event domain.OtpVerifiedEvent) error
}
