package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
	"github.com/dhanush432-code/tradescope-auth/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserProvisioned logs auth.user.provisioned events.
func (p *StubPublisher) PublishUserProvisioned(_ context.Context, event domain.UserProvisionedEvent) error {
	payload := map[string]any{
		"user_id":        event.UserID,
		"provider":       event.Provider,
		"external_id":    event.ExternalID,
		"masked_email":   event.MaskedEmail,
		"provisioned_at": event.ProvisionedAt,
		"metadata":       event.Metadata,
	}
	p.logEvent("auth.user.provisioned", event.UserID, event.ProvisionedAt, payload)
	return nil
}

// PublishUserLoggedIn logs auth.user.logged_in events.
func (p *StubPublisher) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	payload := map[string]any{
		"user_id":      event.UserID,
		"provider":     event.Provider,
		"session_id":   event.SessionID,
		"logged_in_at": event.LoggedInAt,
		"ip_address":   event.IPAddress,
		"metadata":     event.Metadata,
	}
	p.logEvent("auth.user.logged_in", event.UserID, event.LoggedInAt, payload)
	return nil
}

// PublishSessionRevoked logs auth.session.revoked events.
func (p *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	payload := map[string]any{
		"session_id": event.SessionID,
		"user_id":    event.UserID,
		"revoked_at": event.RevokedAt,
		"reason":     event.Reason,
		"metadata":   event.Metadata,
	}
	p.logEvent("auth.session.revoked", event.UserID, event.RevokedAt, payload)
	return nil
}

// PublishOtpRequested logs auth.otp.requested events.
func (p *StubPublisher) PublishOtpRequested(_ context.Context, event domain.OtpRequestedEvent) error {
	payload := map[string]any{
		"masked_subject": event.MaskedSubject,
		"purpose":        event.Purpose,
		"requested_at":   event.RequestedAt,
		"expires_at":     event.ExpiresAt,
		"metadata":       event.Metadata,
	}
	p.logEvent("auth.otp.requested", "", event.RequestedAt, payload)
	return nil
}

// PublishOtpVerified logs auth.otp.verified events.
func (p *StubPublisher) PublishOtpVerified(_ context.Context, event domain.OtpVerifiedEvent) error {
	payload := map[string]any{
		"masked_subject": event.MaskedSubject,
		"purpose":        event.Purpose,
		"verified_at":    event.VerifiedAt,
		"metadata":       event.Metadata,
	}
	p.logEvent("auth.otp.verified", "", event.VerifiedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
