package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
	"github.com/dhanush432-code/tradescope-auth/internal/core/port"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserProvisioned publishes auth.user.provisioned events.
func (p *EventPublisher) PublishUserProvisioned(ctx context.Context, event domain.UserProvisionedEvent) error {
	payload := struct {
		UserID        string         `json:"user_id"`
		Provider      string         `json:"provider"`
		ExternalID    string         `json:"external_id"`
		MaskedEmail   string         `json:"masked_email"`
		ProvisionedAt time.Time      `json:"provisioned_at"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		UserID:        event.UserID,
		Provider:      event.Provider,
		ExternalID:    event.ExternalID,
		MaskedEmail:   event.MaskedEmail,
		ProvisionedAt: event.ProvisionedAt.UTC(),
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.user.provisioned", event.UserID, event.ProvisionedAt, payload)
}

// PublishUserLoggedIn publishes auth.user.logged_in events.
func (p *EventPublisher) PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error {
	payload := struct {
		UserID     string         `json:"user_id"`
		Provider   string         `json:"provider"`
		SessionID  string         `json:"session_id"`
		LoggedInAt time.Time      `json:"logged_in_at"`
		IPAddress  *string        `json:"ip_address,omitempty"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		UserID:     event.UserID,
		Provider:   event.Provider,
		SessionID:  event.SessionID,
		LoggedInAt: event.LoggedInAt.UTC(),
		IPAddress:  event.IPAddress,
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.user.logged_in", event.UserID, event.LoggedInAt, payload)
}

// PublishSessionRevoked publishes auth.session.revoked events.
func (p *EventPublisher) PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error {
	payload := struct {
		SessionID string         `json:"session_id"`
		UserID    string         `json:"user_id"`
		RevokedAt time.Time      `json:"revoked_at"`
		Reason    string         `json:"reason"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		SessionID: event.SessionID,
		UserID:    event.UserID,
		RevokedAt: event.RevokedAt.UTC(),
		Reason:    event.Reason,
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.session.revoked", event.UserID, event.RevokedAt, payload)
}

// PublishOtpRequested publishes auth.otp.requested events. The subject is
// carried masked and the code itself is never published.
func (p *EventPublisher) PublishOtpRequested(ctx context.Context, event domain.OtpRequestedEvent) error {
	payload := struct {
		MaskedSubject string         `json:"masked_subject"`
		Purpose       string         `json:"purpose"`
		RequestedAt   time.Time      `json:"requested_at"`
		ExpiresAt     time.Time      `json:"expires_at"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		MaskedSubject: event.MaskedSubject,
		Purpose:       event.Purpose,
		RequestedAt:   event.RequestedAt.UTC(),
		ExpiresAt:     event.ExpiresAt.UTC(),
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.otp.requested", "", event.RequestedAt, payload)
}

// PublishOtpVerified publishes auth.otp.verified events.
func (p *EventPublisher) PublishOtpVerified(ctx context.Context, event domain.OtpVerifiedEvent) error {
	payload := struct {
		MaskedSubject string         `json:"masked_subject"`
		Purpose       string         `json:"purpose"`
		VerifiedAt    time.Time      `json:"verified_at"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		MaskedSubject: event.MaskedSubject,
		Purpose:       event.Purpose,
		VerifiedAt:    event.VerifiedAt.UTC(),
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.otp.verified", "", event.VerifiedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
