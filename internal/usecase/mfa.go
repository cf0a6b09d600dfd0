package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
	"github.com/dhanush432-code/tradescope-auth/internal/core/port"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/config"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/logger"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/security"
	"github.com/dhanush432-code/tradescope-auth/internal/repository"
)

var (
	// ErrOtpNotFound indicates no live challenge exists for the subject and
	// purpose. Consumed, superseded, and reaped challenges all land here.
	ErrOtpNotFound = errors.New("otp challenge not found")
	// ErrOtpExpired indicates the challenge outlived its validity window.
	ErrOtpExpired = errors.New("otp challenge expired")
	// ErrOtpMismatch indicates the submitted code does not match.
	ErrOtpMismatch = errors.New("otp code mismatch")
	// ErrOtpAttemptsExceeded indicates the challenge locked after too many
	// wrong submissions.
	ErrOtpAttemptsExceeded = errors.New("otp attempts exceeded")
)

// MfaService manages email one-time-passcode challenges.
type MfaService struct {
	store   port.OTPStore
	mailer  port.EmailGateway
	events  port.EventPublisher
	logger  *zap.Logger
	cfg     config.OTPSettings
	now     func() time.Time
	newCode func(length int) (string, error)
}

// NewMfaService constructs an MfaService.
func NewMfaService(store port.OTPStore, mailer port.EmailGateway, events port.EventPublisher, cfg config.OTPSettings, log *zap.Logger) *MfaService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MfaService{
		store:   store,
		mailer:  mailer,
		events:  events,
		logger:  log,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
		newCode: security.GenerateNumericCode,
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *MfaService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithCodeGenerator overrides code generation for deterministic tests.
func (s *MfaService) WithCodeGenerator(gen func(length int) (string, error)) {
	if gen != nil {
		s.newCode = gen
	}
}

// RequestOtp issues a fresh challenge for the subject and emails the code.
// Any prior challenge for the same subject and purpose is superseded; only
// the newest code verifies. The plaintext code lives only between generation
// and dispatch, and only its SHA-256 hash is stored.
func (s *MfaService) RequestOtp(ctx context.Context, subject, purpose string) error {
	if subject == "" {
		return fmt.Errorf("subject is required")
	}
	if purpose == "" {
		return fmt.Errorf("purpose is required")
	}

	code, err := s.newCode(s.cfg.CodeLength)
	if err != nil {
		return fmt.Errorf("generate otp code: %w", err)
	}

	now := s.now()
	challenge := domain.OtpChallenge{
		Subject:   subject,
		Purpose:   purpose,
		CodeHash:  security.HashToken(code),
		Attempts:  0,
		State:     domain.OtpStatePending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}

	if err := s.store.Put(ctx, challenge, s.cfg.TTL); err != nil {
		return fmt.Errorf("store otp challenge: %w", err)
	}

	body := fmt.Sprintf(
		"Your tradeScope verification code is %s.\n\nIt expires in %d minutes. If you did not request this code, you can ignore this email.",
		code, int(s.cfg.TTL.Minutes()),
	)
	if err := s.mailer.Send(ctx, subject, "Your tradeScope verification code", body); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}

	s.logger.Info("OTP challenge issued",
		zap.String("subject", logger.MaskEmail(subject)),
		zap.String("purpose", purpose),
		zap.Time("expires_at", challenge.ExpiresAt),
	)

	if s.events != nil {
		publish := domain.OtpRequestedEvent{
			EventID:       uuid.NewString(),
			MaskedSubject: logger.MaskEmail(subject),
			Purpose:       purpose,
			RequestedAt:   now,
			ExpiresAt:     challenge.ExpiresAt,
		}
		if err := s.events.PublishOtpRequested(ctx, publish); err != nil {
			s.logger.Warn("Failed to publish otp requested event", zap.Error(err))
		}
	}

	return nil
}

// VerifyOtp checks a submitted code against the live challenge. A correct
// code consumes the challenge exactly once: of N concurrent submissions at
// most one returns nil and the rest observe ErrOtpNotFound. Wrong codes
// count toward the attempt cap; reaching it locks the challenge for the
// remainder of its window.
func (s *MfaService) VerifyOtp(ctx context.Context, subject, purpose, code string) error {
	if subject == "" || purpose == "" || code == "" {
		return ErrOtpNotFound
	}

	challenge, err := s.store.Get(ctx, subject, purpose)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOtpNotFound
		}
		return fmt.Errorf("load otp challenge: %w", err)
	}

	if challenge.IsLocked() {
		return ErrOtpAttemptsExceeded
	}
	if challenge.IsExpired(s.now()) {
		return ErrOtpExpired
	}
	if challenge.Terminal() {
		return ErrOtpNotFound
	}

	if !security.VerifyTokenHash(code, challenge.CodeHash) {
		attempts, err := s.store.IncrementAttempts(ctx, subject, purpose)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("record otp attempt: %w", err)
		}
		if attempts >= s.maxAttempts() {
			if err := s.store.MarkLocked(ctx, subject, purpose); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("lock otp challenge: %w", err)
			}
			return ErrOtpAttemptsExceeded
		}
		return ErrOtpMismatch
	}

	// The delete count arbitrates concurrent correct submissions.
	if err := s.store.Consume(ctx, subject, purpose); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOtpNotFound
		}
		return fmt.Errorf("consume otp challenge: %w", err)
	}

	if s.events != nil {
		publish := domain.OtpVerifiedEvent{
			EventID:       uuid.NewString(),
			MaskedSubject: logger.MaskEmail(subject),
			Purpose:       purpose,
			VerifiedAt:    s.now(),
		}
		if err := s.events.PublishOtpVerified(ctx, publish); err != nil {
			s.logger.Warn("Failed to publish otp verified event", zap.Error(err))
		}
	}

	return nil
}

func (s *MfaService) maxAttempts() int {
	if s.cfg.MaxAttempts > 0 {
		return s.cfg.MaxAttempts
	}
	return domain.MaxOtpAttempts
}
