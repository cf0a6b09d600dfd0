package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
	"github.com/dhanush432-code/tradescope-auth/internal/repository"
)

const (
	defaultOTPPrefix = "otp"

	fieldCodeHash = "code_hash"
	fieldAttempts = "attempts"
	fieldState    = "state"
)

// OTPStore persists OTP challenges in Redis hashes keyed by (subject, purpose).
type OTPStore struct {
	client *red.Client
	prefix string
}

// NewOTPStore constructs an OTP store with the provided Redis client and key prefix.
func NewOTPStore(client *red.Client, keyPrefix string) *OTPStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultOTPPrefix
	}

	return &OTPStore{
		client: client,
		prefix: prefix,
	}
}

// Put stores the challenge with the supplied TTL. An existing challenge for
// the same (subject, purpose) is overwritten wholesale, which is how a
// pending challenge gets superseded.
func (s *OTPStore) Put(ctx context.Context, challenge domain.OtpChallenge, ttl time.Duration) error {
	key := s.key(challenge.Subject, challenge.Purpose)
	switch {
	case key == "":
		return errors.New("subject and purpose are required")
	case strings.TrimSpace(challenge.CodeHash) == "":
		return errors.New("code hash is required")
	case ttl <= 0:
		return errors.New("ttl must be positive")
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		fieldCodeHash:  challenge.CodeHash,
		fieldAttempts:  strconv.Itoa(challenge.Attempts),
		fieldState:     string(challenge.State),
		fieldCreatedAt: strconv.FormatInt(challenge.CreatedAt.Unix(), 10),
		fieldExpiresAt: strconv.FormatInt(challenge.ExpiresAt.Unix(), 10),
	})
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store otp: %w", err)
	}

	return nil
}

// Get retrieves the challenge for the provided subject and purpose.
func (s *OTPStore) Get(ctx context.Context, subject, purpose string) (*domain.OtpChallenge, error) {
	key := s.key(subject, purpose)
	if key == "" {
		return nil, errors.New("subject and purpose are required")
	}

	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall otp: %w", err)
	}
	if len(values) == 0 || values[fieldCodeHash] == "" {
		return nil, repository.ErrNotFound
	}

	createdAt, err := parseUnix(values[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	expiresAt, err := parseUnix(values[fieldExpiresAt])
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}

	attempts := 0
	if raw := values[fieldAttempts]; raw != "" {
		if v, convErr := strconv.Atoi(raw); convErr == nil {
			attempts = v
		}
	}

	state := domain.OtpState(values[fieldState])
	if state == "" {
		state = domain.OtpStatePending
	}

	return &domain.OtpChallenge{
		Subject:   strings.TrimSpace(subject),
		Purpose:   strings.TrimSpace(purpose),
		CodeHash:  values[fieldCodeHash],
		Attempts:  attempts,
		State:     state,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

// IncrementAttempts increments the attempt counter and returns the new value.
func (s *OTPStore) IncrementAttempts(ctx context.Context, subject, purpose string) (int, error) {
	if _, err := s.Get(ctx, subject, purpose); err != nil {
		return 0, err
	}

	count, err := s.client.HIncrBy(ctx, s.key(subject, purpose), fieldAttempts, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis hincrby otp attempts: %w", err)
	}

	return int(count), nil
}

// MarkLocked flips the stored state to locked. The key keeps its TTL so the
// lock holds for the remainder of the challenge window.
func (s *OTPStore) MarkLocked(ctx context.Context, subject, purpose string) error {
	key := s.key(subject, purpose)
	if key == "" {
		return errors.New("subject and purpose are required")
	}

	if err := s.client.HSet(ctx, key, fieldState, string(domain.OtpStateLocked)).Err(); err != nil {
		return fmt.Errorf("redis lock otp: %w", err)
	}

	return nil
}

// Consume removes the challenge. The deleted-key count arbitrates concurrent
// verifications: only the caller that actually removed the key wins.
func (s *OTPStore) Consume(ctx context.Context, subject, purpose string) error {
	key := s.key(subject, purpose)
	if key == "" {
		return errors.New("subject and purpose are required")
	}

	deleted, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis consume otp: %w", err)
	}
	if deleted == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (s *OTPStore) key(subject, purpose string) string {
	subject = strings.TrimSpace(subject)
	purpose = strings.TrimSpace(purpose)
	if subject == "" || purpose == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s", s.prefix, purpose, subject)
}
