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
	defaultSessionPrefix = "session"

	fieldUserID    = "user_id"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

// SessionStore persists opaque login sessions in Redis hashes.
type SessionStore struct {
	client *red.Client
	prefix string
}

// NewSessionStore constructs a session store with the provided Redis client and key prefix.
func NewSessionStore(client *red.Client, keyPrefix string) *SessionStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}

	return &SessionStore{
		client: client,
		prefix: prefix,
	}
}

// Create persists the session under SETNX semantics: the whole record is
// written only when the key is absent, so a colliding id never clobbers a
// live session.
func (s *SessionStore) Create(ctx context.Context, session domain.Session, ttl time.Duration) error {
	switch {
	case strings.TrimSpace(session.ID) == "":
		return errors.New("session id is required")
	case strings.TrimSpace(session.UserID) == "":
		return errors.New("user id is required")
	case ttl <= 0:
		return errors.New("ttl must be positive")
	}

	key := s.key(session.ID)

	claimed, err := s.client.HSetNX(ctx, key, fieldUserID, session.UserID).Result()
	if err != nil {
		return fmt.Errorf("redis claim session: %w", err)
	}
	if !claimed {
		return repository.ErrAlreadyExists
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		fieldCreatedAt: strconv.FormatInt(session.CreatedAt.Unix(), 10),
		fieldExpiresAt: strconv.FormatInt(session.ExpiresAt.Unix(), 10),
	})
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store session: %w", err)
	}

	return nil
}

// Get retrieves the session record for the provided id.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, repository.ErrNotFound
	}

	values, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall session: %w", err)
	}
	if len(values) == 0 || values[fieldUserID] == "" {
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

	return &domain.Session{
		ID:        sessionID,
		UserID:    values[fieldUserID],
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Delete removes the session. Deleting an absent session succeeds so logout
// stays idempotent.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}

	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}

	return nil
}

func (s *SessionStore) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, sessionID)
}

func parseUnix(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(v, 0).UTC(), nil
}
