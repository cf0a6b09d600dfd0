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
	"github.com/dhanush432-code/tradescope-auth/internal/infra/security"
	"github.com/dhanush432-code/tradescope-auth/internal/repository"
)

// ErrUnauthenticated indicates the session cookie is absent, unknown, or
// expired. All three collapse into one error so responses stay uniform.
var ErrUnauthenticated = errors.New("unauthenticated")

const sessionIDBytes = 32

// SessionService manages opaque server-side login sessions.
type SessionService struct {
	sessions port.SessionStore
	users    port.UserRepository
	events   port.EventPublisher
	logger   *zap.Logger
	ttl      time.Duration
	now      func() time.Time
	newID    func() (string, error)
}

// NewSessionService constructs a SessionService.
func NewSessionService(sessions port.SessionStore, users port.UserRepository, events port.EventPublisher, ttl time.Duration, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions: sessions,
		users:    users,
		events:   events,
		logger:   logger,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() (string, error) { return security.GenerateSecureToken(sessionIDBytes) },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *SessionService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithIDGenerator overrides session id generation for deterministic tests.
func (s *SessionService) WithIDGenerator(gen func() (string, error)) {
	if gen != nil {
		s.newID = gen
	}
}

// CreateSession mints a fresh session for the user. The id doubles as the
// cookie value, so a collision must never clobber another user's record;
// the store rejects duplicates and we retry once with a new id.
func (s *SessionService) CreateSession(ctx context.Context, userID string) (*domain.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	for attempt := 0; attempt < 2; attempt++ {
		id, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("generate session id: %w", err)
		}

		now := s.now()
		session := domain.Session{
			ID:        id,
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		}

		err = s.sessions.Create(ctx, session, s.ttl)
		if err == nil {
			return &session, nil
		}
		if !errors.Is(err, repository.ErrAlreadyExists) {
			return nil, fmt.Errorf("create session: %w", err)
		}
	}

	return nil, fmt.Errorf("create session: id collision persisted across retries")
}

// ResolveSession maps a cookie value back to its user. Expiry is enforced
// here, at read time; an expired record is removed and treated as absent.
func (s *SessionService) ResolveSession(ctx context.Context, sessionID string) (*domain.User, *domain.Session, error) {
	if sessionID == "" {
		return nil, nil, ErrUnauthenticated
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, fmt.Errorf("load session: %w", err)
	}

	if !session.IsActive(s.now()) {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			s.logger.Warn("Failed to remove expired session", zap.Error(err))
		}
		return nil, nil, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The account vanished underneath the session. Drop the orphan.
			if err := s.sessions.Delete(ctx, session.ID); err != nil {
				s.logger.Warn("Failed to remove orphaned session", zap.Error(err))
			}
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, fmt.Errorf("load session user: %w", err)
	}

	return user, session, nil
}

// DestroySession revokes a session. Unknown and already-removed ids succeed
// so logout stays idempotent.
func (s *SessionService) DestroySession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load session: %w", err)
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if s.events != nil {
		publish := domain.SessionRevokedEvent{
			EventID:   uuid.NewString(),
			SessionID: session.ID,
			UserID:    session.UserID,
			RevokedAt: s.now(),
			Reason:    "logout",
		}
		if err := s.events.PublishSessionRevoked(ctx, publish); err != nil {
			s.logger.Warn("Failed to publish session revoked event", zap.Error(err))
		}
	}

	return nil
}
