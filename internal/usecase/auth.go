package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
	"github.com/dhanush432-code/tradescope-auth/internal/core/port"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/logger"
)

// ErrLoginFailed indicates the code exchange or provisioning could not
// complete. The login fails closed; details stay in the server log.
var ErrLoginFailed = errors.New("login failed")

// AuthService coordinates the OAuth login flow: code exchange, user
// provisioning, and session creation.
type AuthService struct {
	provider port.IdentityProvider
	users    port.UserRepository
	sessions *SessionService
	events   port.EventPublisher
	logger   *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(provider port.IdentityProvider, users port.UserRepository, sessions *SessionService, events port.EventPublisher, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		provider: provider,
		users:    users,
		sessions: sessions,
		events:   events,
		logger:   log,
	}
}

// BeginLogin returns the provider consent URL carrying the CSRF state nonce.
func (s *AuthService) BeginLogin(state string) string {
	return s.provider.AuthCodeURL(state)
}

// LoginWithCode completes the OAuth callback: exchanges the authorization
// code, provisions or refreshes the local user, and mints a session. Every
// failure collapses into ErrLoginFailed so the callback response cannot
// leak which step broke.
func (s *AuthService) LoginWithCode(ctx context.Context, code string, clientIP string) (*domain.User, *domain.Session, error) {
	if code == "" {
		return nil, nil, ErrLoginFailed
	}

	identity, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		s.logger.Warn("OAuth code exchange failed",
			zap.String("provider", s.provider.Name()),
			zap.Error(err),
		)
		return nil, nil, fmt.Errorf("%w: exchange code: %w", ErrLoginFailed, err)
	}

	user, err := s.users.UpsertFromIdentity(ctx, *identity)
	if err != nil {
		s.logger.Error("User provisioning failed",
			zap.String("provider", identity.Provider),
			zap.String("email", logger.MaskEmail(identity.Email)),
			zap.Error(err),
		)
		return nil, nil, fmt.Errorf("%w: provision user: %w", ErrLoginFailed, err)
	}

	provisioned := user.CreatedAt.Equal(user.UpdatedAt)

	session, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create session: %w", ErrLoginFailed, err)
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID),
		zap.String("provider", user.Provider),
		zap.String("email", logger.MaskEmail(user.Email)),
		zap.Bool("provisioned", provisioned),
	)

	s.publishLoginEvents(ctx, user, session, provisioned, clientIP)

	return user, session, nil
}

func (s *AuthService) publishLoginEvents(ctx context.Context, user *domain.User, session *domain.Session, provisioned bool, clientIP string) {
	if s.events == nil {
		return
	}

	if provisioned {
		publish := domain.UserProvisionedEvent{
			EventID:       uuid.NewString(),
			UserID:        user.ID,
			Provider:      user.Provider,
			ExternalID:    user.ExternalID,
			MaskedEmail:   logger.MaskEmail(user.Email),
			ProvisionedAt: user.CreatedAt,
		}
		if err := s.events.PublishUserProvisioned(ctx, publish); err != nil {
			s.logger.Warn("Failed to publish user provisioned event", zap.Error(err))
		}
	}

	var ip *string
	if clientIP != "" {
		masked := logger.MaskIP(clientIP)
		ip = &masked
	}
	loggedIn := domain.UserLoggedInEvent{
		EventID:    uuid.NewString(),
		UserID:     user.ID,
		Provider:   user.Provider,
		SessionID:  session.ID,
		LoggedInAt: session.CreatedAt,
		IPAddress:  ip,
	}
	if err := s.events.PublishUserLoggedIn(ctx, loggedIn); err != nil {
		s.logger.Warn("Failed to publish user logged in event", zap.Error(err))
	}
}
