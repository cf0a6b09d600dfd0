package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
	"github.com/dhanush432-code/tradescope-auth/internal/core/port"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/config"
)

const (
	providerName       = "google"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultTimeout     = 10 * time.Second
)

// ErrUnreachable indicates the provider could not be reached after the
// bounded retry. Login fails closed on this error.
var ErrUnreachable = errors.New("oauth: identity provider unreachable")

// ErrExchangeRejected indicates the provider answered but refused the code.
var ErrExchangeRejected = errors.New("oauth: authorization code rejected")

// GoogleProvider implements port.IdentityProvider for Google's OAuth flow.
type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	timeout     time.Duration
}

// Option configures optional GoogleProvider behaviour.
type Option func(*GoogleProvider)

// WithEndpoint overrides the provider endpoint, used in tests.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(p *GoogleProvider) {
		p.oauth.Endpoint = endpoint
	}
}

// WithUserInfoURL overrides the userinfo endpoint, used in tests.
func WithUserInfoURL(url string) Option {
	return func(p *GoogleProvider) {
		if url != "" {
			p.userInfoURL = url
		}
	}
}

// WithTimeout bounds the code exchange and profile fetch.
func WithTimeout(timeout time.Duration) Option {
	return func(p *GoogleProvider) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// NewGoogleProvider constructs the Google identity provider adapter.
func NewGoogleProvider(cfg config.OAuthSettings, opts ...Option) *GoogleProvider {
	provider := &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: defaultUserInfoURL,
		timeout:     defaultTimeout,
	}
	if cfg.ExchangeTimeout > 0 {
		provider.timeout = cfg.ExchangeTimeout
	}

	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}

	return provider
}

// Name identifies the provider in user records and events.
func (p *GoogleProvider) Name() string {
	return providerName
}

// AuthCodeURL builds the consent-screen URL carrying the CSRF state nonce.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode swaps the authorization code for the user's normalized
// identity. The exchange is bounded by the configured timeout with at most
// one retry on transport failure; a provider that answered but rejected the
// code is never retried.
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*domain.ExternalIdentity, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: empty code", ErrExchangeRejected)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token, err := p.exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	identity, err := p.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := identity.Validate(); err != nil {
		return nil, err
	}

	return identity, nil
}

func (p *GoogleProvider) exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err == nil {
		return token, nil
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return nil, fmt.Errorf("%w: %v", ErrExchangeRejected, err)
	}

	// Transport failure: single bounded retry, then fail closed.
	token, err = p.oauth.Exchange(ctx, code)
	if err == nil {
		return token, nil
	}
	if errors.As(err, &retrieveErr) {
		return nil, fmt.Errorf("%w: %v", ErrExchangeRejected, err)
	}

	return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
}

type googleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (p *GoogleProvider) fetchProfile(ctx context.Context, token *oauth2.Token) (*domain.ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: userinfo status %d: %s", ErrExchangeRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}

	return &domain.ExternalIdentity{
		Provider:    providerName,
		ExternalID:  profile.ID,
		Email:       profile.Email,
		DisplayName: profile.Name,
		AvatarURL:   profile.Picture,
	}, nil
}

var _ port.IdentityProvider = (*GoogleProvider)(nil)
