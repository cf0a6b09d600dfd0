package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhanush432-code/tradescope-auth/internal/infra/config"
	"github.com/dhanush432-code/tradescope-auth/internal/infra/security"
	"github.com/dhanush432-code/tradescope-auth/internal/usecase"
)

const (
	stateCookieName = "ts_oauth_state"
	stateTokenBytes = 16
)

// AuthHandler exposes the OAuth login flow and logout.
type AuthHandler struct {
	auth        *usecase.AuthService
	sessions    *usecase.SessionService
	sessionCfg  config.SessionSettings
	frontendURL string
	logger      *zap.Logger

	secureCookies bool
	stateTTL      time.Duration
}

// AuthHandlerOption configures optional AuthHandler behaviour.
type AuthHandlerOption func(*AuthHandler)

// WithSecureCookies toggles the Secure attribute on issued cookies.
// Production deployments sit behind TLS and enable it.
func WithSecureCookies(secure bool) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.secureCookies = secure
	}
}

// WithStateTTL overrides the lifetime of the CSRF state cookie.
func WithStateTTL(ttl time.Duration) AuthHandlerOption {
	return func(h *AuthHandler) {
		if ttl > 0 {
			h.stateTTL = ttl
		}
	}
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, sessions *usecase.SessionService, sessionCfg config.SessionSettings, frontendURL string, logger *zap.Logger, opts ...AuthHandlerOption) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := &AuthHandler{
		auth:        auth,
		sessions:    sessions,
		sessionCfg:  sessionCfg,
		frontendURL: frontendURL,
		logger:      logger,
		stateTTL:    10 * time.Minute,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}

	return handler
}

// Login redirects the browser to the provider consent screen. A random
// state nonce is set as a short-lived cookie and echoed back on the
// callback, tying the two legs of the flow to one browser.
func (h *AuthHandler) Login(c *gin.Context) {
	state, err := security.GenerateSecureToken(stateTokenBytes)
	if err != nil {
		h.logger.Error("failed to generate oauth state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "login unavailable"))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state, int(h.stateTTL.Seconds()), "/", h.sessionCfg.Domain, h.secureCookies, true)

	c.Redirect(http.StatusFound, h.auth.BeginLogin(state))
}

// Callback completes the provider round-trip. Every failure path redirects
// with status=failure and no detail; specifics stay in the log.
func (h *AuthHandler) Callback(c *gin.Context) {
	defer h.clearStateCookie(c)

	expected, err := c.Cookie(stateCookieName)
	state := c.Query("state")
	if err != nil || expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		h.logger.Warn("oauth state mismatch")
		h.redirectWithStatus(c, "failure")
		return
	}

	if errCode := c.Query("error"); errCode != "" {
		h.logger.Warn("provider denied authorization", zap.String("error", errCode))
		h.redirectWithStatus(c, "failure")
		return
	}

	_, session, err := h.auth.LoginWithCode(c.Request.Context(), c.Query("code"), c.ClientIP())
	if err != nil {
		h.redirectWithStatus(c, "failure")
		return
	}

	c.SetSameSite(h.sameSiteMode())
	c.SetCookie(h.sessionCfg.CookieName, session.ID, int(h.sessionCfg.TTL.Seconds()), "/", h.sessionCfg.Domain, h.secureCookies, true)

	h.redirectWithStatus(c, "success")
}

// Logout destroys the current session and expires the cookie. Requests
// without a session cookie still succeed.
func (h *AuthHandler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(h.sessionCfg.CookieName); err == nil && sessionID != "" {
		if err := h.sessions.DestroySession(c.Request.Context(), sessionID); err != nil {
			h.logger.Error("failed to destroy session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
			return
		}
	}

	c.SetSameSite(h.sameSiteMode())
	c.SetCookie(h.sessionCfg.CookieName, "", -1, "/", h.sessionCfg.Domain, h.secureCookies, true)

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) redirectWithStatus(c *gin.Context, status string) {
	c.Redirect(http.StatusFound, h.frontendURL+"?status="+status)
}

func (h *AuthHandler) clearStateCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, "", -1, "/", h.sessionCfg.Domain, h.secureCookies, true)
}

func (h *AuthHandler) sameSiteMode() http.SameSite {
	switch h.sessionCfg.SameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
