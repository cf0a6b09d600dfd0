package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhanush432-code/tradescope-auth/internal/core/port"
	"github.com/dhanush432-code/tradescope-auth/internal/repository"
	"github.com/dhanush432-code/tradescope-auth/internal/usecase"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// RequireAuth accepts either the session cookie or a bearer token and loads
// the current user into the context. Every rejection is the same 401 body;
// the reason is visible only in the server log.
func RequireAuth(sessions *usecase.SessionService, tokens *usecase.TokenService, users port.UserRepository, cookieName string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if sessionID, err := c.Cookie(cookieName); err == nil && sessionID != "" {
			user, session, err := sessions.ResolveSession(c.Request.Context(), sessionID)
			if err != nil {
				if !errors.Is(err, usecase.ErrUnauthenticated) {
					log.Error("session resolution failed", zap.Error(err))
				}
				rejectUnauthenticated(c)
				return
			}

			c.Set(UserIDKey, user.ID)
			c.Set(CurrentUserKey, user)
			c.Set(SessionIDKey, session.ID)
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			rejectUnauthenticated(c)
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			log.Debug("token verification failed", zap.Error(err))
			rejectUnauthenticated(c)
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Error("token user lookup failed", zap.Error(err))
			}
			rejectUnauthenticated(c)
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func rejectUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "unauthenticated"))
}
