package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dhanush432-code/tradescope-auth/internal/core/domain"
)

const (
	// TraceIDHeader is the HTTP header name for trace ID
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the context key for trace ID
	TraceIDKey = "trace_id"
	// UserIDKey is the context key for the authenticated user id
	UserIDKey = "user_id"
	// CurrentUserKey is the context key for the resolved user record
	CurrentUserKey = "current_user"
	// SessionIDKey is the context key for the resolved session id, empty for token auth
	SessionIDKey = "session_id"
)

// EnrichContext adds a trace ID to each request, honoring an inbound header.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		c.Next()
	}
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(TraceIDKey); exists {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}

// CurrentUser retrieves the authenticated user set by RequireAuth.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(CurrentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}

// CurrentSessionID retrieves the session id for cookie-authenticated requests.
// Token-authenticated requests have none.
func CurrentSessionID(c *gin.Context) string {
	if value, exists := c.Get(SessionIDKey); exists {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
