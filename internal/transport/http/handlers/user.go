package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dhanush432-code/tradescope-auth/internal/transport/http/middleware"
)

// UserHandler exposes the authenticated user's profile.
type UserHandler struct{}

// NewUserHandler constructs UserHandler.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me returns the user resolved by the auth middleware. The profile is
// re-read from the user store on every request, so account changes show up
// without a fresh login.
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "unauthenticated"))
		return
	}

	c.JSON(http.StatusOK, NewUserResponse(user))
}
