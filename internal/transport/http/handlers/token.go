package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhanush432-code/tradescope-auth/internal/transport/http/middleware"
	"github.com/dhanush432-code/tradescope-auth/internal/usecase"
)

// TokenHandler issues stateless bearer tokens for non-cookie clients.
type TokenHandler struct {
	tokens *usecase.TokenService
	logger *zap.Logger
}

// NewTokenHandler constructs TokenHandler.
func NewTokenHandler(tokens *usecase.TokenService, logger *zap.Logger) *TokenHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenHandler{tokens: tokens, logger: logger}
}

// Issue mints a token for the already-authenticated caller. There is no
// revocation list; a leaked token stays valid until its expiry.
func (h *TokenHandler) Issue(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "unauthenticated"))
		return
	}

	token, expiresAt, err := h.tokens.Issue(*user)
	if err != nil {
		h.logger.Error("token issuance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "token issuance failed"))
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
}
