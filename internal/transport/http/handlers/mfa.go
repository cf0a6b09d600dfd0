package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dhanush432-code/tradescope-auth/internal/infra/logger"
	"github.com/dhanush432-code/tradescope-auth/internal/usecase"
)

// MfaHandler exposes the email OTP challenge endpoints.
type MfaHandler struct {
	mfa    *usecase.MfaService
	logger *zap.Logger
}

// NewMfaHandler constructs MfaHandler.
func NewMfaHandler(mfa *usecase.MfaService, log *zap.Logger) *MfaHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &MfaHandler{mfa: mfa, logger: log}
}

// Request issues a challenge and emails the code. The response is 202 no
// matter whether dispatch succeeded, so the endpoint cannot be used to probe
// for known addresses. Failures are only visible in the log.
func (h *MfaHandler) Request(c *gin.Context) {
	var payload MfaRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "subject and purpose are required"))
		return
	}

	if err := h.mfa.RequestOtp(c.Request.Context(), payload.Subject, payload.Purpose); err != nil {
		h.logger.Error("otp request failed",
			zap.String("subject", logger.MaskEmail(payload.Subject)),
			zap.String("purpose", payload.Purpose),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusAccepted, MessageResponse{Message: "if the subject is valid, a code has been sent"})
}

// Verify checks a submitted code. Clients get one generic rejection message;
// the specific failure kind is logged server-side only.
func (h *MfaHandler) Verify(c *gin.Context) {
	var payload MfaVerifyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "subject, purpose and code are required"))
		return
	}

	err := h.mfa.VerifyOtp(c.Request.Context(), payload.Subject, payload.Purpose, payload.Code)
	if err == nil {
		c.JSON(http.StatusOK, MfaVerifyResponse{Verified: true})
		return
	}

	switch {
	case errors.Is(err, usecase.ErrOtpNotFound),
		errors.Is(err, usecase.ErrOtpExpired),
		errors.Is(err, usecase.ErrOtpMismatch),
		errors.Is(err, usecase.ErrOtpAttemptsExceeded):
		h.logger.Info("otp verification rejected",
			zap.String("subject", logger.MaskEmail(payload.Subject)),
			zap.String("purpose", payload.Purpose),
			zap.String("kind", err.Error()),
		)
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid or expired code"))
	default:
		h.logger.Error("otp verification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "verification unavailable"))
	}
}
