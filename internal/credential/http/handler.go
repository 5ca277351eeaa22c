package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
	"github.com/allisson/billvault/internal/credential/http/dto"
	credentialUseCase "github.com/allisson/billvault/internal/credential/usecase"
	apperrors "github.com/allisson/billvault/internal/errors"
	"github.com/allisson/billvault/internal/httputil"
	customValidation "github.com/allisson/billvault/internal/validation"
)

// CredentialHandler handles HTTP requests for API keys and passwords.
type CredentialHandler struct {
	guard  credentialUseCase.Guard
	logger *slog.Logger
}

// NewCredentialHandler creates a new credential handler with required dependencies.
func NewCredentialHandler(guard credentialUseCase.Guard, logger *slog.Logger) *CredentialHandler {
	return &CredentialHandler{
		guard:  guard,
		logger: logger,
	}
}

// IssueAPIKeyHandler exchanges a principal's password for a new API key.
// POST /v1/auth/api-keys - No authentication required (this is the authentication endpoint).
// Returns 201 Created with the key, which is never shown again.
func (h *CredentialHandler) IssueAPIKeyHandler(c *gin.Context) {
	var req dto.IssueAPIKeyRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	principalID, err := uuid.Parse(req.PrincipalID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid principal_id format: must be a valid UUID"),
			h.logger)
		return
	}

	ctx := c.Request.Context()

	verdict, err := h.guard.CheckPassword(ctx, principalID, req.Password)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if !verdict.OK() {
		httputil.HandleErrorGin(c, credentialDomain.VerdictError(verdict), h.logger)
		return
	}

	issued, err := h.guard.IssueAPIKey(ctx, principalID, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapIssuedAPIKeyToResponse(issued))
}

// RevokeAPIKeyHandler revokes the API key of the authenticated principal.
// DELETE /v1/auth/api-keys - Requires API-key authentication.
// Returns 204 No Content.
func (h *CredentialHandler) RevokeAPIKeyHandler(c *gin.Context) {
	principalID, ok := GetPrincipalID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if err := h.guard.RevokeAPIKey(c.Request.Context(), principalID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// SetPasswordHandler changes the password of the authenticated principal.
// PUT /v1/principals/me/password - Requires API-key authentication.
// The current password goes through the same throttled check as a login.
// Returns 204 No Content.
func (h *CredentialHandler) SetPasswordHandler(c *gin.Context) {
	principalID, ok := GetPrincipalID(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.SetPasswordRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ctx := c.Request.Context()

	verdict, err := h.guard.CheckPassword(ctx, principalID, req.CurrentPassword)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if !verdict.OK() {
		httputil.HandleErrorGin(c, credentialDomain.VerdictError(verdict), h.logger)
		return
	}

	if err := h.guard.SetPassword(ctx, principalID, req.NewPassword); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
