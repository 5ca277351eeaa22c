package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditDomain "github.com/allisson/billvault/internal/audit/domain"
	auditUseCase "github.com/allisson/billvault/internal/audit/usecase"
	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
	credentialUseCase "github.com/allisson/billvault/internal/credential/usecase"
	apperrors "github.com/allisson/billvault/internal/errors"
	"github.com/allisson/billvault/internal/httputil"
)

// Headers carrying API-key credentials.
const (
	PrincipalIDHeader = "X-Principal-ID"
	APIKeyHeader      = "X-API-Key" //nolint:gosec // header name, not a credential
)

// APIKeyAuthenticationMiddleware authenticates requests by principal ID and API key.
//
// The middleware:
// 1. Reads X-Principal-ID and X-API-Key
// 2. Verifies the key through the credential guard (constant-time comparison)
// 3. Stores the principal ID in the request context for GetPrincipalID
//
// Every rejected request is recorded in the audit trail as an api_access
// failure before the 401 is written. If the audit write itself fails the
// request is answered with that error instead.
func APIKeyAuthenticationMiddleware(
	guard credentialUseCase.Guard,
	trail auditUseCase.Trail,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		rawID := c.GetHeader(PrincipalIDHeader)
		candidate := c.GetHeader(APIKeyHeader)

		reject := func(actor *uuid.UUID, reason string) {
			logger.Debug("api key authentication failed", slog.String("reason", reason))

			err := trail.Record(ctx, auditDomain.Event{
				Action:     auditDomain.ActionAPIAccess,
				Resource:   auditDomain.ResourceAPI,
				ResourceID: c.Request.Method + " " + c.FullPath(),
				ActorID:    actor,
				Outcome:    auditDomain.OutcomeFailure,
				Detail:     reason,
			})
			if err != nil {
				httputil.HandleErrorGin(c, err, logger)
				c.Abort()
				return
			}

			httputil.HandleErrorGin(c, credentialDomain.ErrInvalidCredentials, logger)
			c.Abort()
		}

		if rawID == "" || candidate == "" {
			reject(nil, "missing credentials")
			return
		}

		principalID, err := uuid.Parse(rawID)
		if err != nil {
			reject(nil, "malformed principal id")
			return
		}

		ok, err := guard.VerifyAPIKey(ctx, principalID, candidate)
		if err != nil {
			httputil.HandleErrorGin(c, apperrors.Wrap(err, "verify api key"), logger)
			c.Abort()
			return
		}
		if !ok {
			reject(&principalID, "invalid or expired api key")
			return
		}

		c.Request = c.Request.WithContext(WithPrincipalID(ctx, principalID))

		logger.Debug("api key authentication successful",
			slog.String("principal_id", principalID.String()))

		c.Next()
	}
}
