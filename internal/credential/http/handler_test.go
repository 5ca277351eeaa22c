package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
	"github.com/allisson/billvault/internal/credential/http/dto"
	credentialUseCase "github.com/allisson/billvault/internal/credential/usecase"
)

// mockGuard is a mock implementation of usecase.Guard for testing.
type mockGuard struct {
	mock.Mock
}

func (m *mockGuard) CreatePrincipal(
	ctx context.Context,
	name, password string,
) (*credentialDomain.Principal, error) {
	args := m.Called(ctx, name, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*credentialDomain.Principal), args.Error(1)
}

func (m *mockGuard) SetPassword(ctx context.Context, principalID uuid.UUID, password string) error {
	args := m.Called(ctx, principalID, password)
	return args.Error(0)
}

func (m *mockGuard) CheckPassword(
	ctx context.Context,
	principalID uuid.UUID,
	password string,
) (credentialDomain.Verdict, error) {
	args := m.Called(ctx, principalID, password)
	return args.Get(0).(credentialDomain.Verdict), args.Error(1)
}

func (m *mockGuard) IssueAPIKey(
	ctx context.Context,
	principalID uuid.UUID,
	ttl time.Duration,
) (*credentialDomain.IssuedAPIKey, error) {
	args := m.Called(ctx, principalID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*credentialDomain.IssuedAPIKey), args.Error(1)
}

func (m *mockGuard) VerifyAPIKey(ctx context.Context, principalID uuid.UUID, candidate string) (bool, error) {
	args := m.Called(ctx, principalID, candidate)
	return args.Bool(0), args.Error(1)
}

func (m *mockGuard) RevokeAPIKey(ctx context.Context, principalID uuid.UUID) error {
	args := m.Called(ctx, principalID)
	return args.Error(0)
}

var _ credentialUseCase.Guard = (*mockGuard)(nil)

func setupTestHandler(t *testing.T) (*CredentialHandler, *mockGuard) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	guard := &mockGuard{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewCredentialHandler(guard, logger), guard
}

// createTestContext creates a test Gin context with the given request.
func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func authenticated(c *gin.Context, principalID uuid.UUID) {
	c.Request = c.Request.WithContext(WithPrincipalID(c.Request.Context(), principalID))
}

func TestCredentialHandler_IssueAPIKeyHandler(t *testing.T) {
	principalID := uuid.Must(uuid.NewV7())

	t.Run("Success_ValidPassword", func(t *testing.T) {
		handler, guard := setupTestHandler(t)
		expiresAt := time.Now().UTC().Add(30 * 24 * time.Hour)

		guard.On("CheckPassword", mock.Anything, principalID, "correct horse").
			Return(credentialDomain.VerdictAccepted, nil).
			Once()
		guard.On("IssueAPIKey", mock.Anything, principalID, time.Duration(0)).
			Return(&credentialDomain.IssuedAPIKey{
				PrincipalID: principalID,
				Token:       "key-material",
				ExpiresAt:   expiresAt,
			}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/api-keys", dto.IssueAPIKeyRequest{
			PrincipalID: principalID.String(),
			Password:    "correct horse",
		})

		handler.IssueAPIKeyHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.IssueAPIKeyResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, principalID.String(), response.PrincipalID)
		assert.Equal(t, "key-material", response.APIKey)
		assert.Equal(t, expiresAt.Unix(), response.ExpiresAt.Unix())

		guard.AssertExpectations(t)
	})

	t.Run("Success_CustomTTL", func(t *testing.T) {
		handler, guard := setupTestHandler(t)

		guard.On("CheckPassword", mock.Anything, principalID, "pw").
			Return(credentialDomain.VerdictAccepted, nil).
			Once()
		guard.On("IssueAPIKey", mock.Anything, principalID, time.Hour).
			Return(&credentialDomain.IssuedAPIKey{PrincipalID: principalID, Token: "k"}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/api-keys", dto.IssueAPIKeyRequest{
			PrincipalID: principalID.String(),
			Password:    "pw",
			TTLSeconds:  3600,
		})

		handler.IssueAPIKeyHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		guard.AssertExpectations(t)
	})

	t.Run("Error_VerdictsMapToStatus", func(t *testing.T) {
		tests := []struct {
			verdict credentialDomain.Verdict
			status  int
		}{
			{credentialDomain.VerdictRejected, http.StatusUnauthorized},
			{credentialDomain.VerdictLocked, http.StatusLocked},
			{credentialDomain.VerdictThrottled, http.StatusTooManyRequests},
		}

		for _, tt := range tests {
			t.Run(string(tt.verdict), func(t *testing.T) {
				handler, guard := setupTestHandler(t)

				guard.On("CheckPassword", mock.Anything, principalID, "pw").
					Return(tt.verdict, nil).
					Once()

				c, w := createTestContext(http.MethodPost, "/v1/auth/api-keys", dto.IssueAPIKeyRequest{
					PrincipalID: principalID.String(),
					Password:    "pw",
				})

				handler.IssueAPIKeyHandler(c)

				assert.Equal(t, tt.status, w.Code)
				guard.AssertNotCalled(t, "IssueAPIKey", mock.Anything, mock.Anything, mock.Anything)
				guard.AssertExpectations(t)
			})
		}
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/v1/auth/api-keys", bytes.NewBufferString("{"))
		c.Request.Header.Set("Content-Type", "application/json")

		handler.IssueAPIKeyHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_MissingPassword", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/auth/api-keys", dto.IssueAPIKeyRequest{
			PrincipalID: principalID.String(),
		})

		handler.IssueAPIKeyHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_NegativeTTL", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/auth/api-keys", dto.IssueAPIKeyRequest{
			PrincipalID: principalID.String(),
			Password:    "pw",
			TTLSeconds:  -1,
		})

		handler.IssueAPIKeyHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_TTLOverflowsDuration", func(t *testing.T) {
		for _, ttl := range []int64{dto.MaxTTLSeconds + 1, 20000000000} {
			handler, guard := setupTestHandler(t)

			c, w := createTestContext(http.MethodPost, "/v1/auth/api-keys", dto.IssueAPIKeyRequest{
				PrincipalID: principalID.String(),
				Password:    "pw",
				TTLSeconds:  ttl,
			})

			handler.IssueAPIKeyHandler(c)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Contains(t, response["message"], "ttl_seconds")
			guard.AssertNotCalled(t, "CheckPassword", mock.Anything, mock.Anything, mock.Anything)
			guard.AssertNotCalled(t, "IssueAPIKey", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("Error_TTLAboveMax", func(t *testing.T) {
		handler, guard := setupTestHandler(t)
		ttl := 400 * 24 * time.Hour

		guard.On("CheckPassword", mock.Anything, principalID, "pw").
			Return(credentialDomain.VerdictAccepted, nil).
			Once()
		guard.On("IssueAPIKey", mock.Anything, principalID, ttl).
			Return(nil, credentialDomain.ErrInvalidTTL).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/api-keys", dto.IssueAPIKeyRequest{
			PrincipalID: principalID.String(),
			Password:    "pw",
			TTLSeconds:  int64(ttl / time.Second),
		})

		handler.IssueAPIKeyHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		guard.AssertExpectations(t)
	})

	t.Run("Error_InvalidPrincipalID", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/auth/api-keys", dto.IssueAPIKeyRequest{
			PrincipalID: "not-a-uuid",
			Password:    "pw",
		})

		handler.IssueAPIKeyHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Contains(t, response["message"], "principal_id")
	})

	t.Run("Error_GuardFailure", func(t *testing.T) {
		handler, guard := setupTestHandler(t)

		guard.On("CheckPassword", mock.Anything, principalID, "pw").
			Return(credentialDomain.Verdict(""), errors.New("database down")).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/auth/api-keys", dto.IssueAPIKeyRequest{
			PrincipalID: principalID.String(),
			Password:    "pw",
		})

		handler.IssueAPIKeyHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		guard.AssertExpectations(t)
	})
}

func TestCredentialHandler_RevokeAPIKeyHandler(t *testing.T) {
	principalID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		handler, guard := setupTestHandler(t)

		guard.On("RevokeAPIKey", mock.Anything, principalID).Return(nil).Once()

		c, w := createTestContext(http.MethodDelete, "/v1/auth/api-keys", nil)
		authenticated(c, principalID)

		handler.RevokeAPIKeyHandler(c)

		assert.Equal(t, http.StatusNoContent, w.Code)
		guard.AssertExpectations(t)
	})

	t.Run("Error_Unauthenticated", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodDelete, "/v1/auth/api-keys", nil)

		handler.RevokeAPIKeyHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Error_PrincipalGone", func(t *testing.T) {
		handler, guard := setupTestHandler(t)

		guard.On("RevokeAPIKey", mock.Anything, principalID).
			Return(credentialDomain.ErrPrincipalNotFound).
			Once()

		c, w := createTestContext(http.MethodDelete, "/v1/auth/api-keys", nil)
		authenticated(c, principalID)

		handler.RevokeAPIKeyHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCredentialHandler_SetPasswordHandler(t *testing.T) {
	principalID := uuid.Must(uuid.NewV7())
	request := dto.SetPasswordRequest{
		CurrentPassword: "Old-Passw0rd!!",
		NewPassword:     "New-Passw0rd!!",
	}

	t.Run("Success", func(t *testing.T) {
		handler, guard := setupTestHandler(t)

		guard.On("CheckPassword", mock.Anything, principalID, request.CurrentPassword).
			Return(credentialDomain.VerdictAccepted, nil).
			Once()
		guard.On("SetPassword", mock.Anything, principalID, request.NewPassword).
			Return(nil).
			Once()

		c, w := createTestContext(http.MethodPut, "/v1/principals/me/password", request)
		authenticated(c, principalID)

		handler.SetPasswordHandler(c)

		assert.Equal(t, http.StatusNoContent, w.Code)
		guard.AssertExpectations(t)
	})

	t.Run("Error_WrongCurrentPassword", func(t *testing.T) {
		handler, guard := setupTestHandler(t)

		guard.On("CheckPassword", mock.Anything, principalID, request.CurrentPassword).
			Return(credentialDomain.VerdictRejected, nil).
			Once()

		c, w := createTestContext(http.MethodPut, "/v1/principals/me/password", request)
		authenticated(c, principalID)

		handler.SetPasswordHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		guard.AssertNotCalled(t, "SetPassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_PolicyViolation", func(t *testing.T) {
		handler, guard := setupTestHandler(t)

		guard.On("CheckPassword", mock.Anything, principalID, request.CurrentPassword).
			Return(credentialDomain.VerdictAccepted, nil).
			Once()
		guard.On("SetPassword", mock.Anything, principalID, request.NewPassword).
			Return(credentialDomain.ErrPolicyViolation).
			Once()

		c, w := createTestContext(http.MethodPut, "/v1/principals/me/password", request)
		authenticated(c, principalID)

		handler.SetPasswordHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		guard.AssertExpectations(t)
	})

	t.Run("Error_MissingNewPassword", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPut, "/v1/principals/me/password", dto.SetPasswordRequest{
			CurrentPassword: "x",
		})
		authenticated(c, principalID)

		handler.SetPasswordHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_Unauthenticated", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPut, "/v1/principals/me/password", request)

		handler.SetPasswordHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
