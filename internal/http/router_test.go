package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	artifactDomain "github.com/allisson/billvault/internal/artifact/domain"
	artifactHTTP "github.com/allisson/billvault/internal/artifact/http"
	auditDomain "github.com/allisson/billvault/internal/audit/domain"
	"github.com/allisson/billvault/internal/config"
	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
	credentialHTTP "github.com/allisson/billvault/internal/credential/http"
	"github.com/allisson/billvault/internal/metrics"
)

const (
	validPrincipalKey = "valid-key"
	artifactName      = "0000000000000000000000000000000000000000000000000000000000000000.pdf"
)

// stubGuard accepts validPrincipalKey for any principal.
type stubGuard struct{}

func (stubGuard) CreatePrincipal(ctx context.Context, name, password string) (*credentialDomain.Principal, error) {
	return &credentialDomain.Principal{Name: name}, nil
}

func (stubGuard) SetPassword(ctx context.Context, principalID uuid.UUID, password string) error {
	return nil
}

func (stubGuard) CheckPassword(
	ctx context.Context,
	principalID uuid.UUID,
	password string,
) (credentialDomain.Verdict, error) {
	return credentialDomain.VerdictRejected, nil
}

func (stubGuard) IssueAPIKey(
	ctx context.Context,
	principalID uuid.UUID,
	ttl time.Duration,
) (*credentialDomain.IssuedAPIKey, error) {
	return &credentialDomain.IssuedAPIKey{PrincipalID: principalID}, nil
}

func (stubGuard) VerifyAPIKey(ctx context.Context, principalID uuid.UUID, candidate string) (bool, error) {
	return candidate == validPrincipalKey, nil
}

func (stubGuard) RevokeAPIKey(ctx context.Context, principalID uuid.UUID) error {
	return nil
}

// stubStore serves a single fixed artifact.
type stubStore struct{}

func (stubStore) Submit(
	ctx context.Context,
	data []byte,
	declaredFilename string,
	ownerID uuid.UUID,
) (*artifactDomain.StoredArtifact, error) {
	return nil, artifactDomain.ErrUnsupportedType
}

func (stubStore) Retrieve(
	ctx context.Context,
	name string,
	requesterID uuid.UUID,
) (*artifactDomain.RetrievedArtifact, error) {
	if name != artifactName {
		return nil, artifactDomain.ErrArtifactNotFound
	}
	return &artifactDomain.RetrievedArtifact{
		Name:        name,
		ContentType: artifactDomain.ContentTypePDF,
		Data:        []byte("%PDF-1.7\n"),
	}, nil
}

func (stubStore) Purge(ctx context.Context, name string, requesterID uuid.UUID) error {
	return nil
}

func newTestRouter(t *testing.T, cfg *config.Config, trail *recordingTrail, provider *metrics.Provider) http.Handler {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewServer(nil, "localhost", 8080, logger)
	server.SetupRouter(
		ctx,
		cfg,
		artifactHTTP.NewArtifactHandler(stubStore{}, 1024, logger),
		credentialHTTP.NewCredentialHandler(stubGuard{}, logger),
		stubGuard{},
		trail,
		provider,
	)
	return server.GetHandler()
}

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:                "error",
		RateLimitEnabled:        true,
		RateLimitRequestsPerSec: 100,
		RateLimitBurst:          100,
		MetricsNamespace:        "test",
	}
}

func TestSetupRouter_ProtectedRoutesRequireAPIKey(t *testing.T) {
	trail := &recordingTrail{}
	router := newTestRouter(t, testConfig(), trail, nil)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v1/artifacts"},
		{http.MethodGet, "/v1/artifacts/" + artifactName},
		{http.MethodDelete, "/v1/artifacts/" + artifactName},
		{http.MethodDelete, "/v1/auth/api-keys"},
		{http.MethodPut, "/v1/principals/me/password"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	events := trail.snapshot()
	require.Len(t, events, len(routes))
	for _, event := range events {
		assert.Equal(t, auditDomain.ActionAPIAccess, event.Action)
		assert.Equal(t, auditDomain.OutcomeFailure, event.Outcome)
	}
}

func TestSetupRouter_AuthenticatedRetrieve(t *testing.T) {
	router := newTestRouter(t, testConfig(), &recordingTrail{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/artifacts/"+artifactName, nil)
	req.Header.Set(credentialHTTP.PrincipalIDHeader, uuid.Must(uuid.NewV7()).String())
	req.Header.Set(credentialHTTP.APIKeyHeader, validPrincipalKey)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestSetupRouter_IssueAPIKeyIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig(), &recordingTrail{}, nil)

	body := `{"principal_id":"` + uuid.Must(uuid.NewV7()).String() + `","password":"wrong"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/api-keys", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	// Reaches the handler, which reports the rejected password.
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "unauthorized", response["error"])
}

func TestSetupRouter_RateLimitAppliesToAPIOnly(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRequestsPerSec = 0.01
	cfg.RateLimitBurst = 1
	trail := &recordingTrail{}
	router := newTestRouter(t, cfg, trail, nil)

	send := func(path string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, send("/v1/artifacts/"+artifactName))
	assert.Equal(t, http.StatusTooManyRequests, send("/v1/artifacts/"+artifactName))
	assert.Equal(t, http.StatusOK, send("/health"))
	assert.Equal(t, http.StatusOK, send("/health"))
}

func TestSetupRouter_HTTPMetrics(t *testing.T) {
	provider, err := metrics.NewProvider("test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	router := newTestRouter(t, testConfig(), &recordingTrail{}, provider)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	// Metrics are exposed by the metrics server only.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestReadinessHandler_Ready(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()
	mock.ExpectPing()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewServer(db, "localhost", 8080, logger)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	server.readinessHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestRequestMetaMiddleware(t *testing.T) {
	var meta auditDomain.RequestMeta

	router := gin.New()
	router.Use(RequestMetaMiddleware())
	router.GET("/test", func(c *gin.Context) {
		meta = auditDomain.RequestMetaFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.1.2.3:4567"
	req.Header.Set("User-Agent", "billing-sync/1.0")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "10.1.2.3", meta.SourceAddress)
	assert.Equal(t, "billing-sync/1.0", meta.AgentString)
}
