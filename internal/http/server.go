// Package http provides the HTTP server, its request pipeline stages and the
// health endpoints.
package http

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	artifactHTTP "github.com/allisson/billvault/internal/artifact/http"
	auditUseCase "github.com/allisson/billvault/internal/audit/usecase"
	"github.com/allisson/billvault/internal/config"
	credentialHTTP "github.com/allisson/billvault/internal/credential/http"
	credentialUseCase "github.com/allisson/billvault/internal/credential/usecase"
	"github.com/allisson/billvault/internal/metrics"
)

// Server represents the HTTP server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The router is installed by SetupRouter.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// SetupRouter builds the request pipeline and registers all routes.
//
// Every request passes recovery, request id, logging, request meta and
// security headers, then the optional CORS and HTTP metrics stages. Routes
// under /v1 are additionally rate limited per client IP when enabled, and
// all of them except API key issuance require API-key authentication.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	artifactHandler *artifactHTTP.ArtifactHandler,
	credentialHandler *credentialHTTP.CredentialHandler,
	guard credentialUseCase.Guard,
	trail auditUseCase.Trail,
	metricsProvider *metrics.Provider,
) {
	gin.SetMode(cfg.GinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	router.Use(RequestMetaMiddleware())
	router.Use(SecurityHeadersMiddleware())

	if cors := corsMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); cors != nil {
		router.Use(cors)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, trail, s.logger))
	}

	v1.POST("/auth/api-keys", credentialHandler.IssueAPIKeyHandler)

	authenticated := v1.Group("")
	authenticated.Use(credentialHTTP.APIKeyAuthenticationMiddleware(guard, trail, s.logger))
	{
		authenticated.DELETE("/auth/api-keys", credentialHandler.RevokeAPIKeyHandler)
		authenticated.PUT("/principals/me/password", credentialHandler.SetPasswordHandler)

		authenticated.POST("/artifacts", artifactHandler.SubmitHandler)
		authenticated.GET("/artifacts/:name", artifactHandler.RetrieveHandler)
		authenticated.DELETE("/artifacts/:name", artifactHandler.PurgeHandler)
	}

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves the API until Shutdown. SetupRouter must be called first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return errors.New("router not configured")
	}
	s.server.Handler = s.router
	return listenAndServe(s.server, "http", s.logger)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// listenAndServe runs srv until it is shut down. A shutdown is not an error.
func listenAndServe(srv *http.Server, name string, logger *slog.Logger) error {
	logger.Info("starting "+name+" server", slog.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start %s server: %w", name, err)
	}
	return nil
}

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the database is reachable.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	database := "ok"
	if s.db == nil || s.db.PingContext(ctx) != nil {
		database = "error"
	}

	if database != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": database},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": database},
	})
}
