package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	credentialHTTP "github.com/allisson/billvault/internal/credential/http"
)

// corsMiddleware returns the CORS stage for browser clients, or nil when CORS
// is disabled or no usable origin is configured.
//
// Callers authenticate with headers, never cookies, so credentialed requests
// are not allowed and wildcard origins are rejected.
func corsMiddleware(enabled bool, allowOrigins string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := parseOrigins(allowOrigins, logger)
	if len(origins) == 0 {
		logger.Warn("CORS enabled but no valid origins configured, CORS will not be applied")
		return nil
	}

	logger.Info("CORS enabled", slog.Any("origins", origins))

	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{
			"Content-Type",
			credentialHTTP.PrincipalIDHeader,
			credentialHTTP.APIKeyHeader,
		},
		ExposeHeaders: []string{"X-Request-Id", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	})
}

// parseOrigins splits a comma-separated origin list and keeps the entries
// that are a bare http(s) scheme and host. Others are logged and dropped.
func parseOrigins(raw string, logger *slog.Logger) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		candidate := strings.TrimSpace(part)
		if candidate == "" {
			continue
		}

		origin, ok := normalizeOrigin(candidate)
		if !ok {
			logger.Warn("ignoring invalid CORS origin", slog.String("origin", candidate))
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}

func normalizeOrigin(candidate string) (string, bool) {
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" || strings.Contains(u.Host, "*") {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return "", false
	}
	return u.Scheme + "://" + strings.ToLower(u.Host), true
}
