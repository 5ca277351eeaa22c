package config

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/billvault/internal/validation"
)

// auditKeyMinBytes is the shortest accepted HMAC key for audit signatures.
const auditKeyMinBytes = 32

// Validate reports configuration the server cannot start with. Every field
// error is included.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DBDriver, validation.Required, validation.In("postgres", "mysql")),
		validation.Field(&c.DBConnectionString, validation.Required),
		validation.Field(&c.ServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.KMSKeyURI, validation.Required, customValidation.NoWhitespace),
		validation.Field(&c.KMSTimeout, validation.Required, validation.Min(0).Exclusive()),
		validation.Field(&c.ArtifactStoreDriver, validation.Required, validation.In("blob", "minio")),
		validation.Field(&c.ArtifactBucketURL,
			validation.When(c.ArtifactStoreDriver == "blob", validation.Required)),
		validation.Field(&c.MinioEndpoint,
			validation.When(c.ArtifactStoreDriver == "minio", validation.Required)),
		validation.Field(&c.MinioBucket,
			validation.When(c.ArtifactStoreDriver == "minio", validation.Required)),
		validation.Field(&c.ArtifactMaxSizeBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.AuditSigningKey,
			validation.Required,
			customValidation.Base64Key{MinBytes: auditKeyMinBytes},
		),
		validation.Field(&c.PasswordMinLength, validation.Min(8), validation.Max(128)),
		validation.Field(&c.LockoutMaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.LockoutDuration, validation.Required),
		validation.Field(&c.APIKeyTTL,
			validation.Required,
			validation.Max(c.APIKeyMaxTTL).Error("must not exceed the API key max TTL"),
		),
		validation.Field(&c.APIKeyMaxTTL, validation.Required),
		validation.Field(&c.RateLimitRequestsPerSec,
			validation.When(c.RateLimitEnabled, validation.Required, validation.Min(0.0).Exclusive())),
		validation.Field(&c.RateLimitBurst,
			validation.When(c.RateLimitEnabled, validation.Required, validation.Min(1))),
		validation.Field(&c.MetricsPort,
			validation.When(c.MetricsEnabled,
				validation.Required,
				validation.Max(65535),
				validation.NotIn(c.ServerPort).Error("must differ from the server port"),
			)),
	)
}
