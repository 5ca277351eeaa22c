package app

import (
	"encoding/base64"
	"errors"
	"fmt"

	auditRepository "github.com/allisson/billvault/internal/audit/repository"
	auditService "github.com/allisson/billvault/internal/audit/service"
	auditUseCase "github.com/allisson/billvault/internal/audit/usecase"
	"github.com/allisson/billvault/internal/database"
)

// AuditRepository returns the audit entry repository for the configured driver.
func (c *Container) AuditRepository() (auditUseCase.Repository, error) {
	c.auditRepositoryInit.Do(func() {
		repo, err := c.initAuditRepository()
		c.record("auditRepository", err)
		c.auditRepository = repo
	})
	if err := c.initError("auditRepository"); err != nil {
		return nil, err
	}
	return c.auditRepository, nil
}

// AuditTrail returns the audit trail.
func (c *Container) AuditTrail() (auditUseCase.Trail, error) {
	c.auditTrailInit.Do(func() {
		trail, err := c.initAuditTrail()
		c.record("auditTrail", err)
		c.auditTrail = trail
	})
	if err := c.initError("auditTrail"); err != nil {
		return nil, err
	}
	return c.auditTrail, nil
}

func (c *Container) initAuditRepository() (auditUseCase.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit repository: %w", err)
	}

	switch c.config.DBDriver {
	case database.DriverPostgres:
		return auditRepository.NewPostgreSQLAuditRepository(db), nil
	case database.DriverMySQL:
		return auditRepository.NewMySQLAuditRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initAuditTrail() (auditUseCase.Trail, error) {
	repo, err := c.AuditRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit repository for audit trail: %w", err)
	}

	keyMaterial, err := decodeBase64Key(c.config.AuditSigningKey)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIT_SIGNING_KEY: %w", err)
	}

	signer, err := auditService.NewSigner(keyMaterial)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit signer: %w", err)
	}

	return auditUseCase.NewTrail(repo, auditService.NewRedactor(), signer, c.Logger(), nil), nil
}

// decodeBase64Key decodes base64 key material from configuration.
func decodeBase64Key(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, errors.New("key is empty")
	}
	return base64.StdEncoding.DecodeString(encoded)
}
