package app

import (
	"fmt"

	credentialDomain "github.com/allisson/billvault/internal/credential/domain"
	credentialHTTP "github.com/allisson/billvault/internal/credential/http"
	credentialRepository "github.com/allisson/billvault/internal/credential/repository"
	credentialService "github.com/allisson/billvault/internal/credential/service"
	credentialUseCase "github.com/allisson/billvault/internal/credential/usecase"
	"github.com/allisson/billvault/internal/database"
)

// PrincipalRepository returns the principal repository for the configured driver.
func (c *Container) PrincipalRepository() (credentialUseCase.PrincipalRepository, error) {
	c.principalRepositoryInit.Do(func() {
		repo, err := c.initPrincipalRepository()
		c.record("principalRepository", err)
		c.principalRepository = repo
	})
	if err := c.initError("principalRepository"); err != nil {
		return nil, err
	}
	return c.principalRepository, nil
}

// PasswordHasher returns the password hasher.
func (c *Container) PasswordHasher() (credentialService.PasswordHasher, error) {
	c.passwordHasherInit.Do(func() {
		hasher, err := credentialService.NewPasswordHasher()
		if err != nil {
			err = fmt.Errorf("failed to create password hasher: %w", err)
		}
		c.record("passwordHasher", err)
		c.passwordHasher = hasher
	})
	if err := c.initError("passwordHasher"); err != nil {
		return nil, err
	}
	return c.passwordHasher, nil
}

// Guard returns the credential guard, wrapped with metrics.
func (c *Container) Guard() (credentialUseCase.Guard, error) {
	c.guardInit.Do(func() {
		guard, err := c.initGuard()
		c.record("guard", err)
		c.guard = guard
	})
	if err := c.initError("guard"); err != nil {
		return nil, err
	}
	return c.guard, nil
}

// CredentialHandler returns the HTTP handler for credential endpoints.
func (c *Container) CredentialHandler() (*credentialHTTP.CredentialHandler, error) {
	c.credentialHandlerInit.Do(func() {
		guard, err := c.Guard()
		if err != nil {
			c.record("credentialHandler", fmt.Errorf("failed to get guard for credential handler: %w", err))
			return
		}
		c.credentialHandler = credentialHTTP.NewCredentialHandler(guard, c.Logger())
	})
	if err := c.initError("credentialHandler"); err != nil {
		return nil, err
	}
	return c.credentialHandler, nil
}

func (c *Container) initPrincipalRepository() (credentialUseCase.PrincipalRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for principal repository: %w", err)
	}

	switch c.config.DBDriver {
	case database.DriverPostgres:
		return credentialRepository.NewPostgreSQLPrincipalRepository(db), nil
	case database.DriverMySQL:
		return credentialRepository.NewMySQLPrincipalRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initGuard() (credentialUseCase.Guard, error) {
	repo, err := c.PrincipalRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal repository for guard: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for guard: %w", err)
	}

	hasher, err := c.PasswordHasher()
	if err != nil {
		return nil, err
	}

	trail, err := c.AuditTrail()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail for guard: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for guard: %w", err)
	}

	guard, err := credentialUseCase.NewGuard(
		repo,
		txManager,
		credentialService.NewPasswordPolicy(c.config.PasswordMinLength),
		hasher,
		credentialService.NewTokenService(),
		trail,
		credentialUseCase.GuardConfig{
			Lockout: credentialDomain.LockoutPolicy{
				MaxAttempts:        c.config.LockoutMaxAttempts,
				LockoutDuration:    c.config.LockoutDuration,
				MinAttemptInterval: c.config.MinAttemptInterval,
			},
			APIKeyTTL:    c.config.APIKeyTTL,
			APIKeyMaxTTL: c.config.APIKeyMaxTTL,
		},
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create guard: %w", err)
	}

	return credentialUseCase.NewGuardWithMetrics(guard, businessMetrics), nil
}
