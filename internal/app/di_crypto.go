package app

import (
	"errors"
	"fmt"

	cryptoService "github.com/allisson/billvault/internal/crypto/service"
)

// KeyGateway returns the KMS key gateway opened from KMS_KEY_URI.
func (c *Container) KeyGateway() (*cryptoService.KeeperGateway, error) {
	c.keyGatewayInit.Do(func() {
		gateway, err := c.initKeyGateway()
		c.record("keyGateway", err)
		c.keyGateway = gateway
	})
	if err := c.initError("keyGateway"); err != nil {
		return nil, err
	}
	return c.keyGateway, nil
}

// EnvelopeEngine returns the envelope encryption engine.
func (c *Container) EnvelopeEngine() (*cryptoService.EnvelopeEngine, error) {
	c.envelopeEngineInit.Do(func() {
		gateway, err := c.KeyGateway()
		if err != nil {
			c.record("envelopeEngine", fmt.Errorf("failed to get key gateway for envelope engine: %w", err))
			return
		}
		c.envelopeEngine = cryptoService.NewEnvelopeEngine(gateway, cryptoService.NewCBCCipher())
	})
	if err := c.initError("envelopeEngine"); err != nil {
		return nil, err
	}
	return c.envelopeEngine, nil
}

// FieldCodec returns the codec for encrypted database fields.
func (c *Container) FieldCodec() (*cryptoService.FieldCodec, error) {
	c.fieldCodecInit.Do(func() {
		engine, err := c.EnvelopeEngine()
		if err != nil {
			c.record("fieldCodec", fmt.Errorf("failed to get envelope engine for field codec: %w", err))
			return
		}
		c.fieldCodec = cryptoService.NewFieldCodec(engine)
	})
	if err := c.initError("fieldCodec"); err != nil {
		return nil, err
	}
	return c.fieldCodec, nil
}

func (c *Container) initKeyGateway() (*cryptoService.KeeperGateway, error) {
	if c.config.KMSKeyURI == "" {
		return nil, errors.New("KMS_KEY_URI is required")
	}

	gateway, err := cryptoService.OpenKeeperGateway(c.ctx, c.config.KMSKeyURI, c.config.KMSTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open key gateway: %w", err)
	}
	return gateway, nil
}
