package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	cryptoDomain "github.com/allisson/billvault/internal/crypto/domain"
)

// RunGenerateKeys prints freshly generated key material for local
// development: a base64key:// master key URI and an audit signing key.
// Production deployments point KMS_KEY_URI at a cloud key instead.
func RunGenerateKeys(writer io.Writer, format string) error {
	masterKey := make([]byte, cryptoDomain.KeySize)
	defer cryptoDomain.Zero(masterKey)
	signingKey := make([]byte, cryptoDomain.KeySize)
	defer cryptoDomain.Zero(signingKey)

	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	if _, err := rand.Read(signingKey); err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}

	kmsKeyURI := "base64key://" + base64.URLEncoding.EncodeToString(masterKey)
	auditSigningKey := base64.StdEncoding.EncodeToString(signingKey)

	if format == "json" {
		return writeJSON(writer, map[string]string{
			"kms_key_uri":       kmsKeyURI,
			"audit_signing_key": auditSigningKey,
		})
	}

	_, _ = fmt.Fprintln(writer, "# Local key material. Use a cloud KMS key URI in production.")
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	_, _ = fmt.Fprintf(writer, "AUDIT_SIGNING_KEY=\"%s\"\n", auditSigningKey)
	return nil
}
