package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/billvault/internal/crypto/domain"
	customValidation "github.com/allisson/billvault/internal/validation"
)

// FieldCodec encrypts single field values.
type FieldCodec interface {
	Encode(ctx context.Context, value string) (cryptoDomain.StoredField, error)
	Decode(ctx context.Context, stored cryptoDomain.StoredField) (string, bool)
}

// RunEncryptField encrypts one value read from the reader and prints its
// stored form.
func RunEncryptField(
	ctx context.Context,
	codec FieldCodec,
	logger *slog.Logger,
	format string,
	io Streams,
) error {
	value, err := readLine(bufio.NewReader(io.Reader), io.Writer, "Value: ")
	if err != nil {
		return fmt.Errorf("failed to read value: %w", err)
	}

	stored, err := codec.Encode(ctx, value)
	if err != nil {
		return fmt.Errorf("failed to encrypt field: %w", err)
	}

	if format == "json" {
		if err := writeJSON(io.Writer, stored); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(io.Writer, "\nData: %s\n", stored.Data)
		_, _ = fmt.Fprintf(io.Writer, "Key:  %s\n", stored.Key)
	}

	logger.Info("field encrypted")
	return nil
}

// RunDecryptField decrypts a stored field given its base64 data and key.
func RunDecryptField(
	ctx context.Context,
	codec FieldCodec,
	logger *slog.Logger,
	writer io.Writer,
	data, key string,
) error {
	stored := cryptoDomain.StoredField{Data: data, Key: key}
	err := validation.ValidateStruct(&stored,
		validation.Field(&stored.Data, validation.Required, customValidation.Base64),
		validation.Field(&stored.Key, validation.Required, customValidation.Base64),
	)
	if err != nil {
		return fmt.Errorf("invalid stored field: %w", err)
	}

	value, ok := codec.Decode(ctx, stored)
	if !ok {
		return fmt.Errorf("failed to decrypt field: value is corrupt or was encrypted under another key")
	}

	_, _ = fmt.Fprintln(writer, value)
	logger.Info("field decrypted")
	return nil
}
