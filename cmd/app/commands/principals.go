package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	credentialUseCase "github.com/allisson/billvault/internal/credential/usecase"
)

// RunCreatePrincipal creates a principal named name. The initial password is
// read twice from the reader.
func RunCreatePrincipal(
	ctx context.Context,
	guard credentialUseCase.Guard,
	logger *slog.Logger,
	name string,
	format string,
	io Streams,
) error {
	password, err := readNewPassword(io)
	if err != nil {
		return err
	}

	principal, err := guard.CreatePrincipal(ctx, name, password)
	if err != nil {
		return fmt.Errorf("failed to create principal: %w", err)
	}

	if format == "json" {
		if err := writeJSON(io.Writer, map[string]any{
			"id":   principal.ID.String(),
			"name": principal.Name,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(io.Writer, "\nPrincipal created successfully\n\n")
		_, _ = fmt.Fprintf(io.Writer, "ID:   %s\n", principal.ID)
		_, _ = fmt.Fprintf(io.Writer, "Name: %s\n", principal.Name)
	}

	logger.Info("principal created",
		slog.String("principal_id", principal.ID.String()),
		slog.String("name", principal.Name),
	)
	return nil
}

// RunSetPassword replaces the password of a principal. The new password is
// read twice from the reader.
func RunSetPassword(
	ctx context.Context,
	guard credentialUseCase.Guard,
	logger *slog.Logger,
	principalID string,
	io Streams,
) error {
	id, err := parsePrincipalID(principalID)
	if err != nil {
		return err
	}

	password, err := readNewPassword(io)
	if err != nil {
		return err
	}

	if err := guard.SetPassword(ctx, id, password); err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}

	_, _ = fmt.Fprintf(io.Writer, "\nPassword updated for principal %s\n", id)
	logger.Info("password updated", slog.String("principal_id", id.String()))
	return nil
}

// RunIssueAPIKey issues a new API key for a principal, replacing any previous
// key. A zero ttl selects the configured default lifetime.
func RunIssueAPIKey(
	ctx context.Context,
	guard credentialUseCase.Guard,
	logger *slog.Logger,
	writer io.Writer,
	principalID string,
	ttl time.Duration,
	format string,
) error {
	id, err := parsePrincipalID(principalID)
	if err != nil {
		return err
	}
	if ttl < 0 {
		return fmt.Errorf("ttl must not be negative")
	}

	issued, err := guard.IssueAPIKey(ctx, id, ttl)
	if err != nil {
		return fmt.Errorf("failed to issue api key: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"principal_id": issued.PrincipalID.String(),
			"api_key":      issued.Token,
			"expires_at":   issued.ExpiresAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "API key issued successfully\n\n")
		_, _ = fmt.Fprintf(writer, "Principal ID: %s\n", issued.PrincipalID)
		_, _ = fmt.Fprintf(writer, "API Key:      %s\n", issued.Token)
		_, _ = fmt.Fprintf(writer, "Expires At:   %s\n\n", issued.ExpiresAt.UTC().Format(time.RFC3339))
		_, _ = fmt.Fprintf(writer, "WARNING: Save the API key securely. It will not be shown again.\n")
	}

	logger.Info("api key issued", slog.String("principal_id", id.String()))
	return nil
}

// RunRevokeAPIKey clears the API key of a principal.
func RunRevokeAPIKey(
	ctx context.Context,
	guard credentialUseCase.Guard,
	logger *slog.Logger,
	writer io.Writer,
	principalID string,
) error {
	id, err := parsePrincipalID(principalID)
	if err != nil {
		return err
	}

	if err := guard.RevokeAPIKey(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "API key revoked for principal %s\n", id)
	logger.Info("api key revoked", slog.String("principal_id", id.String()))
	return nil
}

func parsePrincipalID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid principal id: must be a valid UUID")
	}
	return id, nil
}

// readNewPassword prompts for a password and its confirmation.
func readNewPassword(io Streams) (string, error) {
	reader := bufio.NewReader(io.Reader)

	password, err := readLine(reader, io.Writer, "Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	confirmation, err := readLine(reader, io.Writer, "Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}

	if password != confirmation {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}
