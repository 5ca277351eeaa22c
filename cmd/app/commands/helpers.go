// Package commands implements the billvault CLI actions. Actions take their
// dependencies and streams as arguments so tests can drive them directly.
package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"

	"github.com/allisson/billvault/internal/app"
)

// Streams is where an action reads secrets from and writes results to.
type Streams struct {
	Reader io.Reader
	Writer io.Writer
}

func StdStreams() Streams {
	return Streams{Reader: os.Stdin, Writer: os.Stdout}
}

func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to release resources", slog.Any("error", err))
	}
}

func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		logger.Error("failed to close migrations",
			slog.Any("source_error", srcErr),
			slog.Any("database_error", dbErr),
		)
	}
}

// readLine prints prompt to writer and reads one line from reader. Secrets are
// read this way so they never appear in process arguments or shell history.
func readLine(reader *bufio.Reader, writer io.Writer, prompt string) (string, error) {
	_, _ = fmt.Fprint(writer, prompt)

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("input cannot be empty")
	}
	return line, nil
}

func writeJSON(writer io.Writer, v any) error {
	enc := json.NewEncoder(writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
