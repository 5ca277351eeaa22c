package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/billvault/internal/app"
	"github.com/allisson/billvault/internal/config"
)

func getCommands(version string) []*cli.Command {
	var cmds []*cli.Command
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getKeyCommands()...)
	return append(cmds, getCredentialCommands()...)
}

// withContainer builds a container from the environment, runs fn and
// releases the container. Configuration is validated first when validate is set.
func withContainer(ctx context.Context, validate bool, fn func(*app.Container) error) error {
	cfg := config.Load()
	if validate {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}

	container := app.NewContainer(cfg)
	defer func() { _ = container.Shutdown(ctx) }()
	return fn(container)
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: text or json",
	}
}

func principalIDFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "principal-id",
		Aliases:  []string{"p"},
		Required: true,
		Usage:    "Principal ID (UUID)",
	}
}
