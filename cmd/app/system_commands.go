package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/billvault/cmd/app/commands"
	"github.com/allisson/billvault/internal/app"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Serve the API, and metrics when enabled",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, true, func(container *app.Container) error {
					return commands.RunServer(ctx, container, version)
				})
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply the embedded database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, false, func(container *app.Container) error {
					cfg := container.Config()
					return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
				})
			},
		},
		{
			Name:  "verify-audit-logs",
			Usage: "Check the signature of every stored audit entry",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "batch-size",
					Aliases: []string{"b"},
					Value:   500,
					Usage:   "Entries read per query",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, false, func(container *app.Container) error {
					trail, err := container.AuditTrail()
					if err != nil {
						return err
					}
					return commands.RunVerifyAuditLogs(ctx, trail, container.Logger(),
						commands.StdStreams().Writer, int(cmd.Int("batch-size")), cmd.String("format"))
				})
			},
		},
	}
}
