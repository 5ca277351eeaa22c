package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/billvault/cmd/app/commands"
	"github.com/allisson/billvault/internal/app"
	credentialUseCase "github.com/allisson/billvault/internal/credential/usecase"
)

func withGuard(
	ctx context.Context,
	fn func(guard credentialUseCase.Guard, container *app.Container) error,
) error {
	return withContainer(ctx, false, func(container *app.Container) error {
		guard, err := container.Guard()
		if err != nil {
			return err
		}
		return fn(guard, container)
	})
}

func getCredentialCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-principal",
			Usage: "Create a principal; the password is read from stdin",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Unique principal name",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withGuard(ctx, func(guard credentialUseCase.Guard, container *app.Container) error {
					return commands.RunCreatePrincipal(
						ctx,
						guard,
						container.Logger(),
						cmd.String("name"),
						cmd.String("format"),
						commands.StdStreams(),
					)
				})
			},
		},
		{
			Name:  "set-password",
			Usage: "Replace the password of a principal; the password is read from stdin",
			Flags: []cli.Flag{principalIDFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withGuard(ctx, func(guard credentialUseCase.Guard, container *app.Container) error {
					return commands.RunSetPassword(
						ctx,
						guard,
						container.Logger(),
						cmd.String("principal-id"),
						commands.StdStreams(),
					)
				})
			},
		},
		{
			Name:  "issue-api-key",
			Usage: "Issue an API key for a principal, replacing any previous key",
			Flags: []cli.Flag{
				principalIDFlag(),
				&cli.DurationFlag{
					Name:    "ttl",
					Aliases: []string{"t"},
					Usage:   "Key lifetime (e.g. 720h); defaults to API_KEY_TTL_DAYS",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withGuard(ctx, func(guard credentialUseCase.Guard, container *app.Container) error {
					return commands.RunIssueAPIKey(
						ctx,
						guard,
						container.Logger(),
						commands.StdStreams().Writer,
						cmd.String("principal-id"),
						cmd.Duration("ttl"),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "revoke-api-key",
			Usage: "Revoke the API key of a principal",
			Flags: []cli.Flag{principalIDFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withGuard(ctx, func(guard credentialUseCase.Guard, container *app.Container) error {
					return commands.RunRevokeAPIKey(
						ctx,
						guard,
						container.Logger(),
						commands.StdStreams().Writer,
						cmd.String("principal-id"),
					)
				})
			},
		},
	}
}
