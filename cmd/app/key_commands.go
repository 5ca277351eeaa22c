package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/billvault/cmd/app/commands"
	"github.com/allisson/billvault/internal/app"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "generate-keys",
			Usage: "Generate a local master key URI and an audit signing key",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunGenerateKeys(commands.StdStreams().Writer, cmd.String("format"))
			},
		},
		{
			Name:  "encrypt-field",
			Usage: "Encrypt a value read from stdin into its stored field form",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, false, func(container *app.Container) error {
					codec, err := container.FieldCodec()
					if err != nil {
						return err
					}
					return commands.RunEncryptField(
						ctx,
						codec,
						container.Logger(),
						cmd.String("format"),
						commands.StdStreams(),
					)
				})
			},
		},
		{
			Name:  "decrypt-field",
			Usage: "Decrypt a stored field",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "data",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Base64 encrypted payload",
				},
				&cli.StringFlag{
					Name:     "key",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Base64 wrapped data key",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, false, func(container *app.Container) error {
					codec, err := container.FieldCodec()
					if err != nil {
						return err
					}
					return commands.RunDecryptField(
						ctx,
						codec,
						container.Logger(),
						commands.StdStreams().Writer,
						cmd.String("data"),
						cmd.String("key"),
					)
				})
			},
		},
	}
}
