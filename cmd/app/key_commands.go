package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/parquet-keytools/cmd/app/commands"
	"github.com/allisson/parquet-keytools/internal/app"
	"github.com/allisson/parquet-keytools/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-master-key",
			Usage: "Generate a master key for the local KMS client",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Usage:   "Master key ID (e.g., footer-key-2026)",
				},
				&cli.IntFlag{
					Name:    "bits",
					Aliases: []string{"b"},
					Value:   256,
					Usage:   "Key length in bits: 128, 192 or 256",
				},
				&cli.BoolFlag{
					Name:  "append",
					Usage: "Append the new key to the current MASTER_KEYS",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				existing := ""
				if cmd.Bool("append") {
					existing = config.Load().MasterKeys
				}
				return commands.RunCreateMasterKey(
					commands.DefaultIO().Writer,
					cmd.String("id"),
					int(cmd.Int("bits")),
					existing,
				)
			},
		},
		{
			Name:  "rotate-master-keys",
			Usage: "Re-wrap the keys of every file in a folder under the latest master key versions",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "folder",
					Aliases:  []string{"f"},
					Required: true,
					Usage:    "Bucket folder holding the data files",
				},
				&cli.StringFlag{
					Name:    "token",
					Aliases: []string{"t"},
					Usage:   "KMS access token (defaults to KEY_ACCESS_TOKEN)",
				},
				&cli.StringFlag{
					Name:  "format",
					Value: commands.FormatText,
					Usage: "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				if err := cfg.Validate(); err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				rotationUseCase, err := container.RotationUseCase()
				if err != nil {
					return err
				}

				token := cmd.String("token")
				if token == "" {
					token = cfg.KeyAccessToken
				}

				return commands.RunRotateMasterKeys(
					ctx,
					rotationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("folder"),
					token,
					cmd.String("format"),
				)
			},
		},
	}
}
