// Package main provides the flowd server entrypoint.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/yanyucloud/flowd/pkg/log"
)

const defaultPort = 9080

func main() {
	cmd := &cli.Command{
		Name:                  "flowd",
		Usage:                 "Run the workflow automation engine",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory for workflow and execution snapshots",
				Value:   "./data",
				Sources: cli.EnvVars("DATA_DIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   log.FormatText,
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			return runServer(ctx, command.String("data-dir"), int(command.Int("port")))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.WithModule("main").Error("flowd exited with error", "error", err)
		os.Exit(1)
	}
}
