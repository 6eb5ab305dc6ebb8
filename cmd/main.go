package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/moviemate/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
			os.Exit(0)
		case errors.Is(err, shared.ErrAuthRequired), errors.Is(err, shared.ErrReauthenticate):
			logger.Error("sign in with `mm auth login` and try again", "error", err)
			os.Exit(1)
		case errors.Is(err, shared.ErrServiceUnavailable):
			logger.Error("the backend is unavailable, try again later", "error", err)
			os.Exit(1)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "mm",
		Usage:   "Browse the MovieMate catalog and manage your collection",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Commands: r.register(),
	}
}
