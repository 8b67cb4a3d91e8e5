package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/singsync/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnvFile(); err != nil {
		logger.Warn("ignoring .env file", "error", err)
	}

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:    "singsync",
		Usage:   "Sync karaoke lyrics, publish songs and share covers",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars(shared.EnvPrefix + "CONFIG"),
			},
		},
		Before:   runner.configure,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Args)
	stop()
	runner.Close()

	if err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// configure loads the config file named by --config (falling back to the embedded defaults),
// overlays SINGSYNC_* variables and applies the log level.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return ctx, err
		}
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	if err := config.ApplyEnv(); err != nil {
		return ctx, err
	}
	if err := config.Validate(); err != nil {
		r.logger.Warn("configuration is incomplete", "error", err)
	}

	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Logging.Level))
	r.config = config
	r.configPath = path
	return ctx, nil
}
