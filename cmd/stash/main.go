// stash runs the key/value cache actor behind HTTP and, optionally, NATS.
//
// Usage:
//
//	stash [--config stash.yaml] serve
//	stash demo
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/seantiz/stash/internal/config"
)

const demoTaskUnit = 100 * time.Millisecond

func main() {
	cmd := &cli.Command{
		Name:  "stash",
		Usage: "key/value cache actor with background tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML config file, reloaded on change",
				Sources: cli.EnvVars(config.EnvConfigPath),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the cache with the SQLite ledger",
				Action: serveAction,
			},
			{
				Name:   "demo",
				Usage:  "run with an in-memory ledger, fast tasks and some seeded work",
				Action: demoAction,
			},
		},
		Action: serveAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("stash: %v", err)
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return run(ctx, opts)
}

func demoAction(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	opts.cfg.DBPath = ":memory:"
	opts.cfg.TaskUnit = demoTaskUnit
	opts.seed = true
	return run(ctx, opts)
}

func loadOptions(cmd *cli.Command) (options, error) {
	path := cmd.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return options{}, err
	}
	if err := cfg.Validate(); err != nil {
		return options{}, err
	}

	level := new(slog.LevelVar)
	level.Set(cfg.LogLevel)
	return options{
		cfg:        cfg,
		configPath: path,
		level:      level,
		logger:     config.NewLogger(os.Stdout, level),
	}, nil
}
