package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/seantiz/stash/internal/actor"
	"github.com/seantiz/stash/internal/api"
	"github.com/seantiz/stash/internal/config"
	"github.com/seantiz/stash/internal/engine"
	"github.com/seantiz/stash/internal/metrics"
	"github.com/seantiz/stash/internal/natsbridge"
	"github.com/seantiz/stash/internal/policy"
	"github.com/seantiz/stash/internal/store"
)

type options struct {
	cfg        config.Config
	configPath string
	level      *slog.LevelVar
	logger     *slog.Logger
	seed       bool
}

// run wires the actor to its surfaces and blocks until a signal arrives and
// the actor has drained. A second signal cancels the tasks still running.
func run(ctx context.Context, opts options) error {
	cfg, logger := opts.cfg, opts.logger

	logger.Info("stash: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"policy", cfg.Policy,
		"task_unit", cfg.TaskUnit.String(),
		"mailbox_capacity", cfg.MailboxCapacity,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer db.Close()

	policies := policy.DefaultRegistry(cfg.TaskUnit)
	p, err := policies.Resolve(cfg.Policy)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	broker := engine.NewBroker()
	defer broker.Close()

	cache := actor.New(actor.Options{
		Spawner: engine.NewSpawner(p, logger),
		Reporter: actor.MultiReporter{
			actor.LogReporter(logger),
			engine.NewLedgerReporter(db),
			broker,
		},
		Logger:  logger,
		Metrics: metrics.NewActor(reg),
	})
	tx, rx := actor.NewChannel(cfg.MailboxCapacity)

	teardownCtx, teardown := context.WithCancel(context.Background())
	defer teardown()
	final := make(chan *actor.State, 1)
	go func() { final <- cache.Run(teardownCtx, rx) }()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)

	httpTx, err := tx.Clone()
	if err != nil {
		return err
	}
	srv := api.NewServer(cfg.ListenAddr, api.Deps{
		Commands: httpTx,
		Status:   cache,
		Store:    db,
		Policies: policies,
		Broker:   broker,
		Registry: reg,
	}, logger)
	g.Go(func() error {
		defer httpTx.Close()
		return srv.Run(gctx)
	})

	if cfg.NATSURL != "" {
		natsTx, err := tx.Clone()
		if err != nil {
			return err
		}
		bridge, err := natsbridge.New(natsbridge.Config{
			Connect: natsbridge.ConnectURL(cfg.NATSURL),
			Sender:  natsTx,
			Prefix:  cfg.NATSPrefix,
			Log:     logger,
		})
		if err != nil {
			natsTx.Close()
			logger.Error("nats bridge disabled", "error", err)
		} else {
			g.Go(func() error { return bridge.Run(gctx) })
		}
	}

	if opts.configPath != "" {
		g.Go(func() error {
			if err := config.Watch(gctx, opts.configPath, opts.level, logger); err != nil {
				logger.Warn("config reload disabled", "error", err)
			}
			return nil
		})
	}

	if opts.seed {
		if err := seed(gctx, tx); err != nil {
			logger.Warn("seed demo data", "error", err)
		}
	}

	<-gctx.Done()
	logger.Info("stash: shutting down")
	runErr := g.Wait()

	// The last Sender closes here; the actor finishes its tasks and stops.
	tx.Close()

	forceCtx, stopForce := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopForce()

	var state *actor.State
	select {
	case state = <-final:
	case <-forceCtx.Done():
		logger.Warn("stash: cancelling in-flight tasks", "pending", cache.Pending())
		teardown()
		state = <-final
	}

	logger.Info("stash: stopped", "keys", state.Len())
	return runErr
}

// seed queues some keys and tasks so the demo has something to show.
func seed(ctx context.Context, tx *actor.Sender) error {
	if err := tx.Set(ctx, "greeting", "hello"); err != nil {
		return err
	}
	if err := tx.Set(ctx, "pid", fmt.Sprint(os.Getpid())); err != nil {
		return err
	}
	for id := uint32(1); id <= 4; id++ {
		if err := tx.StartTask(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
