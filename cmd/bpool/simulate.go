package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"weightedPool/internal/audit"
	"weightedPool/internal/config"
	"weightedPool/internal/metrics"
	"weightedPool/internal/model"
	"weightedPool/internal/pool"
	"weightedPool/internal/scenario"
	"weightedPool/internal/storage"
	"weightedPool/internal/storage/postgres"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Scenario == "" {
		return fmt.Errorf("scenario path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	steps, err := scenario.ReadSteps(cfg.Scenario)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	poolMetrics := metrics.New(registry)
	server := metrics.NewServer(cfg.MetricsAddr, registry)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(shutdownCtx)
	}()

	sinks := storage.Multi{storage.NewJsonlStorage(cfg.Out)}
	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
	}

	env, err := scenario.NewEnv(scenario.EnvConfig{
		StartTime:    cfg.StartTime,
		StepInterval: uint64(cfg.StepInterval / time.Second),
		Sinks:        []pool.EventSink{poolMetrics},
	}, logger)
	if err != nil {
		return err
	}

	runner := scenario.NewRunner(scenario.RunConfig{
		Scenario:          filepath.Base(cfg.Scenario),
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		ContinueOnError:   cfg.ContinueOnError,
	}, env, sinks, logger)

	logger.Info("simulate start",
		zap.String("scenario", cfg.Scenario),
		zap.Int("steps", len(steps)),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	if _, err := runner.Run(ctx, steps); err != nil {
		return err
	}

	snaps, err := env.Snapshots()
	if err != nil {
		return err
	}
	if err := writeSnapshots(cfg.SnapshotOut, snaps); err != nil {
		return err
	}
	if store != nil {
		if err := store.UpsertSnapshots(ctx, snaps); err != nil {
			return fmt.Errorf("store snapshots: %w", err)
		}
	}

	auditor := audit.New(env.Bank(), logger)
	for _, snap := range snaps {
		report, err := auditor.Check(ctx, snap)
		if err != nil {
			return err
		}
		if !report.OK {
			return fmt.Errorf("pool %s holds less than it owes", report.Pool)
		}
	}
	return nil
}

func writeSnapshots(path string, snaps []model.PoolSnapshot) error {
	if path == "" {
		return nil
	}
	w, err := storage.NewJSONLWriter(path, false)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		if err := w.Write(snap); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
