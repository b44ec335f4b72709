package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "bpool",
		Short:        "Weighted pool simulator and event tooling",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a scenario of pool operations and write the emitted logs",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("scenario", "", "scenario steps JSONL")
	simulateCmd.Flags().String("out", "./data/logs.jsonl", "output logs JSONL")
	simulateCmd.Flags().String("snapshot-out", "", "optional pool snapshots JSONL")
	simulateCmd.Flags().Uint64("batch-size", 50, "steps per storage batch")
	simulateCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	simulateCmd.Flags().Bool("checkpoint-enabled", false, "enable checkpointing")
	simulateCmd.Flags().Int("max-retries", 5, "maximum storage retry attempts")
	simulateCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	simulateCmd.Flags().Bool("continue-on-error", false, "log failed steps instead of stopping")
	simulateCmd.Flags().String("start-time", "", "timestamp of step 0 (unix seconds or RFC3339)")
	simulateCmd.Flags().Duration("step-interval", 12*time.Second, "time between steps")
	simulateCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for logs and snapshots")
	simulateCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw pool logs into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate typed events into per-token flow metrics",
		RunE:  runReport,
	}

	reportCmd.Flags().String("in", "", "input typed events JSONL")
	reportCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	reportCmd.Flags().Int("batch-size", 1000, "events per flush")
	reportCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	reportCmd.Flags().String("state-name", "report", "progress row name in the state file or bpool_state table")
	reportCmd.Flags().Uint64("recompute-from", 0, "recompute from this event sequence")
	reportCmd.Flags().Bool("migrate", false, "create missing tables first")
	reportCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(reportCmd)

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Check pool snapshots against on-chain token balances",
		RunE:  runAudit,
	}

	auditCmd.Flags().String("rpc", "", "RPC URL")
	auditCmd.Flags().String("snapshots", "", "pool snapshots JSONL")
	auditCmd.Flags().StringSlice("pool", nil, "only audit these pools (comma-separated)")
	auditCmd.Flags().Uint64("block", 0, "block to read balances at, 0 means latest")
	auditCmd.Flags().String("out", "", "optional audit reports JSONL")
	auditCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(auditCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
