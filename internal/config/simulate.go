package config

import (
	"time"

	"github.com/spf13/pflag"
)

// SimulateConfig holds configuration for the simulate command.
type SimulateConfig struct {
	Scenario          string
	Out               string
	SnapshotOut       string
	BatchSize         uint64
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	ContinueOnError   bool
	StartTime         uint64
	StepInterval      time.Duration
	PGDSN             string
	MetricsAddr       string
	LogLevel          string
}

// LoadSimulate merges config file, environment variables, and flags into SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":                "./data/logs.jsonl",
		"batch-size":         uint64(50),
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": false,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
		"step-interval":      12 * time.Second,
	})
	if err != nil {
		return SimulateConfig{}, err
	}

	start, err := ParseTimestamp(v.GetString("start-time"))
	if err != nil {
		return SimulateConfig{}, err
	}

	return SimulateConfig{
		Scenario:          v.GetString("scenario"),
		Out:               v.GetString("out"),
		SnapshotOut:       v.GetString("snapshot-out"),
		BatchSize:         v.GetUint64("batch-size"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		ContinueOnError:   v.GetBool("continue-on-error"),
		StartTime:         start,
		StepInterval:      v.GetDuration("step-interval"),
		PGDSN:             v.GetString("pg-dsn"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
	}, nil
}
