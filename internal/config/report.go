package config

import (
	"github.com/spf13/pflag"
)

// ReportConfig holds configuration for the report command.
type ReportConfig struct {
	Input         string
	PGDSN         string
	BatchSize     int
	StateFile     string
	StateName     string
	RecomputeFrom uint64
	Migrate       bool
	LogLevel      string
}

// LoadReport merges config file, environment variables, and flags into ReportConfig.
func LoadReport(cfgFile string, flags *pflag.FlagSet) (ReportConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"batch-size": 1000,
		"state-name": "report",
	})
	if err != nil {
		return ReportConfig{}, err
	}

	return ReportConfig{
		Input:         v.GetString("in"),
		PGDSN:         v.GetString("pg-dsn"),
		BatchSize:     v.GetInt("batch-size"),
		StateFile:     v.GetString("state-file"),
		StateName:     v.GetString("state-name"),
		RecomputeFrom: v.GetUint64("recompute-from"),
		Migrate:       v.GetBool("migrate"),
		LogLevel:      v.GetString("log-level"),
	}, nil
}
