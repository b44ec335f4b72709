package config

import (
	"github.com/spf13/pflag"
)

// AuditConfig holds configuration for the audit command.
type AuditConfig struct {
	RPCURL    string
	Snapshots string
	Pools     []string
	Block     uint64
	Out       string
	LogLevel  string
}

// LoadAudit merges config file, environment variables, and flags into AuditConfig.
func LoadAudit(cfgFile string, flags *pflag.FlagSet) (AuditConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return AuditConfig{}, err
	}

	return AuditConfig{
		RPCURL:    v.GetString("rpc"),
		Snapshots: v.GetString("snapshots"),
		Pools:     getStringSlice(v, "pool"),
		Block:     v.GetUint64("block"),
		Out:       v.GetString("out"),
		LogLevel:  v.GetString("log-level"),
	}, nil
}
