package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"weightedPool/internal/audit"
	"weightedPool/internal/chain"
	"weightedPool/internal/config"
	"weightedPool/internal/dex"
	"weightedPool/internal/model"
	"weightedPool/internal/scenario"
	"weightedPool/internal/storage"
)

func runAudit(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAudit(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.Snapshots == "" {
		return fmt.Errorf("snapshots path is required")
	}

	only, err := scenario.ParseAddresses(cfg.Pools)
	if err != nil {
		return err
	}
	snaps, err := readSnapshots(cfg.Snapshots, only)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	block, err := chainClient.Pin(ctx, cfg.Block)
	if err != nil {
		return err
	}
	blockTime, err := chainClient.BlockTimestamp(ctx, block)
	if err != nil {
		return err
	}

	var out *storage.JSONLWriter
	if cfg.Out != "" {
		out, err = storage.NewJSONLWriter(cfg.Out, false)
		if err != nil {
			return err
		}
		defer out.Close()
	}

	logger.Info("audit start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.Uint64("block", block),
		zap.Uint64("block_time", blockTime),
		zap.Int("pools", len(snaps)),
	)

	auditor := audit.New(chainClient, logger)
	metaCache := dex.NewTokenMetaCache()
	var failed int
	for _, snap := range snaps {
		report, err := auditor.Check(ctx, snap)
		if err != nil {
			return fmt.Errorf("audit %s: %w", snap.Address, err)
		}
		for _, res := range report.Tokens {
			meta := dex.CachedTokenMeta(ctx, chainClient, metaCache, common.HexToAddress(res.Token), logger)
			logger.Info("token audited",
				zap.String("pool", report.Pool),
				zap.String("token", res.Token),
				zap.String("symbol", meta.Symbol),
				zap.Bool("ok", res.OK),
				zap.String("custodial", res.Custodial),
				zap.String("owed_balance", res.Balance),
				zap.String("owed_reserve", res.Reserve),
			)
		}
		if !report.OK {
			failed++
		}
		if out != nil {
			if err := out.Write(report); err != nil {
				return err
			}
		}
	}

	logger.Info("audit complete", zap.Int("pools", len(snaps)), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d pools hold less than they owe", failed)
	}
	return nil
}

// readSnapshots loads snapshots, keeping only pools listed in only when it
// is non-empty.
func readSnapshots(path string, only []common.Address) ([]model.PoolSnapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshots: %w", err)
	}
	defer file.Close()

	keep := make(map[common.Address]bool, len(only))
	for _, addr := range only {
		keep[addr] = true
	}

	var snaps []model.PoolSnapshot
	err = storage.ScanJSONL(file, func(line []byte) error {
		var snap model.PoolSnapshot
		if err := json.Unmarshal(line, &snap); err != nil {
			return fmt.Errorf("parse snapshot: %w", err)
		}
		if len(keep) > 0 && !keep[common.HexToAddress(snap.Address)] {
			return nil
		}
		snaps = append(snaps, snap)
		return nil
	})
	return snaps, err
}
