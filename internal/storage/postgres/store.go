package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"weightedPool/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Store provides Postgres persistence for pool logs, snapshots and flow
// metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PutLogBatch inserts log records, ignoring ones already stored.
func (s *Store) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, log := range logs {
		ingestedAt, err := time.Parse(time.RFC3339Nano, log.IngestedAt)
		if err != nil {
			ingestedAt = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO pool_logs (pool_address, sequence, step, topics, data, ts, ingested_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (pool_address, sequence) DO NOTHING
		`,
			log.Address,
			int64(log.Sequence),
			int64(log.Step),
			log.Topics,
			log.Data,
			int64(log.Timestamp),
			ingestedAt,
		)
	}
	return s.sendBatch(ctx, batch)
}

// UpsertSnapshots replaces the stored state of each pool and its tokens.
func (s *Store) UpsertSnapshots(ctx context.Context, snaps []model.PoolSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snaps {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, controller, factory, finalized, public_swap, swap_fee,
				reserves_ratio, total_weight, total_supply, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9::numeric, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				controller = EXCLUDED.controller,
				finalized = EXCLUDED.finalized,
				public_swap = EXCLUDED.public_swap,
				swap_fee = EXCLUDED.swap_fee,
				reserves_ratio = EXCLUDED.reserves_ratio,
				total_weight = EXCLUDED.total_weight,
				total_supply = EXCLUDED.total_supply,
				updated_at = now()
		`,
			snap.Address,
			snap.Controller,
			snap.Factory,
			snap.Finalized,
			snap.PublicSwap,
			snap.SwapFee,
			snap.ReservesRatio,
			snap.TotalWeight,
			snap.TotalSupply,
		)
		batch.Queue(`DELETE FROM pool_tokens WHERE pool_address = $1`, snap.Address)
		for _, tok := range snap.Tokens {
			batch.Queue(`
				INSERT INTO pool_tokens (
					pool_address, token, token_index, denorm_weight, balance, reserve, updated_at
				) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, now())
			`,
				snap.Address,
				tok.Address,
				tok.Index,
				tok.DenormWeight,
				tok.Balance,
				tok.Reserve,
			)
		}
	}
	return s.sendBatch(ctx, batch)
}

// UpsertFlowMetrics adds metric deltas to the stored totals.
func (s *Store) UpsertFlowMetrics(ctx context.Context, metrics []model.TokenFlowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO token_flow_metrics (
				pool_address, token, first_sequence, last_sequence, swaps_in, swaps_out,
				volume_in, volume_out, joined, exited, reserves_accrued, reserves_drained,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8::numeric,$9::numeric,$10::numeric,$11::numeric,$12::numeric,now(),now())
			ON CONFLICT (pool_address, token)
			DO UPDATE SET
				first_sequence = LEAST(token_flow_metrics.first_sequence, EXCLUDED.first_sequence),
				last_sequence = GREATEST(token_flow_metrics.last_sequence, EXCLUDED.last_sequence),
				swaps_in = token_flow_metrics.swaps_in + EXCLUDED.swaps_in,
				swaps_out = token_flow_metrics.swaps_out + EXCLUDED.swaps_out,
				volume_in = token_flow_metrics.volume_in + EXCLUDED.volume_in,
				volume_out = token_flow_metrics.volume_out + EXCLUDED.volume_out,
				joined = token_flow_metrics.joined + EXCLUDED.joined,
				exited = token_flow_metrics.exited + EXCLUDED.exited,
				reserves_accrued = token_flow_metrics.reserves_accrued + EXCLUDED.reserves_accrued,
				reserves_drained = token_flow_metrics.reserves_drained + EXCLUDED.reserves_drained,
				updated_at = now()
		`,
			m.PoolAddress,
			m.Token,
			int64(m.FirstSequence),
			int64(m.LastSequence),
			int64(m.SwapsIn),
			int64(m.SwapsOut),
			m.VolumeIn,
			m.VolumeOut,
			m.Joined,
			m.Exited,
			m.ReservesAccrued,
			m.ReservesDrained,
		)
	}
	return s.sendBatch(ctx, batch)
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last processed sequence for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq int64
	row := s.pool.QueryRow(ctx, `SELECT last_sequence FROM bpool_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(seq), true, nil
}

// SaveState upserts the last processed sequence for a name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bpool_state (name, last_sequence, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_sequence = EXCLUDED.last_sequence, updated_at = now()
	`, name, int64(seq))
	return err
}
