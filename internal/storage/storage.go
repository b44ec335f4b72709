package storage

import (
	"context"

	"weightedPool/internal/model"
)

// Storage defines a sink for pool log records.
type Storage interface {
	PutLogBatch(ctx context.Context, logs []model.LogRecord) error
}

// SnapshotStore persists pool snapshots.
type SnapshotStore interface {
	UpsertSnapshots(ctx context.Context, snaps []model.PoolSnapshot) error
}

// Multi writes every batch to each sink in order.
type Multi []Storage

func (m Multi) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	for _, s := range m {
		if err := s.PutLogBatch(ctx, logs); err != nil {
			return err
		}
	}
	return nil
}
