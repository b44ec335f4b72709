package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"

	"weightedPool/internal/model"
	"weightedPool/internal/storage"
)

// FlowStore persists flow metric deltas.
type FlowStore interface {
	UpsertFlowMetrics(ctx context.Context, metrics []model.TokenFlowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	// BatchSize is the number of events folded in before a flush.
	BatchSize int
	// RecomputeFrom restarts at this sequence instead of the saved state.
	RecomputeFrom uint64
	StateStore    StateStore
}

// Stats summarizes one run.
type Stats struct {
	Total      int
	Aggregated int
	Skipped    int
	Failed     int
	Flushed    int
}

// Aggregator folds typed pool events into per-(pool, token) flow metrics.
type Aggregator struct {
	cfg          Config
	store        FlowStore
	logger       *zap.Logger
	accumulators map[string]*Accumulator
	lastSequence uint64
}

func NewAggregator(cfg Config, store FlowStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	return &Aggregator{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}
}

// Run executes aggregation over a typed events JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) (Stats, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return Stats{}, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()
	return a.RunReader(ctx, file)
}

// RunReader executes aggregation over typed events read from r.
func (a *Aggregator) RunReader(ctx context.Context, r io.Reader) (Stats, error) {
	var stats Stats
	if a.store == nil {
		return stats, fmt.Errorf("store is nil")
	}

	start, err := a.loadStartSequence(ctx)
	if err != nil {
		return stats, err
	}
	a.lastSequence = start

	pending := 0
	err = storage.ScanJSONL(r, func(line []byte) error {
		stats.Total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.Failed++
			a.logger.Warn("decode typed event", zap.Error(err))
			return nil
		}
		if record.Sequence <= start {
			stats.Skipped++
			return nil
		}

		if err := apply(record, func(token string) *Accumulator { return a.accumulator(record.Address, token) }); err != nil {
			stats.Failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", record.Address), zap.String("event", record.EventName))
			return nil
		}
		stats.Aggregated++
		if record.Sequence > a.lastSequence {
			a.lastSequence = record.Sequence
		}

		pending++
		if pending >= a.cfg.BatchSize {
			n, err := a.flush(ctx)
			if err != nil {
				return err
			}
			stats.Flushed += n
			pending = 0
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	n, err := a.flush(ctx)
	if err != nil {
		return stats, err
	}
	stats.Flushed += n

	a.logger.Info("aggregate complete",
		zap.Int("total", stats.Total),
		zap.Int("aggregated", stats.Aggregated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Uint64("last_sequence", a.lastSequence),
	)
	return stats, nil
}

func (a *Aggregator) accumulator(pool, token string) *Accumulator {
	key := flowKey(pool, token)
	acc := a.accumulators[key]
	if acc == nil {
		acc = NewAccumulator(pool, token)
		a.accumulators[key] = acc
	}
	return acc
}

// flush writes accumulated deltas, then records progress. Deltas are
// cleared only after the store accepted them.
func (a *Aggregator) flush(ctx context.Context) (int, error) {
	keys := make([]string, 0, len(a.accumulators))
	for key, acc := range a.accumulators {
		if !acc.Empty() {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	metrics := make([]model.TokenFlowMetrics, 0, len(keys))
	for _, key := range keys {
		metrics = append(metrics, a.accumulators[key].Metrics())
	}
	if len(metrics) > 0 {
		if err := a.store.UpsertFlowMetrics(ctx, metrics); err != nil {
			return 0, fmt.Errorf("upsert flow metrics: %w", err)
		}
	}
	a.accumulators = make(map[string]*Accumulator)

	if err := a.saveState(ctx); err != nil {
		return len(metrics), err
	}
	return len(metrics), nil
}

func (a *Aggregator) loadStartSequence(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}
	return a.cfg.StateStore.Save(ctx, a.lastSequence)
}
