package scenario

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"weightedPool/internal/model"
	"weightedPool/internal/storage"
)

// RunConfig holds runtime settings for a scenario replay.
type RunConfig struct {
	Scenario          string
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	ContinueOnError   bool
}

// Result summarizes a replay.
type Result struct {
	Steps            int
	Applied          int
	ExpectedFailures int
	Failed           int
	StoredLogs       int
	SkippedLogs      int
}

// Runner replays scenario steps and writes the emitted logs to storage.
type Runner struct {
	cfg        RunConfig
	env        *Env
	storage    storage.Storage
	logger     *zap.Logger
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, env *Env, sink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		env:        env,
		storage:    sink,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run applies every step in order. Pool state lives in memory, so a
// resumed run replays all steps but only stores logs of steps past the
// checkpoint.
func (r *Runner) Run(ctx context.Context, steps []Step) (Result, error) {
	res := Result{Steps: len(steps)}
	if r.env == nil {
		return res, fmt.Errorf("env is nil")
	}
	if r.storage == nil {
		return res, fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return res, fmt.Errorf("batch size must be greater than zero")
	}
	if len(steps) == 0 {
		r.logger.Info("empty scenario")
		return res, nil
	}

	var stored Checkpoint
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return res, err
	}
	if ok {
		if cp.Scenario != "" && r.cfg.Scenario != "" && cp.Scenario != r.cfg.Scenario {
			return res, fmt.Errorf("checkpoint belongs to scenario %s", cp.Scenario)
		}
		stored = cp
		r.logger.Info("resume from checkpoint", zap.Uint64("last_stored_step", cp.LastStoredStep))
	}
	stored.Scenario = r.cfg.Scenario

	ranges, err := SplitRange(1, uint64(len(steps)), r.cfg.BatchSize)
	if err != nil {
		return res, err
	}

	for _, batch := range ranges {
		for n := batch.From; n <= batch.To; n++ {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			default:
			}
			if err := r.applyStep(n, steps[n-1], &res); err != nil {
				return res, err
			}
		}

		logs, err := r.env.Drain(time.Now())
		if err != nil {
			return res, err
		}
		fresh := logs[:0]
		for _, log := range logs {
			if log.Step <= stored.LastStoredStep {
				res.SkippedLogs++
				continue
			}
			fresh = append(fresh, log)
		}
		if len(fresh) > 0 {
			if err := r.putLogsWithRetry(ctx, fresh); err != nil {
				return res, fmt.Errorf("store logs: %w", err)
			}
			res.StoredLogs += len(fresh)
			stored.LastSequence = fresh[len(fresh)-1].Sequence
		}

		if batch.To > stored.LastStoredStep {
			stored.LastStoredStep = batch.To
			if err := r.checkpoint.Save(stored); err != nil {
				return res, err
			}
		}

		r.logger.Info("batch complete",
			zap.Uint64("from", batch.From),
			zap.Uint64("to", batch.To),
			zap.Int("logs", len(fresh)),
		)
	}

	r.logger.Info("scenario complete",
		zap.Int("steps", res.Steps),
		zap.Int("applied", res.Applied),
		zap.Int("expected_failures", res.ExpectedFailures),
		zap.Int("failed", res.Failed),
		zap.Int("stored_logs", res.StoredLogs),
	)
	return res, nil
}

func (r *Runner) applyStep(n uint64, step Step, res *Result) error {
	r.env.begin(n)
	expected, err := checkOutcome(step, r.env.Apply(step))
	switch {
	case expected:
		res.ExpectedFailures++
		r.logger.Debug("step failed as expected", zap.Uint64("step", n), zap.String("op", step.Op))
	case err == nil:
		res.Applied++
	case r.cfg.ContinueOnError:
		res.Failed++
		r.logger.Warn("step failed", zap.Uint64("step", n), zap.String("op", step.Op), zap.Error(err))
	default:
		return fmt.Errorf("step %d (%s): %w", n, step.Op, err)
	}
	return nil
}

func (r *Runner) putLogsWithRetry(ctx context.Context, logs []model.LogRecord) error {
	policy := RetryPolicy{
		MaxRetries: r.cfg.MaxRetries,
		Backoff:    r.cfg.RetryBackoff,
		MaxBackoff: 30 * time.Second,
		OnRetry: func(attempt int, err error) {
			r.logger.Warn("store logs failed", zap.Int("attempt", attempt), zap.Int("logs", len(logs)), zap.Error(err))
		},
	}
	return withRetry(ctx, policy, func(ctx context.Context) error {
		return r.storage.PutLogBatch(ctx, logs)
	})
}
