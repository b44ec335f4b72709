package scenario

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"weightedPool/internal/audit"
	"weightedPool/internal/dex"
	"weightedPool/internal/model"
)

const script = `
{"op":"create_token","symbol":"WETH","name":"Wrapped Ether"}
{"op":"create_token","symbol":"DAI"}
{"op":"mint","token":"WETH","to":"admin","amount":"100"}
{"op":"mint","token":"DAI","to":"admin","amount":"100000"}
{"op":"mint","token":"WETH","to":"alice","amount":"10"}
{"op":"new_pool","as":"admin","name":"P"}
{"op":"approve","as":"admin","token":"WETH","pool":"P"}
{"op":"approve","as":"admin","token":"DAI","pool":"P"}
{"op":"approve","as":"alice","token":"WETH","spender":"P","amount":"max"}
{"op":"bind","as":"admin","pool":"P","token":"WETH","amount":"50","weight":"5"}
{"op":"bind","as":"admin","pool":"P","token":"DAI","amount":"10000","weight":"5"}
{"op":"set_swap_fee","as":"admin","pool":"P","amount":"0.003"}
{"op":"set_reserves_ratio","as":"admin","pool":"P","amount":"0.1"}
{"op":"finalize","as":"admin","pool":"P"}
{"op":"swap_exact_in","as":"alice","pool":"P","token_in":"WETH","token_out":"DAI","amount":"1","limit":"150"}
{"op":"swap_exact_in","as":"bob","pool":"P","token_in":"WETH","token_out":"DAI","amount":"1","expect_error":"transfer"}
{"op":"collect_reserves","as":"alice","pool":"P","expect_error":"permission"}
{"op":"collect_reserves","as":"admin","pool":"P"}
{"op":"join_pool","as":"admin","pool":"P","amount":"1","limits":["max","max"]}
`

type memStorage struct {
	failures int
	calls    int
	logs     []model.LogRecord
}

func (m *memStorage) PutLogBatch(_ context.Context, logs []model.LogRecord) error {
	m.calls++
	if m.failures != 0 {
		if m.failures > 0 {
			m.failures--
		}
		return errors.New("storage unavailable")
	}
	m.logs = append(m.logs, logs...)
	return nil
}

func loadScript(t *testing.T) []Step {
	t.Helper()
	steps, err := DecodeSteps(strings.NewReader(script))
	if err != nil {
		t.Fatalf("decode steps: %v", err)
	}
	return steps
}

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	env, err := NewEnv(EnvConfig{StartTime: 1000, StepInterval: 12}, nil)
	if err != nil {
		t.Fatalf("new env: %v", err)
	}
	return env
}

func TestRunnerReplaysScenario(t *testing.T) {
	steps := loadScript(t)
	if len(steps) != 19 {
		t.Fatalf("steps = %d", len(steps))
	}

	env := newTestEnv(t)
	store := &memStorage{}
	res, err := NewRunner(RunConfig{BatchSize: 5}, env, store, nil).Run(context.Background(), steps)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Applied != 17 || res.ExpectedFailures != 2 || res.Failed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.StoredLogs != 6 || len(store.logs) != 6 {
		t.Fatalf("stored %d logs: %+v", len(store.logs), res)
	}

	decoder, err := dex.NewPoolDecoder(dex.DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	var names []string
	for i, log := range store.logs {
		if log.Sequence != uint64(i+1) {
			t.Fatalf("log %d has sequence %d", i, log.Sequence)
		}
		if log.Timestamp != 1000+log.Step*12 {
			t.Fatalf("log %d timestamp %d for step %d", i, log.Timestamp, log.Step)
		}
		event, err := decoder.Decode(log)
		if err != nil {
			t.Fatalf("decode log %d: %v", i, err)
		}
		names = append(names, event.EventName)
	}
	want := []string{
		model.EventSwap, model.EventAddReserves,
		model.EventDrainReserves, model.EventDrainReserves,
		model.EventJoin, model.EventJoin,
	}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v", names)
	}
	if store.logs[0].Step != 15 || store.logs[2].Step != 18 {
		t.Fatalf("unexpected steps: %d %d", store.logs[0].Step, store.logs[2].Step)
	}

	snaps, err := env.Snapshots()
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(snaps) != 1 || !snaps[0].Finalized || len(snaps[0].Tokens) != 2 {
		t.Fatalf("unexpected snapshots: %+v", snaps)
	}
	for _, tok := range snaps[0].Tokens {
		if tok.Reserve != "0" {
			t.Fatalf("reserve of %s not collected: %s", tok.Address, tok.Reserve)
		}
	}
	report, err := audit.New(env.Bank(), nil).Check(context.Background(), snaps[0])
	if err != nil || !report.OK {
		t.Fatalf("audit failed: %+v %v", report, err)
	}

	admin, _ := env.Resolve("admin")
	weth, _ := env.Resolve("WETH")
	held, err := env.Bank().BalanceOf(context.Background(), weth, admin)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if held.IsZero() {
		t.Fatalf("admin received no collected reserve")
	}
}

func TestRunnerStopsOnUnexpectedFailure(t *testing.T) {
	steps := loadScript(t)
	steps[14].Limit = "1000000"

	res, err := NewRunner(RunConfig{BatchSize: 5}, newTestEnv(t), &memStorage{}, nil).Run(context.Background(), steps)
	if err == nil || !errors.Is(err, model.ErrSlippage) {
		t.Fatalf("expected slippage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "step 15") {
		t.Fatalf("error lacks step number: %v", err)
	}
	if res.Applied != 14 {
		t.Fatalf("applied = %d", res.Applied)
	}

	res, err = NewRunner(RunConfig{BatchSize: 5, ContinueOnError: true}, newTestEnv(t), &memStorage{}, nil).Run(context.Background(), steps)
	if err != nil {
		t.Fatalf("continue-on-error run: %v", err)
	}
	if res.Failed != 1 {
		t.Fatalf("failed = %d", res.Failed)
	}
}

func TestRunnerRetriesStorage(t *testing.T) {
	store := &memStorage{failures: 2}
	cfg := RunConfig{BatchSize: 100, MaxRetries: 3, RetryBackoff: time.Millisecond}
	res, err := NewRunner(cfg, newTestEnv(t), store, nil).Run(context.Background(), loadScript(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if store.calls != 3 || res.StoredLogs != 6 {
		t.Fatalf("calls=%d result=%+v", store.calls, res)
	}
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	cfg := RunConfig{
		Scenario:          "demo",
		BatchSize:         5,
		CheckpointPath:    path,
		CheckpointEnabled: true,
		RetryBackoff:      time.Millisecond,
	}

	// Only the first write succeeds; steps 16-19 never reach storage.
	failing := &flakyAfter{ok: 1}
	if _, err := NewRunner(cfg, newTestEnv(t), failing, nil).Run(context.Background(), loadScript(t)); err == nil {
		t.Fatalf("expected storage failure")
	}
	cp, ok, err := NewCheckpointStore(path, true).Load()
	if err != nil || !ok {
		t.Fatalf("load checkpoint: %v %v", ok, err)
	}
	if cp.LastStoredStep != 15 || cp.LastSequence != 2 || cp.Scenario != "demo" {
		t.Fatalf("checkpoint = %+v", cp)
	}

	store := &memStorage{}
	res, err := NewRunner(cfg, newTestEnv(t), store, nil).Run(context.Background(), loadScript(t))
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if res.SkippedLogs != 2 || res.StoredLogs != 4 {
		t.Fatalf("resume result: %+v", res)
	}
	if store.logs[0].Sequence != 3 {
		t.Fatalf("resume stored sequence %d first", store.logs[0].Sequence)
	}

	other := cfg
	other.Scenario = "other"
	if _, err := NewRunner(other, newTestEnv(t), &memStorage{}, nil).Run(context.Background(), loadScript(t)); err == nil {
		t.Fatalf("expected checkpoint mismatch error")
	}
}

// flakyAfter accepts ok writes and rejects every later one.
type flakyAfter struct {
	ok int
}

func (f *flakyAfter) PutLogBatch(_ context.Context, _ []model.LogRecord) error {
	if f.ok == 0 {
		return errors.New("disk full")
	}
	f.ok--
	return nil
}

func TestCheckOutcome(t *testing.T) {
	failure := model.ErrPermission.Wrap("not controller")

	if expected, err := checkOutcome(Step{}, nil); expected || err != nil {
		t.Fatalf("plain success: %v %v", expected, err)
	}
	if expected, err := checkOutcome(Step{ExpectError: "permission"}, failure); !expected || err != nil {
		t.Fatalf("matching kind: %v %v", expected, err)
	}
	if expected, err := checkOutcome(Step{ExpectError: "any"}, failure); !expected || err != nil {
		t.Fatalf("any kind: %v %v", expected, err)
	}
	if _, err := checkOutcome(Step{ExpectError: "bounds"}, failure); err == nil || !errors.Is(err, model.ErrPermission) {
		t.Fatalf("mismatched kind should wrap cause: %v", err)
	}
	if _, err := checkOutcome(Step{ExpectError: "state"}, nil); err == nil {
		t.Fatalf("missing failure should be reported")
	}
	if _, err := checkOutcome(Step{ExpectError: "weird"}, failure); err == nil {
		t.Fatalf("unknown kind should be reported")
	}
}
