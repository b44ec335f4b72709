package aggregate

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"weightedPool/internal/model"
)

const (
	testPool = "0x3333333333333333333333333333333333333333"
	weth     = "0x1111111111111111111111111111111111111111"
	dai      = "0x2222222222222222222222222222222222222222"
)

type memStore struct {
	batches [][]model.TokenFlowMetrics
}

func (m *memStore) UpsertFlowMetrics(_ context.Context, metrics []model.TokenFlowMetrics) error {
	m.batches = append(m.batches, append([]model.TokenFlowMetrics(nil), metrics...))
	return nil
}

func (m *memStore) all() map[string]model.TokenFlowMetrics {
	out := make(map[string]model.TokenFlowMetrics)
	for _, batch := range m.batches {
		for _, metric := range batch {
			out[metric.Token] = metric
		}
	}
	return out
}

func typedLine(t *testing.T, seq uint64, name string, decoded interface{}) string {
	t.Helper()
	payload, err := json.Marshal(decoded)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	line, err := json.Marshal(model.TypedEventRecord{
		Address:   testPool,
		Sequence:  seq,
		Step:      seq,
		EventName: name,
		Decoded:   payload,
	})
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	return string(line)
}

func sampleInput(t *testing.T) string {
	lines := []string{
		typedLine(t, 1, model.EventJoin, model.JoinEventData{Caller: "0xa", TokenIn: weth, AmountIn: "2500000000000000000"}),
		typedLine(t, 2, model.EventJoin, model.JoinEventData{Caller: "0xa", TokenIn: dai, AmountIn: "500000000000000000000"}),
		typedLine(t, 3, model.EventSwap, model.SwapEventData{Caller: "0xa", TokenIn: weth, TokenOut: dai, AmountIn: "1000000000000000000", AmountOut: "180000000000000000000"}),
		typedLine(t, 4, model.EventAddReserves, model.AddReservesEventData{Token: weth, Amount: "300000000000000"}),
		"not json",
		typedLine(t, 5, model.EventExit, model.ExitEventData{Caller: "0xa", TokenOut: dai, AmountOut: "1500000000000000000"}),
		typedLine(t, 6, model.EventDrainReserves, model.DrainReservesEventData{Token: weth, Recipient: "0xb", Amount: "300000000000000"}),
	}
	return strings.Join(lines, "\n") + "\n"
}

func TestAggregatorFlows(t *testing.T) {
	store := &memStore{}
	agg := NewAggregator(Config{BatchSize: 100}, store, nil)

	stats, err := agg.RunReader(context.Background(), strings.NewReader(sampleInput(t)))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Total != 7 || stats.Aggregated != 6 || stats.Failed != 1 || stats.Flushed != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	got := store.all()
	w := got[weth]
	if w.SwapsIn != 1 || w.SwapsOut != 0 {
		t.Fatalf("weth swaps: %+v", w)
	}
	if w.VolumeIn != "1.000000000000000000" || w.Joined != "2.500000000000000000" {
		t.Fatalf("weth volumes: %+v", w)
	}
	if w.ReservesAccrued != "0.000300000000000000" || w.ReservesDrained != "0.000300000000000000" {
		t.Fatalf("weth reserves: %+v", w)
	}
	if w.FirstSequence != 1 || w.LastSequence != 6 {
		t.Fatalf("weth sequences: %+v", w)
	}

	d := got[dai]
	if d.SwapsOut != 1 || d.VolumeOut != "180.000000000000000000" || d.Exited != "1.500000000000000000" {
		t.Fatalf("dai flows: %+v", d)
	}
	if d.FirstSequence != 2 || d.LastSequence != 5 {
		t.Fatalf("dai sequences: %+v", d)
	}
}

func TestAggregatorBatchesAndResumes(t *testing.T) {
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}
	store := &memStore{}

	agg := NewAggregator(Config{BatchSize: 2, StateStore: state}, store, nil)
	if _, err := agg.RunReader(context.Background(), strings.NewReader(sampleInput(t))); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(store.batches) < 3 {
		t.Fatalf("expected several flushes, got %d", len(store.batches))
	}

	last, ok, err := state.Load(context.Background())
	if err != nil || !ok || last != 6 {
		t.Fatalf("state = %d %v %v", last, ok, err)
	}

	again := &memStore{}
	stats, err := NewAggregator(Config{StateStore: state}, again, nil).RunReader(context.Background(), strings.NewReader(sampleInput(t)))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Skipped != 6 || len(again.batches) != 0 {
		t.Fatalf("resume reprocessed events: %+v batches=%d", stats, len(again.batches))
	}

	recompute := &memStore{}
	stats, err = NewAggregator(Config{StateStore: state, RecomputeFrom: 6}, recompute, nil).RunReader(context.Background(), strings.NewReader(sampleInput(t)))
	if err != nil {
		t.Fatalf("recompute run: %v", err)
	}
	if stats.Aggregated != 1 || recompute.all()[weth].ReservesDrained != "0.000300000000000000" {
		t.Fatalf("recompute: %+v %+v", stats, recompute.all())
	}
}

func TestAggregatorRejectsNegativeAmounts(t *testing.T) {
	input := typedLine(t, 1, model.EventJoin, model.JoinEventData{TokenIn: weth, AmountIn: "-1"}) + "\n"
	store := &memStore{}
	stats, err := NewAggregator(Config{}, store, nil).RunReader(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Failed != 1 || len(store.batches) != 0 {
		t.Fatalf("negative amount accepted: %+v", stats)
	}
}

func TestFormatTokenAmount(t *testing.T) {
	v, _ := parseBigInt("1234500000000000000")
	if got := formatTokenAmount(v, 18); got != "1.234500000000000000" {
		t.Fatalf("format = %s", got)
	}
	if got := formatTokenAmount(nil, 18); got != "0" {
		t.Fatalf("format nil = %s", got)
	}
}

func TestFileStateStoreKeepsRowsPerName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "progress.json")
	daily := &FileStateStore{Path: path, Name: "daily"}
	full := &FileStateStore{Path: path}

	if _, ok, err := daily.Load(context.Background()); err != nil || ok {
		t.Fatalf("empty load = %v %v", ok, err)
	}
	if err := daily.Save(context.Background(), 4); err != nil {
		t.Fatalf("save daily: %v", err)
	}
	if err := full.Save(context.Background(), 9); err != nil {
		t.Fatalf("save default: %v", err)
	}

	last, ok, err := daily.Load(context.Background())
	if err != nil || !ok || last != 4 {
		t.Fatalf("daily = %d %v %v", last, ok, err)
	}
	last, ok, err = (&FileStateStore{Path: path, Name: "report"}).Load(context.Background())
	if err != nil || !ok || last != 9 {
		t.Fatalf("report = %d %v %v", last, ok, err)
	}
}
