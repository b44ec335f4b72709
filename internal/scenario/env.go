package scenario

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"weightedPool/internal/dex"
	"weightedPool/internal/factory"
	"weightedPool/internal/model"
	"weightedPool/internal/pool"
	"weightedPool/internal/token"
)

// EnvConfig fixes the deployment addresses and the clock of a scenario.
type EnvConfig struct {
	Factory common.Address
	Admin   common.Address
	Bank    common.Address
	// StartTime and StepInterval stamp each log with a synthetic timestamp
	// derived from its step number.
	StartTime    uint64
	StepInterval uint64
	// Sinks receive every pool event next to the log encoder.
	Sinks []pool.EventSink
}

// Env is the in-memory world a scenario mutates: a token bank, one
// factory and the name aliases assigned by earlier steps.
type Env struct {
	cfg     EnvConfig
	bank    *token.Bank
	factory *factory.Factory
	encoder *dex.Encoder
	logger  *zap.Logger

	mu       sync.Mutex
	aliases  map[string]common.Address
	step     uint64
	sequence uint64
	pending  []model.LogRecord
	emitErr  error
}

// NewEnv deploys a bank and a factory.
func NewEnv(cfg EnvConfig, logger *zap.Logger) (*Env, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Factory == (common.Address{}) {
		cfg.Factory = ActorAddress("factory")
	}
	if cfg.Admin == (common.Address{}) {
		cfg.Admin = ActorAddress("admin")
	}
	if cfg.Bank == (common.Address{}) {
		cfg.Bank = ActorAddress("bank")
	}
	if cfg.StepInterval == 0 {
		cfg.StepInterval = 12
	}

	encoder, err := dex.NewEncoder()
	if err != nil {
		return nil, err
	}

	env := &Env{
		cfg:     cfg,
		bank:    token.NewBank(cfg.Bank),
		encoder: encoder,
		logger:  logger,
		aliases: map[string]common.Address{
			"admin":   cfg.Admin,
			"factory": cfg.Factory,
		},
	}
	sinks := append(pool.Sinks{env}, cfg.Sinks...)
	env.factory = factory.New(cfg.Factory, cfg.Admin, env.bank, sinks, logger)
	return env, nil
}

func (e *Env) Bank() *token.Bank { return e.bank }

func (e *Env) Factory() *factory.Factory { return e.factory }

// Emit encodes a pool event into a log record of the current step.
func (e *Env) Emit(ev pool.Event) {
	record, err := e.encoder.Encode(ev)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		if e.emitErr == nil {
			e.emitErr = fmt.Errorf("encode %s: %w", ev.EventName(), err)
		}
		return
	}
	e.sequence++
	record.Sequence = e.sequence
	record.Step = e.step
	record.Timestamp = e.cfg.StartTime + e.step*e.cfg.StepInterval
	e.pending = append(e.pending, record)
}

// begin marks the step whose events follow.
func (e *Env) begin(step uint64) {
	e.mu.Lock()
	e.step = step
	e.mu.Unlock()
}

// Drain returns the logs emitted since the last drain, stamped with
// ingestedAt.
func (e *Env) Drain(ingestedAt time.Time) ([]model.LogRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.emitErr; err != nil {
		e.emitErr = nil
		return nil, err
	}
	logs := e.pending
	e.pending = nil
	stamp := ingestedAt.UTC().Format(time.RFC3339Nano)
	for i := range logs {
		logs[i].IngestedAt = stamp
	}
	return logs, nil
}

// Resolve maps a name to an address: an alias set by an earlier step, a
// hex literal, or else a deterministic actor address.
func (e *Env) Resolve(name string) (common.Address, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return common.Address{}, fmt.Errorf("empty name")
	}
	e.mu.Lock()
	addr, ok := e.aliases[strings.ToLower(name)]
	e.mu.Unlock()
	if ok {
		return addr, nil
	}
	if strings.HasPrefix(name, "0x") {
		parsed, err := ParseAddresses([]string{name})
		if err != nil {
			return common.Address{}, err
		}
		return parsed[0], nil
	}
	return ActorAddress(name), nil
}

// Alias binds name to addr for later steps.
func (e *Env) Alias(name string, addr common.Address) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("empty alias")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if prev, ok := e.aliases[key]; ok && prev != addr {
		return fmt.Errorf("alias %s already bound to %s", name, prev.Hex())
	}
	e.aliases[key] = addr
	return nil
}

// Snapshots returns the state of every pool in creation order.
func (e *Env) Snapshots() ([]model.PoolSnapshot, error) {
	addrs := e.factory.Pools()
	snaps := make([]model.PoolSnapshot, 0, len(addrs))
	for _, addr := range addrs {
		p, err := e.factory.Pool(addr)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, p.Snapshot())
	}
	return snaps, nil
}
