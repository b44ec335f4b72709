package dex

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"weightedPool/internal/model"
	"weightedPool/internal/pool"
)

var (
	testPool  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testUser  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testWETH  = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testDAI   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	testVault = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func TestPoolDecoderSwap(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewPoolDecoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	data, err := poolABI.Events[model.EventSwap].Inputs.NonIndexed().Pack(
		big.NewInt(2500),
		big.NewInt(475905),
	)
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}

	logRecord := buildLogRecord(testPool, poolABI.Events[model.EventSwap].ID, data, []common.Hash{
		topicFromAddress(testUser),
		topicFromAddress(testWETH),
		topicFromAddress(testDAI),
	})

	event, err := decoder.Decode(logRecord)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	swap, ok := event.Decoded.(model.SwapEventData)
	if !ok {
		t.Fatalf("decoded type mismatch")
	}
	if swap.AmountIn != "2500" || swap.AmountOut != "475905" {
		t.Fatalf("amounts mismatch: %+v", swap)
	}
	if swap.Caller != testUser.Hex() || swap.TokenIn != testWETH.Hex() || swap.TokenOut != testDAI.Hex() {
		t.Fatalf("address mismatch: %+v", swap)
	}
	if event.Sequence != 9 || event.Step != 4 {
		t.Fatalf("sequence mismatch: %+v", event)
	}
}

func TestEncoderRoundTrip(t *testing.T) {
	encoder, err := NewEncoder()
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	decoder, err := NewPoolDecoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	amount := uint256.MustFromDecimal("1994000000000000000")
	events := []pool.Event{
		pool.JoinEvent{Pool: testPool, Caller: testUser, TokenIn: testWETH, AmountIn: amount},
		pool.ExitEvent{Pool: testPool, Caller: testUser, TokenOut: testDAI, AmountOut: amount},
		pool.ReservesEvent{Pool: testPool, Token: testWETH, Amount: amount},
		pool.DrainEvent{Pool: testPool, Token: testWETH, Recipient: testVault, Amount: amount},
	}

	for _, ev := range events {
		record, err := encoder.Encode(ev)
		if err != nil {
			t.Fatalf("encode %s: %v", ev.EventName(), err)
		}
		if record.Address != testPool.Hex() {
			t.Fatalf("address mismatch: %s", record.Address)
		}
		if !decoder.CanDecode(record.Topics[0]) {
			t.Fatalf("decoder cannot decode %s", ev.EventName())
		}
		typed, err := decoder.Decode(record)
		if err != nil {
			t.Fatalf("decode %s: %v", ev.EventName(), err)
		}
		if typed.EventName != ev.EventName() {
			t.Fatalf("event name mismatch: %s vs %s", typed.EventName, ev.EventName())
		}

		switch decoded := typed.Decoded.(type) {
		case model.JoinEventData:
			if decoded.AmountIn != amount.Dec() || decoded.TokenIn != testWETH.Hex() {
				t.Fatalf("join mismatch: %+v", decoded)
			}
		case model.ExitEventData:
			if decoded.AmountOut != amount.Dec() || decoded.TokenOut != testDAI.Hex() {
				t.Fatalf("exit mismatch: %+v", decoded)
			}
		case model.AddReservesEventData:
			if decoded.Amount != amount.Dec() || decoded.Token != testWETH.Hex() {
				t.Fatalf("add reserves mismatch: %+v", decoded)
			}
		case model.DrainReservesEventData:
			if decoded.Recipient != testVault.Hex() || decoded.Amount != amount.Dec() {
				t.Fatalf("drain mismatch: %+v", decoded)
			}
		default:
			t.Fatalf("unexpected decoded type %T", typed.Decoded)
		}
	}
}

func TestPoolDecoderRejectsMalformedLogs(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewPoolDecoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	if decoder.CanDecode("") {
		t.Fatalf("empty topic should not decode")
	}
	if _, err := decoder.Decode(model.LogRecord{Address: testPool.Hex()}); err == nil {
		t.Fatalf("expected missing topics error")
	}

	data, err := poolABI.Events[model.EventJoin].Inputs.NonIndexed().Pack(big.NewInt(1))
	if err != nil {
		t.Fatalf("pack join: %v", err)
	}
	short := buildLogRecord(testPool, poolABI.Events[model.EventJoin].ID, data, []common.Hash{topicFromAddress(testUser)})
	if _, err := decoder.Decode(short); err == nil {
		t.Fatalf("expected topic count error")
	}

	bad := buildLogRecord(testPool, poolABI.Events[model.EventJoin].ID, data, []common.Hash{
		topicFromAddress(testUser),
		topicFromAddress(testWETH),
	})
	bad.Address = "not-an-address"
	if _, err := decoder.Decode(bad); err == nil {
		t.Fatalf("expected address error")
	}
}

func TestPoolDecoderTopicAlias(t *testing.T) {
	alias := "0x" + strings.Repeat("ab", 32)
	decoder, err := NewPoolDecoder(DecoderConfig{Topic0Map: map[string]string{alias: "swap"}})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	if !decoder.CanDecode(alias) {
		t.Fatalf("alias not registered")
	}

	if _, err := NewPoolDecoder(DecoderConfig{Topic0Map: map[string]string{alias: "flash"}}); err == nil {
		t.Fatalf("expected unsupported event name error")
	}
}

func buildLogRecord(pool common.Address, topic0 common.Hash, data []byte, indexed []common.Hash) model.LogRecord {
	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, topic0.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		Address:   pool.Hex(),
		Sequence:  9,
		Step:      4,
		Topics:    topics,
		Data:      hexutil.Encode(data),
		Timestamp: 1700000000,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
