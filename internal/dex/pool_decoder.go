package dex

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"weightedPool/internal/model"
)

// DecoderConfig configures decoder behavior.
type DecoderConfig struct {
	Topic0Map map[string]string
}

// PoolDecoder decodes weighted pool events.
type PoolDecoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

// NewPoolDecoder builds a pool decoder. Topic0Map adds aliases for pools
// deployed with renamed events.
func NewPoolDecoder(cfg DecoderConfig) (*PoolDecoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}

	topicToName := make(map[string]string, len(poolABI.Events))
	for name, event := range poolABI.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = name
	}

	for topic0, name := range cfg.Topic0Map {
		original := name
		name = normalizeEventName(name)
		if name == "" {
			return nil, fmt.Errorf("unsupported event name in topic0 map: %s", original)
		}
		if topic0 == "" {
			continue
		}
		topicToName[strings.ToLower(topic0)] = name
	}

	return &PoolDecoder{
		poolABI:     poolABI,
		topicToName: topicToName,
	}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *PoolDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *PoolDecoder) Decode(log model.LogRecord) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid pool address: %s", log.Address)
	}

	event := d.poolABI.Events[name]
	topics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return nil, err
	}
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	switch name {
	case model.EventSwap:
		decoded, err = decodeSwap(event, topics, values)
	case model.EventJoin:
		decoded, err = decodeJoin(event, topics, values)
	case model.EventExit:
		decoded, err = decodeExit(event, topics, values)
	case model.EventAddReserves:
		decoded, err = decodeAddReserves(event, topics, values)
	case model.EventDrainReserves:
		decoded, err = decodeDrainReserves(event, topics, values)
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return nil, err
	}
	return buildTypedEvent(log, name, decoded), nil
}

func normalizeEventName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "swap", "log_swap":
		return model.EventSwap
	case "join", "log_join":
		return model.EventJoin
	case "exit", "log_exit":
		return model.EventExit
	case "add_reserves", "log_add_reserves":
		return model.EventAddReserves
	case "drain_reserves", "log_drain_reserves":
		return model.EventDrainReserves
	default:
		return ""
	}
}

func buildTypedEvent(log model.LogRecord, name string, decoded interface{}) *model.TypedEvent {
	raw := &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data}
	return &model.TypedEvent{
		Address:   log.Address,
		Sequence:  log.Sequence,
		Step:      log.Step,
		EventName: name,
		Timestamp: log.Timestamp,
		Decoded:   decoded,
		Raw:       raw,
	}
}

func decodeSwap(event abi.Event, topics []common.Hash, values []interface{}) (model.SwapEventData, error) {
	var indexed struct {
		Caller   common.Address
		TokenIn  common.Address
		TokenOut common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), topics); err != nil {
		return model.SwapEventData{}, fmt.Errorf("parse topics: %w", err)
	}
	if len(values) != 2 {
		return model.SwapEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}
	amountIn, err := asBigInt(values[0])
	if err != nil {
		return model.SwapEventData{}, err
	}
	amountOut, err := asBigInt(values[1])
	if err != nil {
		return model.SwapEventData{}, err
	}
	return model.SwapEventData{
		Caller:    indexed.Caller.Hex(),
		TokenIn:   indexed.TokenIn.Hex(),
		TokenOut:  indexed.TokenOut.Hex(),
		AmountIn:  amountIn.String(),
		AmountOut: amountOut.String(),
	}, nil
}

func decodeJoin(event abi.Event, topics []common.Hash, values []interface{}) (model.JoinEventData, error) {
	var indexed struct {
		Caller  common.Address
		TokenIn common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), topics); err != nil {
		return model.JoinEventData{}, fmt.Errorf("parse topics: %w", err)
	}
	if len(values) != 1 {
		return model.JoinEventData{}, fmt.Errorf("unexpected join values: %d", len(values))
	}
	amountIn, err := asBigInt(values[0])
	if err != nil {
		return model.JoinEventData{}, err
	}
	return model.JoinEventData{
		Caller:   indexed.Caller.Hex(),
		TokenIn:  indexed.TokenIn.Hex(),
		AmountIn: amountIn.String(),
	}, nil
}

func decodeExit(event abi.Event, topics []common.Hash, values []interface{}) (model.ExitEventData, error) {
	var indexed struct {
		Caller   common.Address
		TokenOut common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), topics); err != nil {
		return model.ExitEventData{}, fmt.Errorf("parse topics: %w", err)
	}
	if len(values) != 1 {
		return model.ExitEventData{}, fmt.Errorf("unexpected exit values: %d", len(values))
	}
	amountOut, err := asBigInt(values[0])
	if err != nil {
		return model.ExitEventData{}, err
	}
	return model.ExitEventData{
		Caller:    indexed.Caller.Hex(),
		TokenOut:  indexed.TokenOut.Hex(),
		AmountOut: amountOut.String(),
	}, nil
}

func decodeAddReserves(event abi.Event, topics []common.Hash, values []interface{}) (model.AddReservesEventData, error) {
	var indexed struct {
		Token common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), topics); err != nil {
		return model.AddReservesEventData{}, fmt.Errorf("parse topics: %w", err)
	}
	if len(values) != 1 {
		return model.AddReservesEventData{}, fmt.Errorf("unexpected add reserves values: %d", len(values))
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return model.AddReservesEventData{}, err
	}
	return model.AddReservesEventData{
		Token:  indexed.Token.Hex(),
		Amount: amount.String(),
	}, nil
}

func decodeDrainReserves(event abi.Event, topics []common.Hash, values []interface{}) (model.DrainReservesEventData, error) {
	var indexed struct {
		Token     common.Address
		Recipient common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), topics); err != nil {
		return model.DrainReservesEventData{}, fmt.Errorf("parse topics: %w", err)
	}
	if len(values) != 1 {
		return model.DrainReservesEventData{}, fmt.Errorf("unexpected drain reserves values: %d", len(values))
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return model.DrainReservesEventData{}, err
	}
	return model.DrainReservesEventData{
		Token:     indexed.Token.Hex(),
		Recipient: indexed.Recipient.Hex(),
		Amount:    amount.String(),
	}, nil
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
