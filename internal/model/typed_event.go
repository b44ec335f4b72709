package model

// TypedEvent is a decoded pool event.
type TypedEvent struct {
	Address   string      `json:"address"`
	Sequence  uint64      `json:"sequence"`
	Step      uint64      `json:"step"`
	EventName string      `json:"event_name"`
	Timestamp uint64      `json:"timestamp"`
	Decoded   interface{} `json:"decoded"`
	Raw       *RawLogRef  `json:"raw,omitempty"`
}

// RawLogRef keeps a minimal raw reference for traceability.
type RawLogRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}
