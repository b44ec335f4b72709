package model

// DecodeError records a decode failure for a log line.
type DecodeError struct {
	Address  string `json:"address"`
	Sequence uint64 `json:"sequence"`
	Step     uint64 `json:"step"`
	Topic0   string `json:"topic0"`
	Error    string `json:"error"`
}
