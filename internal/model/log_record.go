package model

// LogRecord is the normalized representation of a pool log for storage.
type LogRecord struct {
	Address    string   `json:"address"`
	Sequence   uint64   `json:"sequence"`
	Step       uint64   `json:"step"`
	Topics     []string `json:"topics"`
	Data       string   `json:"data"`
	Timestamp  uint64   `json:"timestamp"`
	IngestedAt string   `json:"ingested_at"`
}
