package model

import (
	"encoding/json"
	"testing"
)

func TestLogRecordJSONFieldNames(t *testing.T) {
	record := LogRecord{
		Address:    "0x1111111111111111111111111111111111111111",
		Sequence:   7,
		Step:       3,
		Topics:     []string{"0xaaa", "0xbbb"},
		Data:       "0xdeadbeef",
		Timestamp:  1700000000,
		IngestedAt: "2024-01-01T00:00:00Z",
	}

	b, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"address", "sequence", "step", "topics", "data", "timestamp", "ingested_at"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing field %q in %s", key, b)
		}
	}
}
