package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"weightedPool/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "logs.jsonl")
	store := NewJsonlStorage(path)

	first := []model.LogRecord{{Address: "0x01", Sequence: 1, Step: 1, Topics: []string{"0xaa"}, Data: "0x"}}
	second := []model.LogRecord{{Address: "0x01", Sequence: 2, Step: 3, Topics: []string{"0xbb"}, Data: "0x"}}
	if err := store.PutLogBatch(context.Background(), first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := store.PutLogBatch(context.Background(), nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}
	if err := store.PutLogBatch(context.Background(), second); err != nil {
		t.Fatalf("put second: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var got []model.LogRecord
	err = ScanJSONL(file, func(line []byte) error {
		var rec model.LogRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		got = append(got, rec)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 || got[0].Sequence != 1 || got[1].Sequence != 2 || got[1].Step != 3 {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestJSONLWriterTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typed.jsonl")
	for _, v := range []string{"first", "second"} {
		w, err := NewJSONLWriter(path, false)
		if err != nil {
			t.Fatalf("open writer: %v", err)
		}
		if err := w.Write(map[string]string{"v": v}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(string(data)) != `{"v":"second"}` {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestScanJSONLSkipsBlankLines(t *testing.T) {
	var lines []string
	err := ScanJSONL(strings.NewReader("{\"a\":1}\n\n  \n{\"a\":2}\n"), func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(lines) != 2 || lines[1] != `{"a":2}` {
		t.Fatalf("unexpected lines: %q", lines)
	}
}

func TestJSONFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	var got map[string]uint64
	if ok, err := ReadJSONFile(path, &got); err != nil || ok {
		t.Fatalf("missing file = %v %v", ok, err)
	}
	if err := WriteJSONFile(path, map[string]uint64{"step": 7}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	if ok, err := ReadJSONFile(path, &got); err != nil || !ok || got["step"] != 7 {
		t.Fatalf("read = %v %v %v", got, ok, err)
	}

	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, err := ReadJSONFile(path, &got); err == nil {
		t.Fatalf("expected parse error")
	}
}
