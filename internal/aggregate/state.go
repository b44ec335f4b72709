package aggregate

import (
	"context"
	"sync"
	"time"

	"weightedPool/internal/storage"
)

// StateStore persists the last aggregated event sequence.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, sequence uint64) error
}

const defaultStateName = "report"

// FileStateStore keeps progress rows in a local JSON file, one per Name,
// mirroring the bpool_state table so several reports can share a file.
type FileStateStore struct {
	Path string
	Name string

	mu sync.Mutex
}

type stateRow struct {
	LastSequence uint64 `json:"last_sequence"`
	UpdatedAt    string `json:"updated_at"`
}

type stateFile struct {
	States map[string]stateRow `json:"states"`
}

func (s *FileStateStore) name() string {
	if s.Name == "" {
		return defaultStateName
	}
	return s.Name
}

func (s *FileStateStore) read() (stateFile, error) {
	var file stateFile
	if _, err := storage.ReadJSONFile(s.Path, &file); err != nil {
		return stateFile{}, err
	}
	if file.States == nil {
		file.States = make(map[string]stateRow)
	}
	return file, nil
}

func (s *FileStateStore) Load(_ context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return 0, false, err
	}
	row, ok := file.States[s.name()]
	return row.LastSequence, ok, nil
}

func (s *FileStateStore) Save(_ context.Context, sequence uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return err
	}
	file.States[s.name()] = stateRow{
		LastSequence: sequence,
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	return storage.WriteJSONFile(s.Path, file)
}
