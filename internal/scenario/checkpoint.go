package scenario

import (
	"time"

	"weightedPool/internal/storage"
)

// Checkpoint records the last step whose logs reached storage, keyed by
// the scenario it belongs to.
type Checkpoint struct {
	Scenario       string `json:"scenario"`
	LastStoredStep uint64 `json:"last_stored_step"`
	LastSequence   uint64 `json:"last_sequence"`
	UpdatedAt      string `json:"updated_at"`
}

// CheckpointStore persists checkpoints to disk. A disabled store loads
// nothing and discards saves.
type CheckpointStore struct {
	path    string
	enabled bool
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled && path != ""}
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	var cp Checkpoint
	if !c.enabled {
		return cp, false, nil
	}
	ok, err := storage.ReadJSONFile(c.path, &cp)
	if err != nil || !ok {
		return Checkpoint{}, false, err
	}
	return cp, true, nil
}

func (c *CheckpointStore) Save(cp Checkpoint) error {
	if !c.enabled {
		return nil
	}
	cp.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	return storage.WriteJSONFile(c.path, cp)
}
