package indexing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sourcelens/semcode/internal/cerr"
	"github.com/sourcelens/semcode/internal/domain"
)

// checkpointPath implements §6's "Checkpoint file layout":
// {state_dir}/{collection}.checkpoint.
func checkpointPath(stateDir, collection string) string {
	return filepath.Join(stateDir, collection+".checkpoint")
}

// loadCheckpoint implements §4.5 step 2: load the checkpoint if present,
// else return a fresh one.
func loadCheckpoint(stateDir, collection string) (*domain.IndexCheckpoint, error) {
	path := checkpointPath(stateDir, collection)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewCheckpoint(collection, time.Now()), nil
		}
		return nil, cerr.Wrap(cerr.IoError, "load_checkpoint", "failed to read checkpoint file", err).WithPath(path)
	}
	var cp domain.IndexCheckpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, cerr.Wrap(cerr.IoError, "load_checkpoint", "failed to parse checkpoint file", err).WithPath(path)
	}
	if cp.Files == nil {
		cp.Files = make(map[string]domain.FileFingerprint)
	}
	return &cp, nil
}

// saveCheckpoint implements §4.5 step 9 / §6's "Written atomically via
// temp + rename" requirement: write to a temp file in the same
// directory, fsync it, then rename over the target so a crash never
// leaves a half-written checkpoint.
func saveCheckpoint(stateDir string, cp *domain.IndexCheckpoint) error {
	cp.UpdatedAt = time.Now()
	path := checkpointPath(stateDir, cp.Collection)

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return cerr.Wrap(cerr.IoError, "save_checkpoint", "failed to encode checkpoint", err).WithPath(path)
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return cerr.Wrap(cerr.IoError, "save_checkpoint", "failed to create state directory", err).WithPath(stateDir)
	}

	tmp, err := os.CreateTemp(stateDir, cp.Collection+".checkpoint.*.tmp")
	if err != nil {
		return cerr.Wrap(cerr.IoError, "save_checkpoint", "failed to create temp checkpoint file", err).WithPath(path)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return cerr.Wrap(cerr.IoError, "save_checkpoint", "failed to write temp checkpoint file", err).WithPath(path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return cerr.Wrap(cerr.IoError, "save_checkpoint", "failed to fsync temp checkpoint file", err).WithPath(path)
	}
	if err := tmp.Close(); err != nil {
		return cerr.Wrap(cerr.IoError, "save_checkpoint", "failed to close temp checkpoint file", err).WithPath(path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return cerr.Wrap(cerr.IoError, "save_checkpoint", "failed to rename temp checkpoint into place", err).WithPath(path)
	}
	return nil
}
