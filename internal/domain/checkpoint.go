package domain

import "time"

// CheckpointSchemaVersion is the current on-disk schema version for
// IndexCheckpoint documents (§6 "Checkpoint file layout").
const CheckpointSchemaVersion uint32 = 1

// IndexCheckpoint is the resumable indexing progress record described in
// §3 / §6. It is the sole persistent state an IndexingCoordinator needs
// to resume incremental indexing across process restarts.
type IndexCheckpoint struct {
	SchemaVersion uint32                     `json:"schema_version"`
	Collection    string                     `json:"collection"`
	Generation    uint64                     `json:"generation"`
	Files         map[string]FileFingerprint `json:"files"`
	Ignored       []string                   `json:"ignored_paths,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// NewCheckpoint returns an empty checkpoint for the given collection,
// ready for the first indexing pass.
func NewCheckpoint(collection string, now time.Time) *IndexCheckpoint {
	return &IndexCheckpoint{
		SchemaVersion: CheckpointSchemaVersion,
		Collection:    collection,
		Generation:    0,
		Files:         make(map[string]FileFingerprint),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
