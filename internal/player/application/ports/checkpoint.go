package ports

import (
	"context"
	"time"

	"github.com/solenne/chorus/internal/player/domain"
)

// Checkpoint is an opportunistic snapshot of the playback session, taken
// on pause/stop so a restarted process can resume. Not required for
// correctness of a single run.
type Checkpoint struct {
	ID       int64              `json:"id"`
	TrackID  domain.TrackID     `json:"track_id"`
	QueueIDs []domain.TrackID   `json:"queue_ids"`
	Cursor   int                `json:"cursor"`
	Position time.Duration      `json:"position"`
	Volume   float64            `json:"volume"`
	Shuffle  domain.ShuffleMode `json:"shuffle"`
	Repeat   domain.RepeatMode  `json:"repeat"`
	SavedAt  time.Time          `json:"saved_at"`
}

// CheckpointStore persists playback checkpoints. Failures are logged and
// swallowed by the caller; persistence is best-effort.
type CheckpointStore interface {
	// Save stores the checkpoint, replacing any previous one.
	Save(ctx context.Context, cp Checkpoint) error

	// Load returns the latest checkpoint, or nil if none exists.
	Load(ctx context.Context) (*Checkpoint, error)
}
