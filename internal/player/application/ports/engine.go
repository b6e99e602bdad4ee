package ports

import (
	"context"
	"time"

	"github.com/solenne/chorus/internal/player/domain"
)

// Engine defines the playback operations the core requires from its
// audio collaborator. Commands are asynchronous from the caller's point
// of view: a nil return means the request was accepted, not that audio
// output has changed. State is authoritative only once the corresponding
// event arrives.
type Engine interface {
	// Play starts (or replaces) playback of the given track.
	Play(ctx context.Context, track *domain.Track) error

	// Pause pauses the current playback.
	Pause(ctx context.Context) error

	// Resume resumes paused playback.
	Resume(ctx context.Context) error

	// Stop stops the current playback.
	Stop(ctx context.Context) error

	// Seek moves to the given position within the active track.
	Seek(ctx context.Context, position time.Duration) error

	// SetVolume applies the given volume in [0, 1].
	SetVolume(ctx context.Context, volume float64) error

	// Close releases the engine connection.
	Close() error
}

// LibraryScanner starts library scan runs on the collaborator. Progress
// comes back through a SyncReporter, never through the return value.
type LibraryScanner interface {
	// StartScan requests a scan run. The collaborator decides pacing and
	// reports phases as it goes.
	StartScan(ctx context.Context, trigger domain.SyncTrigger) error
}

// SyncReporter receives push notifications from the scanning
// collaborator. Implemented by the sync coordinator.
type SyncReporter interface {
	// ReportProgress delivers a phase/percentage observation.
	ReportProgress(phase domain.SyncPhase, percentage int)

	// ReportRequired sets or clears the sync-required flag.
	ReportRequired(required bool)

	// ReportCompleted signals that Cleanup finished and the run is over.
	ReportCompleted()

	// ReportFailed signals that the collaborator aborted the run.
	ReportFailed(reason string)
}
