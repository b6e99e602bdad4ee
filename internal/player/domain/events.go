package domain

import "time"

// TrackEndReason represents why the engine reported a track end.
type TrackEndReason string

const (
	// TrackEndFinished means the track finished normally.
	TrackEndFinished TrackEndReason = "finished"
	// TrackEndUnavailable means the engine could not continue because the
	// track no longer exists (typically invalidated by a library sync).
	TrackEndUnavailable TrackEndReason = "unavailable"
	// TrackEndStopped means playback was stopped by a command.
	TrackEndStopped TrackEndReason = "stopped"
	// TrackEndReplaced means the track was replaced by another load.
	TrackEndReplaced TrackEndReason = "replaced"
)

// ShouldAdvance returns true if this end reason should auto-advance the queue.
func (r TrackEndReason) ShouldAdvance() bool {
	return r == TrackEndFinished || r == TrackEndUnavailable
}

// StatusChangedEvent is published when the play/pause/stop status changes.
type StatusChangedEvent struct {
	Status Status
}

// TrackChangedEvent is published when the cursor lands on a new track.
type TrackChangedEvent struct {
	Track *Track
	Index int
}

// PositionChangedEvent is published periodically while playing and after seeks.
type PositionChangedEvent struct {
	Position time.Duration
}

// VolumeChangedEvent is published when the stored volume changes.
type VolumeChangedEvent struct {
	Volume float64
}

// QueueChangedEvent is published when the queue contents change. The
// generation is a fresh ID per wholesale load so observers can tell a
// replacement from an in-place removal.
type QueueChangedEvent struct {
	Entries    []QueueEntry
	Generation int64
}

// PlaybackErrorEvent carries command failures to passive observers so a
// toast can be shown without every caller handling every case.
type PlaybackErrorEvent struct {
	Err error
}

// TrackEndedEvent is pushed by the engine collaborator when the active
// track ends, for whatever reason.
type TrackEndedEvent struct {
	TrackID TrackID
	Reason  TrackEndReason
}

// TrackUnavailableEvent is pushed by the sync collaborator when a track
// in the library no longer exists.
type TrackUnavailableEvent struct {
	TrackID TrackID
}

// SyncProgressEvent is published on every accepted phase/percentage report.
type SyncProgressEvent struct {
	Phase      SyncPhase
	Percentage int
}

// SyncRequiredEvent is published when the required flag changes.
type SyncRequiredEvent struct {
	Required bool
}

// SyncCompletedEvent is published once per run, after Cleanup finishes,
// distinct from per-phase progress notifications.
type SyncCompletedEvent struct {
	Trigger SyncTrigger
	Elapsed time.Duration
}
