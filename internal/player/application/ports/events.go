package ports

import (
	"context"

	"github.com/solenne/chorus/internal/player/domain"
)

// CancelFunc stops delivery for one subscription. Callers must invoke it
// to stop receiving notifications; there is no implicit cleanup.
type CancelFunc func()

// EventPublisher publishes playback and sync events to observers.
// Publishing is non-blocking; the most recent value per kind is never
// dropped ahead of older ones.
type EventPublisher interface {
	PublishStatusChanged(event domain.StatusChangedEvent)
	PublishTrackChanged(event domain.TrackChangedEvent)
	PublishPositionChanged(event domain.PositionChangedEvent)
	PublishVolumeChanged(event domain.VolumeChangedEvent)
	PublishQueueChanged(event domain.QueueChangedEvent)
	PublishPlaybackError(event domain.PlaybackErrorEvent)
	PublishTrackEnded(event domain.TrackEndedEvent)
	PublishTrackUnavailable(event domain.TrackUnavailableEvent)
	PublishSyncProgress(event domain.SyncProgressEvent)
	PublishSyncRequired(event domain.SyncRequiredEvent)
	PublishSyncCompleted(event domain.SyncCompletedEvent)
}

// EventSubscriber registers handlers for discrete event kinds. Each
// registration returns a cancel handle that removes the handler.
type EventSubscriber interface {
	OnStatusChanged(handler func(context.Context, domain.StatusChangedEvent)) CancelFunc
	OnTrackChanged(handler func(context.Context, domain.TrackChangedEvent)) CancelFunc
	OnPositionChanged(handler func(context.Context, domain.PositionChangedEvent)) CancelFunc
	OnVolumeChanged(handler func(context.Context, domain.VolumeChangedEvent)) CancelFunc
	OnQueueChanged(handler func(context.Context, domain.QueueChangedEvent)) CancelFunc
	OnPlaybackError(handler func(context.Context, domain.PlaybackErrorEvent)) CancelFunc
	OnTrackEnded(handler func(context.Context, domain.TrackEndedEvent)) CancelFunc
	OnTrackUnavailable(handler func(context.Context, domain.TrackUnavailableEvent)) CancelFunc
	OnSyncProgress(handler func(context.Context, domain.SyncProgressEvent)) CancelFunc
	OnSyncRequired(handler func(context.Context, domain.SyncRequiredEvent)) CancelFunc
	OnSyncCompleted(handler func(context.Context, domain.SyncCompletedEvent)) CancelFunc
}
