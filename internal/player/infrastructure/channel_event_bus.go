package infrastructure

import (
	"context"
	"log/slog"
	"sync"

	"github.com/solenne/chorus/internal/player/application/ports"
	"github.com/solenne/chorus/internal/player/domain"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

// Compile-time checks that ChannelEventBus implements the ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

// stream is one event kind's channel plus its registered handlers. A
// dispatcher goroutine drains the channel and fans out to handlers;
// publish is non-blocking and, when the buffer is full, evicts the
// oldest buffered event so the most recent value is never stuck behind
// a slow observer.
type stream[T any] struct {
	name     string
	ch       chan T
	mu       sync.Mutex
	handlers map[int]func(context.Context, T)
	nextID   int
}

func newStream[T any](name string, bufferSize int) *stream[T] {
	return &stream[T]{
		name:     name,
		ch:       make(chan T, bufferSize),
		handlers: make(map[int]func(context.Context, T)),
	}
}

func (s *stream[T]) publish(event T, closed bool) {
	if closed {
		slog.Warn("attempted to publish to closed event bus", "type", s.name)
		return
	}
	for {
		select {
		case s.ch <- event:
			slog.Debug("published event", "type", s.name)
			return
		default:
		}
		// Buffer full: drop the oldest buffered event in favor of the
		// new one. The dispatcher may race us for the receive, in which
		// case the retry send succeeds.
		select {
		case <-s.ch:
			slog.Warn("event buffer full, evicting oldest event", "type", s.name)
		default:
		}
	}
}

// subscribe registers a handler and returns a cancel handle that removes
// it. Callers must invoke the handle to stop receiving notifications.
func (s *stream[T]) subscribe(handler func(context.Context, T)) ports.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.handlers[id] = handler

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, id)
	}
}

func (s *stream[T]) dispatch(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.ch:
			if !ok {
				return
			}
			s.mu.Lock()
			handlers := make([]func(context.Context, T), 0, len(s.handlers))
			for _, h := range s.handlers {
				handlers = append(handlers, h)
			}
			s.mu.Unlock()
			for _, handler := range handlers {
				handler(ctx, event)
			}
		}
	}
}

// ChannelEventBus is a channel-based event bus for async event delivery.
// It implements both the publisher and subscriber ports.
type ChannelEventBus struct {
	statusChanged    *stream[domain.StatusChangedEvent]
	trackChanged     *stream[domain.TrackChangedEvent]
	positionChanged  *stream[domain.PositionChangedEvent]
	volumeChanged    *stream[domain.VolumeChangedEvent]
	queueChanged     *stream[domain.QueueChangedEvent]
	playbackError    *stream[domain.PlaybackErrorEvent]
	trackEnded       *stream[domain.TrackEndedEvent]
	trackUnavailable *stream[domain.TrackUnavailableEvent]
	syncProgress     *stream[domain.SyncProgressEvent]
	syncRequired     *stream[domain.SyncRequiredEvent]
	syncCompleted    *stream[domain.SyncCompletedEvent]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewChannelEventBus creates a bus with the given per-kind buffer size
// and starts one dispatcher goroutine per event kind.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &ChannelEventBus{
		statusChanged:    newStream[domain.StatusChangedEvent]("StatusChanged", bufferSize),
		trackChanged:     newStream[domain.TrackChangedEvent]("TrackChanged", bufferSize),
		positionChanged:  newStream[domain.PositionChangedEvent]("PositionChanged", bufferSize),
		volumeChanged:    newStream[domain.VolumeChangedEvent]("VolumeChanged", bufferSize),
		queueChanged:     newStream[domain.QueueChangedEvent]("QueueChanged", bufferSize),
		playbackError:    newStream[domain.PlaybackErrorEvent]("PlaybackError", bufferSize),
		trackEnded:       newStream[domain.TrackEndedEvent]("TrackEnded", bufferSize),
		trackUnavailable: newStream[domain.TrackUnavailableEvent]("TrackUnavailable", bufferSize),
		syncProgress:     newStream[domain.SyncProgressEvent]("SyncProgress", bufferSize),
		syncRequired:     newStream[domain.SyncRequiredEvent]("SyncRequired", bufferSize),
		syncCompleted:    newStream[domain.SyncCompletedEvent]("SyncCompleted", bufferSize),
		ctx:              ctx,
		cancel:           cancel,
	}

	b.wg.Add(11)
	go b.statusChanged.dispatch(ctx, &b.wg)
	go b.trackChanged.dispatch(ctx, &b.wg)
	go b.positionChanged.dispatch(ctx, &b.wg)
	go b.volumeChanged.dispatch(ctx, &b.wg)
	go b.queueChanged.dispatch(ctx, &b.wg)
	go b.playbackError.dispatch(ctx, &b.wg)
	go b.trackEnded.dispatch(ctx, &b.wg)
	go b.trackUnavailable.dispatch(ctx, &b.wg)
	go b.syncProgress.dispatch(ctx, &b.wg)
	go b.syncRequired.dispatch(ctx, &b.wg)
	go b.syncCompleted.dispatch(ctx, &b.wg)

	return b
}

func (b *ChannelEventBus) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// --- EventPublisher ---

func (b *ChannelEventBus) PublishStatusChanged(event domain.StatusChangedEvent) {
	b.statusChanged.publish(event, b.isClosed())
}

func (b *ChannelEventBus) PublishTrackChanged(event domain.TrackChangedEvent) {
	b.trackChanged.publish(event, b.isClosed())
}

func (b *ChannelEventBus) PublishPositionChanged(event domain.PositionChangedEvent) {
	b.positionChanged.publish(event, b.isClosed())
}

func (b *ChannelEventBus) PublishVolumeChanged(event domain.VolumeChangedEvent) {
	b.volumeChanged.publish(event, b.isClosed())
}

func (b *ChannelEventBus) PublishQueueChanged(event domain.QueueChangedEvent) {
	b.queueChanged.publish(event, b.isClosed())
}

func (b *ChannelEventBus) PublishPlaybackError(event domain.PlaybackErrorEvent) {
	b.playbackError.publish(event, b.isClosed())
}

func (b *ChannelEventBus) PublishTrackEnded(event domain.TrackEndedEvent) {
	b.trackEnded.publish(event, b.isClosed())
}

func (b *ChannelEventBus) PublishTrackUnavailable(event domain.TrackUnavailableEvent) {
	b.trackUnavailable.publish(event, b.isClosed())
}

func (b *ChannelEventBus) PublishSyncProgress(event domain.SyncProgressEvent) {
	b.syncProgress.publish(event, b.isClosed())
}

func (b *ChannelEventBus) PublishSyncRequired(event domain.SyncRequiredEvent) {
	b.syncRequired.publish(event, b.isClosed())
}

func (b *ChannelEventBus) PublishSyncCompleted(event domain.SyncCompletedEvent) {
	b.syncCompleted.publish(event, b.isClosed())
}

// --- EventSubscriber ---

func (b *ChannelEventBus) OnStatusChanged(handler func(context.Context, domain.StatusChangedEvent)) ports.CancelFunc {
	return b.statusChanged.subscribe(handler)
}

func (b *ChannelEventBus) OnTrackChanged(handler func(context.Context, domain.TrackChangedEvent)) ports.CancelFunc {
	return b.trackChanged.subscribe(handler)
}

func (b *ChannelEventBus) OnPositionChanged(handler func(context.Context, domain.PositionChangedEvent)) ports.CancelFunc {
	return b.positionChanged.subscribe(handler)
}

func (b *ChannelEventBus) OnVolumeChanged(handler func(context.Context, domain.VolumeChangedEvent)) ports.CancelFunc {
	return b.volumeChanged.subscribe(handler)
}

func (b *ChannelEventBus) OnQueueChanged(handler func(context.Context, domain.QueueChangedEvent)) ports.CancelFunc {
	return b.queueChanged.subscribe(handler)
}

func (b *ChannelEventBus) OnPlaybackError(handler func(context.Context, domain.PlaybackErrorEvent)) ports.CancelFunc {
	return b.playbackError.subscribe(handler)
}

func (b *ChannelEventBus) OnTrackEnded(handler func(context.Context, domain.TrackEndedEvent)) ports.CancelFunc {
	return b.trackEnded.subscribe(handler)
}

func (b *ChannelEventBus) OnTrackUnavailable(handler func(context.Context, domain.TrackUnavailableEvent)) ports.CancelFunc {
	return b.trackUnavailable.subscribe(handler)
}

func (b *ChannelEventBus) OnSyncProgress(handler func(context.Context, domain.SyncProgressEvent)) ports.CancelFunc {
	return b.syncProgress.subscribe(handler)
}

func (b *ChannelEventBus) OnSyncRequired(handler func(context.Context, domain.SyncRequiredEvent)) ports.CancelFunc {
	return b.syncRequired.subscribe(handler)
}

func (b *ChannelEventBus) OnSyncCompleted(handler func(context.Context, domain.SyncCompletedEvent)) ports.CancelFunc {
	return b.syncCompleted.subscribe(handler)
}

// Close stops all dispatchers. After Close, publishing no longer sends
// events.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()

	slog.Debug("channel event bus closed")
}
