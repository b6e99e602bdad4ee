package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/solenne/chorus/internal/player/application/ports"
	"github.com/solenne/chorus/internal/player/domain"
)

// DefaultPositionTick is the interval between position-advance events
// while playing.
const DefaultPositionTick = 250 * time.Millisecond

// checkpointTimeout bounds the opportunistic checkpoint write.
const checkpointTimeout = 3 * time.Second

// Capabilities are UI-facing hints for enabling or disabling the skip
// controls, computed from cursor, queue length, repeat mode, and shuffle
// history.
type Capabilities struct {
	HasNext     bool
	HasPrevious bool
}

// SessionManager is the single source of truth for what is playing and
// what plays next. All mutation of the playback session is serialized
// through its command entry points; commands that reach the engine
// collaborator are asynchronous - a nil return means the request was
// accepted, and state changes are authoritative once the matching event
// fires.
type SessionManager struct {
	mu      sync.Mutex
	session *domain.PlaybackSession
	shuffle *domain.ShuffleCycle

	engine      ports.Engine
	library     ports.TrackSource
	checkpoints ports.CheckpointStore
	publisher   ports.EventPublisher

	tickInterval time.Duration
	tickCancel   context.CancelFunc
}

// NewSessionManager creates the one session manager for the process.
// library and checkpoints may be nil when the build has no library
// collaborator or no persistence.
func NewSessionManager(
	engine ports.Engine,
	library ports.TrackSource,
	checkpoints ports.CheckpointStore,
	publisher ports.EventPublisher,
	tickInterval time.Duration,
) *SessionManager {
	if tickInterval <= 0 {
		tickInterval = DefaultPositionTick
	}
	return &SessionManager{
		session:      domain.NewPlaybackSession(),
		engine:       engine,
		library:      library,
		checkpoints:  checkpoints,
		publisher:    publisher,
		tickInterval: tickInterval,
	}
}

// fail publishes the error for passive observers and returns it to the caller.
func (m *SessionManager) fail(err error) error {
	m.publisher.PublishPlaybackError(domain.PlaybackErrorEvent{Err: err})
	return err
}

func engineFailure(err error) error {
	return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
}

// LoadQueue replaces the queue wholesale. The input is rotated so the
// track at startIndex becomes position 0 with the remainder wrapping
// around in original order, unplayable tracks are filtered, and adjacent
// duplicates are suppressed post-rotation. Any currently playing track is
// stopped first; a load is never an append. Fails with ErrInvalidQueue,
// leaving prior state untouched, if the result is empty.
func (m *SessionManager) LoadQueue(ctx context.Context, tracks []*domain.Track, startIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := domain.BuildQueue(tracks, startIndex)
	if queue == nil {
		return m.fail(ErrInvalidQueue)
	}

	if m.session.Status() != domain.StatusStopped {
		if err := m.engine.Stop(ctx); err != nil {
			return m.fail(engineFailure(err))
		}
	}

	m.stopTickLocked()
	wasStopped := m.session.Status() == domain.StatusStopped
	m.session.SetStatus(domain.StatusStopped)
	m.session.ReplaceQueue(queue)
	m.shuffle = domain.NewShuffleCycle(queue.Len(), time.Now().UnixNano())
	m.shuffle.MarkVisited(queue.Cursor())

	if !wasStopped {
		m.publisher.PublishStatusChanged(domain.StatusChangedEvent{Status: domain.StatusStopped})
	}
	m.publisher.PublishQueueChanged(domain.QueueChangedEvent{
		Entries:    queue.Entries(),
		Generation: newGeneration(),
	})
	m.publisher.PublishTrackChanged(domain.TrackChangedEvent{
		Track: queue.Current(),
		Index: queue.Cursor(),
	})
	return nil
}

// LoadQueueFromSource fetches tracks from the library collaborator and
// loads them as the new queue.
func (m *SessionManager) LoadQueueFromSource(ctx context.Context, source ports.SourceDescriptor, startIndex int) error {
	if m.library == nil {
		return m.fail(engineFailure(fmt.Errorf("no track source configured")))
	}
	tracks, err := m.library.FetchTracks(ctx, source)
	if err != nil {
		return m.fail(engineFailure(err))
	}
	return m.LoadQueue(ctx, tracks, startIndex)
}

// Play starts playback of the current track, or resumes when paused.
// Fails with ErrNothingToPlay on an empty queue.
func (m *SessionManager) Play(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.session.Queue()
	if queue.IsEmpty() {
		return m.fail(ErrNothingToPlay)
	}

	switch m.session.Status() {
	case domain.StatusPlaying:
		return nil
	case domain.StatusPaused:
		if err := m.engine.Resume(ctx); err != nil {
			return m.fail(engineFailure(err))
		}
	default:
		if err := m.engine.Play(ctx, queue.Current()); err != nil {
			return m.fail(engineFailure(err))
		}
	}

	m.session.SetStatus(domain.StatusPlaying)
	m.startTickLocked()
	m.publisher.PublishStatusChanged(domain.StatusChangedEvent{Status: domain.StatusPlaying})
	return nil
}

// Pause pauses playback. A no-op unless currently playing.
func (m *SessionManager) Pause(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.Status() != domain.StatusPlaying {
		return nil
	}
	if err := m.engine.Pause(ctx); err != nil {
		return m.fail(engineFailure(err))
	}

	m.session.SetStatus(domain.StatusPaused)
	m.stopTickLocked()
	m.publisher.PublishStatusChanged(domain.StatusChangedEvent{Status: domain.StatusPaused})
	m.saveCheckpointLocked()
	return nil
}

// Stop stops playback from any status and resets position to zero.
func (m *SessionManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.Status() == domain.StatusStopped {
		return nil
	}
	if err := m.engine.Stop(ctx); err != nil {
		return m.fail(engineFailure(err))
	}

	m.stopTickLocked()
	m.session.SetStatus(domain.StatusStopped)
	m.publisher.PublishStatusChanged(domain.StatusChangedEvent{Status: domain.StatusStopped})
	m.publisher.PublishPositionChanged(domain.PositionChangedEvent{Position: 0})
	m.saveCheckpointLocked()
	return nil
}

// Seek moves within the active track, clamped to [0, duration] when the
// duration is known. A no-op when no track is active.
func (m *SessionManager) Seek(ctx context.Context, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.session.HasActiveTrack() {
		return nil
	}

	if position < 0 {
		position = 0
	}
	if track := m.session.CurrentTrack(); track.HasKnownDuration() && position > track.Duration {
		position = track.Duration
	}

	if err := m.engine.Seek(ctx, position); err != nil {
		return m.fail(engineFailure(err))
	}

	m.session.SetPosition(position)
	m.publisher.PublishPositionChanged(domain.PositionChangedEvent{Position: position})
	return nil
}

// SkipNext moves the cursor forward. With shuffle off it advances by one,
// wrapping under repeat-all; with shuffle on it picks a pseudo-random
// unplayed index, starting a reshuffled pass on exhaustion when
// repeat-all is set. A no-op, reported via capability flags rather than
// an error, when no valid target exists. Explicit skips always advance
// regardless of repeat-one.
func (m *SessionManager) SkipNext(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.session.Queue()
	if queue.IsEmpty() {
		return nil
	}

	target := -1
	if m.session.Shuffle() == domain.ShuffleRandom {
		target = m.shuffle.Next(queue.Cursor())
		if target < 0 && m.session.Repeat() == domain.RepeatAll {
			m.shuffle.ResetPass()
			target = m.shuffle.Next(queue.Cursor())
		}
	} else {
		target = queue.NextIndex(m.session.Repeat())
	}
	if target < 0 {
		return nil
	}
	return m.jumpToLocked(ctx, target)
}

// SkipPrevious moves the cursor backward. Under shuffle it replays the
// most recent prior selection from the history stack; otherwise it steps
// back by one, wrapping under repeat-all.
func (m *SessionManager) SkipPrevious(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.session.Queue()
	if queue.IsEmpty() {
		return nil
	}

	target := -1
	if m.session.Shuffle() == domain.ShuffleRandom {
		target = m.shuffle.Previous()
	} else {
		target = queue.PreviousIndex(m.session.Repeat())
	}
	if target < 0 {
		return nil
	}
	return m.jumpToLocked(ctx, target)
}

// jumpToLocked moves the cursor to the given index and, unless stopped,
// asks the engine to play the track there. Paused sessions resume on an
// explicit skip.
func (m *SessionManager) jumpToLocked(ctx context.Context, index int) error {
	queue := m.session.Queue()
	track := queue.TrackAt(index)
	if track == nil {
		return nil
	}

	previous := m.session.Status()
	if previous != domain.StatusStopped {
		if err := m.engine.Play(ctx, track); err != nil {
			return m.fail(engineFailure(err))
		}
	}

	queue.Seek(index)
	m.session.SetPosition(0)
	if m.shuffle != nil {
		m.shuffle.MarkVisited(index)
	}

	if previous == domain.StatusPaused {
		m.session.SetStatus(domain.StatusPlaying)
		m.startTickLocked()
		m.publisher.PublishStatusChanged(domain.StatusChangedEvent{Status: domain.StatusPlaying})
	}

	m.publisher.PublishTrackChanged(domain.TrackChangedEvent{Track: track, Index: index})
	m.publisher.PublishPositionChanged(domain.PositionChangedEvent{Position: 0})
	return nil
}

// SetShuffle toggles random selection order. The stored queue is never
// reordered; enabling shuffle starts a fresh selection pass from the
// current track.
func (m *SessionManager) SetShuffle(ctx context.Context, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mode := domain.ShuffleOff
	if enabled {
		mode = domain.ShuffleRandom
	}
	if mode == m.session.Shuffle() {
		return nil
	}
	m.session.SetShuffle(mode)

	if queue := m.session.Queue(); enabled && !queue.IsEmpty() {
		m.shuffle = domain.NewShuffleCycle(queue.Len(), time.Now().UnixNano())
		m.shuffle.MarkVisited(queue.Cursor())
	}
	return nil
}

// SetRepeatMode sets the repeat policy without altering queue contents.
func (m *SessionManager) SetRepeatMode(ctx context.Context, mode domain.RepeatMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session.SetRepeat(mode)
	return nil
}

// SetVolume applies the volume clamped to [0, 1]. The stored value only
// changes once the engine accepts the command.
func (m *SessionManager) SetVolume(ctx context.Context, volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}

	if err := m.engine.SetVolume(ctx, volume); err != nil {
		return m.fail(engineFailure(err))
	}

	m.session.SetVolume(volume)
	m.publisher.PublishVolumeChanged(domain.VolumeChangedEvent{Volume: volume})
	return nil
}

// Capabilities returns the skip hints for the current state. Never blocks
// on the collaborator.
func (m *SessionManager) Capabilities() Capabilities {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.session.Queue()
	if queue.IsEmpty() {
		return Capabilities{}
	}

	switch {
	case m.session.Repeat() == domain.RepeatAll:
		return Capabilities{HasNext: true, HasPrevious: true}
	case m.session.Repeat() == domain.RepeatOne && m.session.HasActiveTrack():
		return Capabilities{HasNext: true, HasPrevious: true}
	}

	if m.session.Shuffle() == domain.ShuffleRandom {
		return Capabilities{
			HasNext:     m.shuffle.Remaining(queue.Cursor()) > 0,
			HasPrevious: m.shuffle.HasHistory(),
		}
	}
	return Capabilities{
		HasNext:     !queue.IsAtLast(),
		HasPrevious: queue.Cursor() > 0,
	}
}

// Status returns the current playback status.
func (m *SessionManager) Status() domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Status()
}

// CurrentTrack returns the track at the cursor, or nil.
func (m *SessionManager) CurrentTrack() *domain.Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.CurrentTrack()
}

// QueueEntries returns a copy of the current queue in order.
func (m *SessionManager) QueueEntries() []domain.QueueEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Queue().Entries()
}

// Position returns the position within the active track.
func (m *SessionManager) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Position()
}

// Volume returns the stored volume.
func (m *SessionManager) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Volume()
}

// HandleTrackEnded reacts to the engine's track-end push. Natural ends
// auto-advance per repeat policy; repeat-one replays the same index. Ends
// caused by our own stop/replace commands are ignored.
func (m *SessionManager) HandleTrackEnded(ctx context.Context, event domain.TrackEndedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.Status() != domain.StatusPlaying {
		return
	}
	if !event.Reason.ShouldAdvance() {
		return
	}
	if event.Reason == domain.TrackEndUnavailable {
		m.removeUnavailableLocked(ctx, event.TrackID)
		return
	}
	m.advanceNaturallyLocked(ctx)
}

// HandleTrackUnavailable reacts to the sync collaborator invalidating a
// track. If the active track vanished the session auto-advances with the
// natural-end algorithm instead of entering an undefined state.
func (m *SessionManager) HandleTrackUnavailable(ctx context.Context, event domain.TrackUnavailableEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeUnavailableLocked(ctx, event.TrackID)
}

func (m *SessionManager) advanceNaturallyLocked(ctx context.Context) {
	queue := m.session.Queue()

	if m.session.Repeat() == domain.RepeatOne {
		track := queue.Current()
		if err := m.engine.Play(ctx, track); err != nil {
			m.fail(engineFailure(err))
			m.stopPlaybackLocked()
			return
		}
		m.session.SetPosition(0)
		m.publisher.PublishPositionChanged(domain.PositionChangedEvent{Position: 0})
		return
	}

	next := -1
	if m.session.Shuffle() == domain.ShuffleRandom {
		next = m.shuffle.Next(queue.Cursor())
		if next < 0 && m.session.Repeat() == domain.RepeatAll {
			m.shuffle.ResetPass()
			next = m.shuffle.Next(queue.Cursor())
		}
	} else {
		next = queue.NextIndex(m.session.Repeat())
	}

	if next < 0 {
		m.stopPlaybackLocked()
		return
	}
	if err := m.jumpToLocked(ctx, next); err != nil {
		m.stopPlaybackLocked()
	}
}

func (m *SessionManager) removeUnavailableLocked(ctx context.Context, id domain.TrackID) {
	queue := m.session.Queue()
	if queue.IsEmpty() {
		return
	}

	index := -1
	for i, entry := range queue.Entries() {
		if entry.Track.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return
	}

	wasCurrent := index == queue.Cursor()
	wasLast := index == queue.Len()-1
	queue.RemoveByID(id)
	slog.Warn("track invalidated by library sync", "track", id, "remaining", queue.Len())

	// Removal shifts indices, so any shuffle pass in progress restarts.
	if m.shuffle != nil && queue.Len() > 0 {
		m.shuffle = domain.NewShuffleCycle(queue.Len(), time.Now().UnixNano())
		m.shuffle.MarkVisited(queue.Cursor())
	}

	m.publisher.PublishQueueChanged(domain.QueueChangedEvent{
		Entries:    queue.Entries(),
		Generation: newGeneration(),
	})

	if queue.IsEmpty() {
		m.stopPlaybackLocked()
		m.fail(ErrNothingToPlay)
		return
	}
	if !wasCurrent {
		return
	}

	if wasLast && m.session.Repeat() != domain.RepeatAll {
		// The vanished track was the end of the queue. Removal clamped
		// the cursor to the new last entry; announce it.
		m.stopPlaybackLocked()
		m.publisher.PublishTrackChanged(domain.TrackChangedEvent{
			Track: queue.Current(),
			Index: queue.Cursor(),
		})
		return
	}

	target := queue.Cursor()
	if wasLast {
		target = 0
	}
	track := queue.Seek(target)
	m.session.SetPosition(0)

	// Paused and stopped sessions keep their status on the new track;
	// observers still need the cursor change announced.
	if m.session.Status() == domain.StatusPlaying {
		if err := m.engine.Play(ctx, track); err != nil {
			m.fail(engineFailure(err))
			m.stopPlaybackLocked()
			return
		}
	}

	m.publisher.PublishTrackChanged(domain.TrackChangedEvent{Track: track, Index: target})
	m.publisher.PublishPositionChanged(domain.PositionChangedEvent{Position: 0})
}

func (m *SessionManager) stopPlaybackLocked() {
	if m.session.Status() == domain.StatusStopped {
		return
	}
	m.stopTickLocked()
	m.session.SetStatus(domain.StatusStopped)
	m.publisher.PublishStatusChanged(domain.StatusChangedEvent{Status: domain.StatusStopped})
	m.publisher.PublishPositionChanged(domain.PositionChangedEvent{Position: 0})
	m.saveCheckpointLocked()
}

func (m *SessionManager) startTickLocked() {
	if m.tickCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.tickCancel = cancel
	go m.runTicker(ctx)
}

func (m *SessionManager) stopTickLocked() {
	if m.tickCancel != nil {
		m.tickCancel()
		m.tickCancel = nil
	}
}

func (m *SessionManager) runTicker(ctx context.Context) {
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			if m.session.Status() == domain.StatusPlaying {
				pos := m.session.AdvancePosition(m.tickInterval)
				m.publisher.PublishPositionChanged(domain.PositionChangedEvent{Position: pos})
			}
			m.mu.Unlock()
		}
	}
}

// saveCheckpointLocked snapshots the session for resume-after-restart.
// Best-effort: failures are logged, never surfaced.
func (m *SessionManager) saveCheckpointLocked() {
	if m.checkpoints == nil {
		return
	}

	queue := m.session.Queue()
	cp := ports.Checkpoint{
		ID:       newGeneration(),
		Cursor:   queue.Cursor(),
		Position: m.session.Position(),
		Volume:   m.session.Volume(),
		Shuffle:  m.session.Shuffle(),
		Repeat:   m.session.Repeat(),
		SavedAt:  time.Now().UTC(),
	}
	if track := queue.Current(); track != nil {
		cp.TrackID = track.ID
	}
	for _, entry := range queue.Entries() {
		cp.QueueIDs = append(cp.QueueIDs, entry.Track.ID)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
		defer cancel()
		if err := m.checkpoints.Save(ctx, cp); err != nil {
			slog.Warn("failed to persist playback checkpoint", "error", err)
		}
	}()
}

// RestoreCheckpoint applies the persisted volume and playback policy from
// the last checkpoint, if one exists. Queue contents are not restored;
// the UI reloads them from the library so tracks are always fresh.
func (m *SessionManager) RestoreCheckpoint(ctx context.Context) error {
	if m.checkpoints == nil {
		return nil
	}
	cp, err := m.checkpoints.Load(ctx)
	if err != nil {
		return err
	}
	if cp == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.SetVolume(cp.Volume)
	m.session.SetShuffle(cp.Shuffle)
	m.session.SetRepeat(cp.Repeat)
	slog.Info("restored playback checkpoint", "saved_at", cp.SavedAt, "volume", cp.Volume)
	return nil
}

// Close stops the position ticker. The session itself lives for the
// process lifetime.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTickLocked()
}

func newGeneration() int64 {
	return int64(snowflake.New(time.Now()))
}
