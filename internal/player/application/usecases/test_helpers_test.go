package usecases

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/solenne/chorus/internal/player/application/ports"
	"github.com/solenne/chorus/internal/player/domain"
)

func mockTrack(id string) *domain.Track {
	return &domain.Track{
		ID:       domain.TrackID(id),
		Title:    "Track " + id,
		Artist:   "Artist",
		Duration: 3 * time.Minute,
		URI:      "file:///music/" + id + ".flac",
	}
}

func mockTracks(n int) []*domain.Track {
	tracks := make([]*domain.Track, n)
	for i := range tracks {
		tracks[i] = mockTrack("track-" + strconv.Itoa(i))
	}
	return tracks
}

type mockEngine struct {
	mu        sync.Mutex
	played    []domain.TrackID
	pauses    int
	resumes   int
	stops     int
	seeks     []time.Duration
	volumes   []float64
	playErr   error
	pauseErr  error
	resumeErr error
	stopErr   error
	seekErr   error
	volumeErr error
}

func (m *mockEngine) Play(_ context.Context, track *domain.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.played = append(m.played, track.ID)
	return nil
}

func (m *mockEngine) Pause(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.pauses++
	return nil
}

func (m *mockEngine) Resume(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resumeErr != nil {
		return m.resumeErr
	}
	m.resumes++
	return nil
}

func (m *mockEngine) Stop(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopErr != nil {
		return m.stopErr
	}
	m.stops++
	return nil
}

func (m *mockEngine) Seek(_ context.Context, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seekErr != nil {
		return m.seekErr
	}
	m.seeks = append(m.seeks, position)
	return nil
}

func (m *mockEngine) SetVolume(_ context.Context, volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.volumeErr != nil {
		return m.volumeErr
	}
	m.volumes = append(m.volumes, volume)
	return nil
}

func (m *mockEngine) Close() error { return nil }

func (m *mockEngine) playedIDs() []domain.TrackID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TrackID, len(m.played))
	copy(out, m.played)
	return out
}

type mockPublisher struct {
	mu              sync.Mutex
	statusChanges   []domain.StatusChangedEvent
	trackChanges    []domain.TrackChangedEvent
	positionChanges []domain.PositionChangedEvent
	volumeChanges   []domain.VolumeChangedEvent
	queueChanges    []domain.QueueChangedEvent
	errors          []domain.PlaybackErrorEvent
	trackEnds       []domain.TrackEndedEvent
	unavailables    []domain.TrackUnavailableEvent
	syncProgress    []domain.SyncProgressEvent
	syncRequired    []domain.SyncRequiredEvent
	syncCompleted   []domain.SyncCompletedEvent
}

func (m *mockPublisher) PublishStatusChanged(e domain.StatusChangedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusChanges = append(m.statusChanges, e)
}

func (m *mockPublisher) PublishTrackChanged(e domain.TrackChangedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackChanges = append(m.trackChanges, e)
}

func (m *mockPublisher) PublishPositionChanged(e domain.PositionChangedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positionChanges = append(m.positionChanges, e)
}

func (m *mockPublisher) PublishVolumeChanged(e domain.VolumeChangedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumeChanges = append(m.volumeChanges, e)
}

func (m *mockPublisher) PublishQueueChanged(e domain.QueueChangedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueChanges = append(m.queueChanges, e)
}

func (m *mockPublisher) PublishPlaybackError(e domain.PlaybackErrorEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, e)
}

func (m *mockPublisher) PublishTrackEnded(e domain.TrackEndedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackEnds = append(m.trackEnds, e)
}

func (m *mockPublisher) PublishTrackUnavailable(e domain.TrackUnavailableEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailables = append(m.unavailables, e)
}

func (m *mockPublisher) PublishSyncProgress(e domain.SyncProgressEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncProgress = append(m.syncProgress, e)
}

func (m *mockPublisher) PublishSyncRequired(e domain.SyncRequiredEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncRequired = append(m.syncRequired, e)
}

func (m *mockPublisher) PublishSyncCompleted(e domain.SyncCompletedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncCompleted = append(m.syncCompleted, e)
}

func (m *mockPublisher) trackChangeEvents() []domain.TrackChangedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TrackChangedEvent, len(m.trackChanges))
	copy(out, m.trackChanges)
	return out
}

func (m *mockPublisher) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockPublisher) progressEvents() []domain.SyncProgressEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SyncProgressEvent, len(m.syncProgress))
	copy(out, m.syncProgress)
	return out
}

func (m *mockPublisher) completedEvents() []domain.SyncCompletedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SyncCompletedEvent, len(m.syncCompleted))
	copy(out, m.syncCompleted)
	return out
}

func (m *mockPublisher) requiredEvents() []domain.SyncRequiredEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SyncRequiredEvent, len(m.syncRequired))
	copy(out, m.syncRequired)
	return out
}

type mockScanner struct {
	mu     sync.Mutex
	starts []domain.SyncTrigger
	err    error
}

func (m *mockScanner) StartScan(_ context.Context, trigger domain.SyncTrigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.starts = append(m.starts, trigger)
	return nil
}

func (m *mockScanner) startCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.starts)
}

type mockTrackSource struct {
	tracks []*domain.Track
	err    error
}

func (m *mockTrackSource) FetchTracks(context.Context, ports.SourceDescriptor) ([]*domain.Track, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tracks, nil
}

type mockCheckpointStore struct {
	mu    sync.Mutex
	saved []ports.Checkpoint
	load  *ports.Checkpoint
}

func (m *mockCheckpointStore) Save(_ context.Context, cp ports.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, cp)
	return nil
}

func (m *mockCheckpointStore) Load(context.Context) (*ports.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load, nil
}

// newTestManager builds a manager with a long tick so tests stay
// deterministic.
func newTestManager(engine *mockEngine, publisher *mockPublisher) *SessionManager {
	return NewSessionManager(engine, nil, nil, publisher, time.Hour)
}
