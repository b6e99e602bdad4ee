package infrastructure

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/solenne/chorus/internal/player/application/ports"
	"github.com/solenne/chorus/internal/player/domain"
)

// defaultScanStep paces the simulated scan so the UI has something to
// animate. Tests shrink it.
const defaultScanStep = 150 * time.Millisecond

// Compile-time checks that DemoEngine implements the collaborator ports.
var (
	_ ports.Engine         = (*DemoEngine)(nil)
	_ ports.LibraryScanner = (*DemoEngine)(nil)
)

// DemoEngine is the in-process engine used by the demo build. It
// satisfies the same command contract as the remote engine: a track "plays"
// on a wall-clock timer that fires a natural track-end event, and a scan
// run steps through the four phases reporting simulated progress.
type DemoEngine struct {
	mu        sync.Mutex
	publisher ports.EventPublisher
	reporter  ports.SyncReporter

	current   *domain.Track
	endTimer  *time.Timer
	remaining time.Duration
	startedAt time.Time
	paused    bool
	volume    float64

	scanStep time.Duration
	scanning bool
	closed   chan struct{}
}

// NewDemoEngine creates a demo engine publishing into the given bus.
func NewDemoEngine(publisher ports.EventPublisher) *DemoEngine {
	return &DemoEngine{
		publisher: publisher,
		volume:    1.0,
		scanStep:  defaultScanStep,
		closed:    make(chan struct{}),
	}
}

// BindSyncReporter attaches the coordinator that receives scan reports.
func (e *DemoEngine) BindSyncReporter(reporter ports.SyncReporter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reporter = reporter
}

// SetScanStep overrides the simulated scan pacing.
func (e *DemoEngine) SetScanStep(step time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if step > 0 {
		e.scanStep = step
	}
}

// Play starts the track's end timer. Tracks without a known duration
// behave as endless streams.
func (e *DemoEngine) Play(_ context.Context, track *domain.Track) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelTimerLocked()
	e.current = track
	e.paused = false

	if track.HasKnownDuration() {
		e.remaining = track.Duration
		e.armTimerLocked()
	} else {
		e.remaining = 0
	}
	return nil
}

// Pause freezes the end timer, remembering the remaining time.
func (e *DemoEngine) Pause(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil || e.paused {
		return nil
	}
	if e.endTimer != nil {
		e.endTimer.Stop()
		e.endTimer = nil
		e.remaining -= time.Since(e.startedAt)
		if e.remaining < 0 {
			e.remaining = 0
		}
	}
	e.paused = true
	return nil
}

// Resume restarts the end timer with the remembered remaining time.
func (e *DemoEngine) Resume(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil || !e.paused {
		return nil
	}
	e.paused = false
	if e.current.HasKnownDuration() {
		e.armTimerLocked()
	}
	return nil
}

// Stop drops the active track, cancelling any pending end timer.
func (e *DemoEngine) Stop(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelTimerLocked()
	e.current = nil
	e.paused = false
	e.remaining = 0
	return nil
}

// Seek recomputes the remaining time from the new position.
func (e *DemoEngine) Seek(_ context.Context, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil || !e.current.HasKnownDuration() {
		return nil
	}
	e.remaining = e.current.Duration - position
	if e.remaining < 0 {
		e.remaining = 0
	}
	if !e.paused {
		e.cancelTimerLocked()
		e.armTimerLocked()
	}
	return nil
}

// SetVolume stores the volume; the demo build has no audible output.
func (e *DemoEngine) SetVolume(_ context.Context, volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = volume
	return nil
}

// Volume returns the stored volume.
func (e *DemoEngine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *DemoEngine) armTimerLocked() {
	track := e.current
	e.startedAt = time.Now()
	e.endTimer = time.AfterFunc(e.remaining, func() {
		e.mu.Lock()
		if e.current == nil || e.current.ID != track.ID {
			e.mu.Unlock()
			return
		}
		e.current = nil
		e.endTimer = nil
		e.mu.Unlock()

		e.publisher.PublishTrackEnded(domain.TrackEndedEvent{
			TrackID: track.ID,
			Reason:  domain.TrackEndFinished,
		})
	})
}

func (e *DemoEngine) cancelTimerLocked() {
	if e.endTimer != nil {
		e.endTimer.Stop()
		e.endTimer = nil
	}
}

// StartScan runs a simulated scan through the fixed phase sequence,
// reporting stepped progress and then completion. At most one simulated
// run exists at a time.
func (e *DemoEngine) StartScan(_ context.Context, trigger domain.SyncTrigger) error {
	e.mu.Lock()
	if e.scanning || e.reporter == nil {
		e.mu.Unlock()
		return nil
	}
	e.scanning = true
	reporter := e.reporter
	step := e.scanStep
	e.mu.Unlock()

	slog.Debug("demo scan starting", "trigger", trigger)
	go e.runScan(reporter, step)
	return nil
}

func (e *DemoEngine) runScan(reporter ports.SyncReporter, step time.Duration) {
	defer func() {
		e.mu.Lock()
		e.scanning = false
		e.mu.Unlock()
	}()

	phases := domain.RunPhases()
	share := 100 / len(phases)

	for i, phase := range phases {
		base := i * share
		for p := 0; p <= share; p += 5 {
			select {
			case <-e.closed:
				return
			case <-time.After(step):
			}
			pct := base + p
			if pct > 100 {
				pct = 100
			}
			reporter.ReportProgress(phase, pct)
		}
	}

	reporter.ReportProgress(domain.SyncCleanup, 100)
	reporter.ReportCompleted()
}

// Close cancels timers and any simulated scan in flight.
func (e *DemoEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case <-e.closed:
	default:
		close(e.closed)
	}
	e.cancelTimerLocked()
	e.current = nil
	return nil
}
