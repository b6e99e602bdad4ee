package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/solenne/chorus/internal/player/application/ports"
	"github.com/solenne/chorus/internal/player/domain"
)

// SyncCoordinator exposes library scan progress and arbitrates manual vs.
// scheduled triggers. It is the single owner of the SyncState aggregate;
// the scanning collaborator pushes reports in, UI only reads.
type SyncCoordinator struct {
	mu        sync.Mutex
	state     domain.SyncState
	maxSeen   int // high-water percentage within the current run
	trigger   domain.SyncTrigger
	runStart  time.Time
	scanner   ports.LibraryScanner
	publisher ports.EventPublisher
}

// Compile-time check that the coordinator is the collaborator's reporter.
var _ ports.SyncReporter = (*SyncCoordinator)(nil)

// NewSyncCoordinator creates the one sync coordinator for the process,
// starting in the idle phase.
func NewSyncCoordinator(scanner ports.LibraryScanner, publisher ports.EventPublisher) *SyncCoordinator {
	return &SyncCoordinator{
		state:     domain.SyncState{Phase: domain.SyncIdle},
		scanner:   scanner,
		publisher: publisher,
	}
}

// IsSyncRequired reports whether the collaborator has detected drift
// since the last successful run.
func (c *SyncCoordinator) IsSyncRequired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Required
}

// Running reports whether a sync run is in progress.
func (c *SyncCoordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Running
}

// Progress returns the latest known phase and percentage. Never blocks on
// the collaborator.
func (c *SyncCoordinator) Progress() (domain.SyncPhase, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Phase, c.state.Percentage
}

// State returns a copy of the full sync read model.
func (c *SyncCoordinator) State() domain.SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartSync begins a scan run. Idempotent: while a run is in progress a
// second call is ignored rather than queued, so at most one run exists at
// a time.
func (c *SyncCoordinator) StartSync(ctx context.Context, trigger domain.SyncTrigger) error {
	c.mu.Lock()
	if c.state.Running {
		c.mu.Unlock()
		slog.Debug("sync already running, ignoring trigger", "trigger", trigger)
		return nil
	}
	c.state.Running = true
	c.state.Phase = domain.SyncScanning
	c.state.Percentage = 0
	c.maxSeen = 0
	c.trigger = trigger
	c.runStart = time.Now()
	c.mu.Unlock()

	if err := c.scanner.StartScan(ctx, trigger); err != nil {
		c.mu.Lock()
		c.state.Running = false
		c.state.Phase = domain.SyncIdle
		c.mu.Unlock()
		wrapped := fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		c.publisher.PublishPlaybackError(domain.PlaybackErrorEvent{Err: wrapped})
		return wrapped
	}

	slog.Info("library sync started", "trigger", trigger)
	c.publisher.PublishSyncProgress(domain.SyncProgressEvent{
		Phase:      domain.SyncScanning,
		Percentage: 0,
	})
	return nil
}

// phaseRank orders run phases; idle sits outside the run.
func phaseRank(p domain.SyncPhase) int {
	for i, phase := range domain.RunPhases() {
		if phase == p {
			return i
		}
	}
	return -1
}

// ReportProgress accepts a phase/percentage observation from the
// collaborator. Percentages never regress within a run: a lower report is
// clamped to the last-seen maximum. A phase earlier than the current one
// is a protocol violation; it is logged and clamped to the last valid
// phase, and the run continues best-effort. A phase that jumps past the
// immediate successor is accepted but logged as a violation too.
func (c *SyncCoordinator) ReportProgress(phase domain.SyncPhase, percentage int) {
	c.mu.Lock()

	if !c.state.Running {
		c.mu.Unlock()
		slog.Warn("sync progress reported while idle, ignoring", "phase", phase, "percentage", percentage)
		return
	}

	rank := phaseRank(phase)
	current := phaseRank(c.state.Phase)
	switch {
	case rank < 0 || rank < current:
		slog.Warn("sync protocol violation, clamping to last valid phase",
			"reported", phase, "current", c.state.Phase, "error", ErrSyncProtocolViolation)
		phase = c.state.Phase
	case rank > current+1:
		// A forward jump past the immediate successor. The new phase is
		// accepted so the run continues, but the gap is a violation.
		slog.Warn("sync protocol violation, phase skipped",
			"reported", phase, "current", c.state.Phase, "error", ErrSyncProtocolViolation)
	}

	if percentage < 0 {
		percentage = 0
	} else if percentage > 100 {
		percentage = 100
	}
	if percentage < c.maxSeen {
		percentage = c.maxSeen
	}
	c.maxSeen = percentage

	c.state.Phase = phase
	c.state.Percentage = percentage
	event := domain.SyncProgressEvent{Phase: phase, Percentage: percentage}
	c.mu.Unlock()

	c.publisher.PublishSyncProgress(event)
}

// ReportRequired sets or clears the sync-required flag.
func (c *SyncCoordinator) ReportRequired(required bool) {
	c.mu.Lock()
	changed := c.state.Required != required
	c.state.Required = required
	c.mu.Unlock()

	if changed {
		c.publisher.PublishSyncRequired(domain.SyncRequiredEvent{Required: required})
	}
}

// ReportCompleted finishes the run: phase back to idle, percentage to
// zero, required cleared, and a completion notification distinct from
// per-phase progress.
func (c *SyncCoordinator) ReportCompleted() {
	c.mu.Lock()
	if !c.state.Running {
		c.mu.Unlock()
		return
	}
	elapsed := time.Since(c.runStart)
	trigger := c.trigger
	c.state = domain.SyncState{Phase: domain.SyncIdle}
	c.maxSeen = 0
	c.mu.Unlock()

	slog.Info("library sync completed", "trigger", trigger, "elapsed", elapsed)
	c.publisher.PublishSyncCompleted(domain.SyncCompletedEvent{Trigger: trigger, Elapsed: elapsed})
}

// ReportFailed records a collaborator-side abort. The required flag is
// left set so the UI can offer a retry.
func (c *SyncCoordinator) ReportFailed(reason string) {
	c.mu.Lock()
	if !c.state.Running {
		c.mu.Unlock()
		return
	}
	required := c.state.Required
	c.state = domain.SyncState{Phase: domain.SyncIdle, Required: required}
	c.maxSeen = 0
	c.mu.Unlock()

	err := fmt.Errorf("%w: %s", ErrEngineUnavailable, reason)
	slog.Error("library sync aborted by collaborator", "reason", reason)
	c.publisher.PublishPlaybackError(domain.PlaybackErrorEvent{Err: err})
}
