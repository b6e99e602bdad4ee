package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/solenne/chorus/internal/player/domain"
)

type recordingPublisher struct {
	mu    sync.Mutex
	ended []domain.TrackEndedEvent
}

func (p *recordingPublisher) PublishStatusChanged(domain.StatusChangedEvent)       {}
func (p *recordingPublisher) PublishTrackChanged(domain.TrackChangedEvent)         {}
func (p *recordingPublisher) PublishPositionChanged(domain.PositionChangedEvent)   {}
func (p *recordingPublisher) PublishVolumeChanged(domain.VolumeChangedEvent)       {}
func (p *recordingPublisher) PublishQueueChanged(domain.QueueChangedEvent)         {}
func (p *recordingPublisher) PublishPlaybackError(domain.PlaybackErrorEvent)       {}
func (p *recordingPublisher) PublishTrackUnavailable(domain.TrackUnavailableEvent) {}
func (p *recordingPublisher) PublishSyncProgress(domain.SyncProgressEvent)         {}
func (p *recordingPublisher) PublishSyncRequired(domain.SyncRequiredEvent)         {}
func (p *recordingPublisher) PublishSyncCompleted(domain.SyncCompletedEvent)       {}

func (p *recordingPublisher) PublishTrackEnded(e domain.TrackEndedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended = append(p.ended, e)
}

func (p *recordingPublisher) endedEvents() []domain.TrackEndedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.TrackEndedEvent, len(p.ended))
	copy(out, p.ended)
	return out
}

type recordingReporter struct {
	mu        sync.Mutex
	progress  []domain.SyncProgressEvent
	completed int
}

func (r *recordingReporter) ReportProgress(phase domain.SyncPhase, percentage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, domain.SyncProgressEvent{Phase: phase, Percentage: percentage})
}

func (r *recordingReporter) ReportRequired(bool) {}

func (r *recordingReporter) ReportCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func (r *recordingReporter) ReportFailed(string) {}

func (r *recordingReporter) snapshot() ([]domain.SyncProgressEvent, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SyncProgressEvent, len(r.progress))
	copy(out, r.progress)
	return out, r.completed
}

func shortTrack(id string, d time.Duration) *domain.Track {
	return &domain.Track{
		ID:       domain.TrackID(id),
		Title:    "Demo " + id,
		Duration: d,
		URI:      "demo://" + id,
	}
}

func TestDemoEngine_NaturalEndFires(t *testing.T) {
	publisher := &recordingPublisher{}
	engine := NewDemoEngine(publisher)
	defer engine.Close()

	if err := engine.Play(context.Background(), shortTrack("a", 30*time.Millisecond)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := publisher.endedEvents(); len(events) > 0 {
			if events[0].TrackID != "a" || events[0].Reason != domain.TrackEndFinished {
				t.Errorf("unexpected end event: %+v", events[0])
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for track end")
}

func TestDemoEngine_PauseHoldsEndTimer(t *testing.T) {
	publisher := &recordingPublisher{}
	engine := NewDemoEngine(publisher)
	defer engine.Close()

	if err := engine.Play(context.Background(), shortTrack("a", 40*time.Millisecond)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := engine.Pause(context.Background()); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if events := publisher.endedEvents(); len(events) != 0 {
		t.Fatal("track ended while paused")
	}

	if err := engine.Resume(context.Background()); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(publisher.endedEvents()) > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for track end after resume")
}

func TestDemoEngine_StopSuppressesEnd(t *testing.T) {
	publisher := &recordingPublisher{}
	engine := NewDemoEngine(publisher)
	defer engine.Close()

	if err := engine.Play(context.Background(), shortTrack("a", 30*time.Millisecond)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := engine.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if events := publisher.endedEvents(); len(events) != 0 {
		t.Errorf("expected no end events after stop, got %d", len(events))
	}
}

func TestDemoEngine_UnknownDurationNeverEnds(t *testing.T) {
	publisher := &recordingPublisher{}
	engine := NewDemoEngine(publisher)
	defer engine.Close()

	if err := engine.Play(context.Background(), shortTrack("stream", 0)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if events := publisher.endedEvents(); len(events) != 0 {
		t.Errorf("expected endless stream, got %d end events", len(events))
	}
}

func TestDemoEngine_ScanWalksPhasesInOrder(t *testing.T) {
	engine := NewDemoEngine(&recordingPublisher{})
	defer engine.Close()
	reporter := &recordingReporter{}
	engine.BindSyncReporter(reporter)
	engine.SetScanStep(time.Millisecond)

	if err := engine.StartScan(context.Background(), domain.SyncTriggerManual); err != nil {
		t.Fatalf("StartScan failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, completed := reporter.snapshot(); completed > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	progress, completed := reporter.snapshot()
	if completed != 1 {
		t.Fatalf("expected 1 completion, got %d", completed)
	}
	if len(progress) == 0 {
		t.Fatal("expected progress reports")
	}

	lastRank := -1
	lastPct := -1
	for _, report := range progress {
		rank := -1
		for i, phase := range domain.RunPhases() {
			if phase == report.Phase {
				rank = i
			}
		}
		if rank < lastRank {
			t.Fatalf("phase went backwards: %v after rank %d", report.Phase, lastRank)
		}
		if report.Percentage < lastPct {
			t.Fatalf("percentage regressed: %d after %d", report.Percentage, lastPct)
		}
		lastRank = rank
		lastPct = report.Percentage
	}

	final := progress[len(progress)-1]
	if final.Phase != domain.SyncCleanup || final.Percentage != 100 {
		t.Errorf("expected final report cleanup/100, got %v/%d", final.Phase, final.Percentage)
	}
}

func TestDemoEngine_ScanIgnoredWithoutReporter(t *testing.T) {
	engine := NewDemoEngine(&recordingPublisher{})
	defer engine.Close()

	if err := engine.StartScan(context.Background(), domain.SyncTriggerManual); err != nil {
		t.Fatalf("StartScan failed: %v", err)
	}
}
