package domain

import (
	"testing"
	"time"
)

func TestPlaybackSession_Defaults(t *testing.T) {
	s := NewPlaybackSession()

	if s.Status() != StatusStopped {
		t.Errorf("expected stopped, got %v", s.Status())
	}
	if s.Volume() != 1.0 {
		t.Errorf("expected volume 1.0, got %v", s.Volume())
	}
	if s.CurrentTrack() != nil {
		t.Error("expected no current track")
	}
	if s.HasActiveTrack() {
		t.Error("expected no active track")
	}
}

func TestPlaybackSession_VolumeClamped(t *testing.T) {
	s := NewPlaybackSession()

	if got := s.SetVolume(-0.5); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := s.SetVolume(2.0); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := s.SetVolume(0.35); got != 0.35 {
		t.Errorf("expected 0.35, got %v", got)
	}
}

func TestPlaybackSession_StopResetsPosition(t *testing.T) {
	s := NewPlaybackSession()
	s.ReplaceQueue(BuildQueue([]*Track{testTrack("a")}, 0))
	s.SetStatus(StatusPlaying)
	s.SetPosition(90 * time.Second)

	s.SetStatus(StatusStopped)
	if s.Position() != 0 {
		t.Errorf("expected position reset, got %v", s.Position())
	}
}

func TestPlaybackSession_PositionClampedToDuration(t *testing.T) {
	s := NewPlaybackSession()
	s.ReplaceQueue(BuildQueue([]*Track{testTrack("a")}, 0))
	s.SetStatus(StatusPlaying)

	if got := s.SetPosition(10 * time.Minute); got != 3*time.Minute {
		t.Errorf("expected clamp to duration, got %v", got)
	}
	if got := s.SetPosition(-time.Second); got != 0 {
		t.Errorf("expected clamp to 0, got %v", got)
	}
}

func TestPlaybackSession_UnknownDurationNotClamped(t *testing.T) {
	stream := testTrack("live")
	stream.Duration = 0

	s := NewPlaybackSession()
	s.ReplaceQueue(BuildQueue([]*Track{stream}, 0))
	s.SetStatus(StatusPlaying)

	if got := s.SetPosition(10 * time.Hour); got != 10*time.Hour {
		t.Errorf("expected raw position accepted, got %v", got)
	}
}

func TestTrack_FormattedDuration(t *testing.T) {
	track := testTrack("a")
	if got := track.FormattedDuration(); got != "03:00" {
		t.Errorf("expected 03:00, got %s", got)
	}

	track.Duration = 2*time.Hour + 5*time.Minute + 9*time.Second
	if got := track.FormattedDuration(); got != "02:05:09" {
		t.Errorf("expected 02:05:09, got %s", got)
	}

	track.Duration = 0
	if got := track.FormattedDuration(); got != "--:--" {
		t.Errorf("expected --:--, got %s", got)
	}
}

func TestTrackEndReason_ShouldAdvance(t *testing.T) {
	if !TrackEndFinished.ShouldAdvance() {
		t.Error("finished should advance")
	}
	if !TrackEndUnavailable.ShouldAdvance() {
		t.Error("unavailable should advance")
	}
	if TrackEndStopped.ShouldAdvance() {
		t.Error("stopped should not advance")
	}
	if TrackEndReplaced.ShouldAdvance() {
		t.Error("replaced should not advance")
	}
}
