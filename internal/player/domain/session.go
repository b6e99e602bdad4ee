package domain

import "time"

// PlaybackSession is the single owning aggregate for playback state.
// Exactly one instance exists per process; all mutation goes through the
// session manager's command entry points.
type PlaybackSession struct {
	queue    *Queue
	status   Status
	shuffle  ShuffleMode
	repeat   RepeatMode
	volume   float64
	position time.Duration
}

// NewPlaybackSession creates a stopped session with an empty queue and
// full volume.
func NewPlaybackSession() *PlaybackSession {
	return &PlaybackSession{
		status: StatusStopped,
		volume: 1.0,
	}
}

// Queue returns the current queue, or nil if none has been loaded.
func (s *PlaybackSession) Queue() *Queue {
	return s.queue
}

// ReplaceQueue swaps the queue wholesale and resets position.
func (s *PlaybackSession) ReplaceQueue(q *Queue) {
	s.queue = q
	s.position = 0
}

// Status returns the playback status.
func (s *PlaybackSession) Status() Status {
	return s.status
}

// SetStatus sets the playback status. Entering StatusStopped resets the
// track position.
func (s *PlaybackSession) SetStatus(status Status) {
	s.status = status
	if status == StatusStopped {
		s.position = 0
	}
}

// HasActiveTrack returns true while a track is loaded and playback is not
// stopped.
func (s *PlaybackSession) HasActiveTrack() bool {
	return s.status != StatusStopped && !s.queue.IsEmpty()
}

// CurrentTrack returns the track at the cursor, or nil.
func (s *PlaybackSession) CurrentTrack() *Track {
	if s.queue == nil {
		return nil
	}
	return s.queue.Current()
}

// Shuffle returns the shuffle mode.
func (s *PlaybackSession) Shuffle() ShuffleMode {
	return s.shuffle
}

// SetShuffle sets the shuffle mode.
func (s *PlaybackSession) SetShuffle(mode ShuffleMode) {
	s.shuffle = mode
}

// Repeat returns the repeat mode.
func (s *PlaybackSession) Repeat() RepeatMode {
	return s.repeat
}

// SetRepeat sets the repeat mode.
func (s *PlaybackSession) SetRepeat(mode RepeatMode) {
	s.repeat = mode
}

// Volume returns the volume in [0, 1].
func (s *PlaybackSession) Volume() float64 {
	return s.volume
}

// SetVolume stores the volume clamped to [0, 1] and returns the stored value.
func (s *PlaybackSession) SetVolume(v float64) float64 {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	s.volume = v
	return v
}

// Position returns the position within the active track.
func (s *PlaybackSession) Position() time.Duration {
	return s.position
}

// SetPosition stores the position, clamped to [0, duration] when the
// active track's duration is known.
func (s *PlaybackSession) SetPosition(pos time.Duration) time.Duration {
	if pos < 0 {
		pos = 0
	}
	if track := s.CurrentTrack(); track != nil && track.HasKnownDuration() && pos > track.Duration {
		pos = track.Duration
	}
	s.position = pos
	return s.position
}

// AdvancePosition moves the position forward by delta, clamped to the
// active track's duration when known.
func (s *PlaybackSession) AdvancePosition(delta time.Duration) time.Duration {
	return s.SetPosition(s.position + delta)
}
