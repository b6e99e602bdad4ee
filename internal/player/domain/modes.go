package domain

// Status represents the playback status of the session.
type Status int

const (
	StatusStopped Status = iota
	StatusPlaying
	StatusPaused
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// RepeatMode controls what happens when the queue runs out or a track finishes.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // stop at end of queue
	RepeatAll                   // wrap to the beginning of the queue
	RepeatOne                   // replay the current track on natural end
)

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

// ParseRepeatMode converts a string to a RepeatMode.
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "all":
		return RepeatAll
	case "one":
		return RepeatOne
	default:
		return RepeatOff
	}
}

// ShuffleMode controls selection order on skips. Shuffle never reorders
// the stored queue; toggling it off returns to the original order.
type ShuffleMode int

const (
	ShuffleOff ShuffleMode = iota
	ShuffleRandom
)

// String returns a human-readable representation of the shuffle mode.
func (m ShuffleMode) String() string {
	if m == ShuffleRandom {
		return "random"
	}
	return "off"
}
