package domain

import (
	"strconv"
	"time"
)

// TrackID is an opaque identifier for a track in the library.
type TrackID string

// Track represents a playable audio track. Tracks are immutable once
// placed in a queue; the library collaborator is the source of truth
// and hands out fresh copies on every load.
type Track struct {
	ID          TrackID
	Title       string
	Artist      string
	Album       string // optional
	Duration    time.Duration
	URI         string // file or stream locator; empty means unplayable
	TrackNumber int    // optional, zero when unknown
	ArtworkURL  string // optional
}

// IsPlayable returns true if the track has a locator the engine can open.
func (t *Track) IsPlayable() bool {
	return t.URI != ""
}

// HasKnownDuration returns true when the track's length is known.
// Streams and tracks with missing metadata report zero duration.
func (t *Track) HasKnownDuration() bool {
	return t.Duration > 0
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (t *Track) FormattedDuration() string {
	if !t.HasKnownDuration() {
		return "--:--"
	}

	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
