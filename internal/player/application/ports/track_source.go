package ports

import (
	"context"

	"github.com/solenne/chorus/internal/player/domain"
)

// SourceKind identifies what a queue load descriptor refers to.
type SourceKind string

const (
	SourceAll      SourceKind = "all"
	SourceAlbum    SourceKind = "album"
	SourcePlaylist SourceKind = "playlist"
)

// SourceDescriptor names a set of tracks in the library to load a queue
// from. ID is unused for SourceAll.
type SourceDescriptor struct {
	Kind SourceKind
	ID   string
}

// TrackSource fetches tracks from the library collaborator. Tracks are
// retrieved fresh on each load; the core never caches them beyond the
// current queue.
type TrackSource interface {
	FetchTracks(ctx context.Context, source SourceDescriptor) ([]*domain.Track, error)
}
