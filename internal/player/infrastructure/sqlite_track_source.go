package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/solenne/chorus/internal/player/application/ports"
	"github.com/solenne/chorus/internal/player/domain"
)

// Compile-time check that the sqlite store implements the library port.
var _ ports.TrackSource = (*SqliteTrackSource)(nil)

const trackSchema = `
CREATE TABLE IF NOT EXISTS tracks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	artist TEXT NOT NULL,
	album TEXT NOT NULL DEFAULT '',
	album_id TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	uri TEXT NOT NULL,
	track_number INTEGER NOT NULL DEFAULT 0,
	artwork_url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS playlist_tracks (
	playlist_id TEXT NOT NULL,
	track_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (playlist_id, track_id)
);
`

// SqliteTrackSource reads the local library cache. The scanning backend
// owns the cache contents; this side only reads, except for seeding in
// the demo build.
type SqliteTrackSource struct {
	db *sql.DB
}

// NewSqliteTrackSource opens (or creates) the library database at path.
// ":memory:" is accepted for tests.
func NewSqliteTrackSource(path string) (*SqliteTrackSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open library database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping library database: %w", err)
	}
	if _, err := db.Exec(trackSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate library database: %w", err)
	}
	return &SqliteTrackSource{db: db}, nil
}

// FetchTracks returns the tracks behind the given source descriptor in
// play order.
func (s *SqliteTrackSource) FetchTracks(ctx context.Context, source ports.SourceDescriptor) ([]*domain.Track, error) {
	const columns = "id, title, artist, album, duration_ms, uri, track_number, artwork_url"

	var (
		rows *sql.Rows
		err  error
	)
	switch source.Kind {
	case ports.SourceAlbum:
		rows, err = s.db.QueryContext(ctx,
			"SELECT "+columns+" FROM tracks WHERE album_id = ? ORDER BY track_number, title",
			source.ID,
		)
	case ports.SourcePlaylist:
		rows, err = s.db.QueryContext(ctx,
			"SELECT t.id, t.title, t.artist, t.album, t.duration_ms, t.uri, t.track_number, t.artwork_url "+
				"FROM tracks t JOIN playlist_tracks pt ON pt.track_id = t.id "+
				"WHERE pt.playlist_id = ? ORDER BY pt.position",
			source.ID,
		)
	case ports.SourceAll:
		rows, err = s.db.QueryContext(ctx,
			"SELECT "+columns+" FROM tracks ORDER BY artist, album, track_number, title")
	default:
		return nil, fmt.Errorf("unknown source kind %q", source.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*domain.Track
	for rows.Next() {
		var (
			track      domain.Track
			id         string
			durationMS int64
		)
		if err := rows.Scan(&id, &track.Title, &track.Artist, &track.Album,
			&durationMS, &track.URI, &track.TrackNumber, &track.ArtworkURL); err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		track.ID = domain.TrackID(id)
		track.Duration = time.Duration(durationMS) * time.Millisecond
		tracks = append(tracks, &track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read track rows: %w", err)
	}
	return tracks, nil
}

// AddTrack inserts a track, generating an ID when the track has none.
// Used by the demo build to seed the library.
func (s *SqliteTrackSource) AddTrack(ctx context.Context, track *domain.Track, albumID string) (*domain.Track, error) {
	if track.ID == "" {
		track.ID = domain.TrackID(uuid.NewString())
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tracks (id, title, artist, album, album_id, duration_ms, uri, track_number, artwork_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(track.ID), track.Title, track.Artist, track.Album, albumID,
		track.Duration.Milliseconds(), track.URI, track.TrackNumber, track.ArtworkURL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert track: %w", err)
	}
	return track, nil
}

// AddToPlaylist appends a track to a playlist at the given position.
func (s *SqliteTrackSource) AddToPlaylist(ctx context.Context, playlistID string, trackID domain.TrackID, position int) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO playlist_tracks (playlist_id, track_id, position) VALUES (?, ?, ?)",
		playlistID, string(trackID), position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist entry: %w", err)
	}
	return nil
}

// RemoveTrack deletes a track from the cache, mirroring a sync cleanup.
func (s *SqliteTrackSource) RemoveTrack(ctx context.Context, id domain.TrackID) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tracks WHERE id = ?", string(id)); err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SqliteTrackSource) Close() error {
	return s.db.Close()
}
