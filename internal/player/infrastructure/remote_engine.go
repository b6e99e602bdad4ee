package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/solenne/chorus/internal/player/application/ports"
	"github.com/solenne/chorus/internal/player/domain"
)

// commandTimeout is the maximum time to wait for the backend to
// acknowledge a command before it counts as unavailable.
const commandTimeout = 5 * time.Second

// Compile-time checks that RemoteEngine implements the collaborator ports.
var (
	_ ports.Engine         = (*RemoteEngine)(nil)
	_ ports.LibraryScanner = (*RemoteEngine)(nil)
	_ ports.TrackSource    = (*RemoteEngine)(nil)
)

// frame is the wire envelope for both directions. Commands carry a seq
// the backend echoes in its ack; push notifications carry seq zero.
type frame struct {
	Op   string          `json:"op"`
	Seq  int64           `json:"seq,omitempty"`
	Body json.RawMessage `json:"body,omitempty"`
}

type playBody struct {
	TrackID  domain.TrackID `json:"track_id"`
	URI      string         `json:"uri"`
	Title    string         `json:"title"`
	Duration int64          `json:"duration_ms"`
}

type seekBody struct {
	PositionMS int64 `json:"position_ms"`
}

type volumeBody struct {
	Volume float64 `json:"volume"`
}

type scanBody struct {
	Trigger string `json:"trigger"`
}

type fetchBody struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}

type trackEndedBody struct {
	TrackID domain.TrackID `json:"track_id"`
	Reason  string         `json:"reason"`
}

type trackUnavailableBody struct {
	TrackID domain.TrackID `json:"track_id"`
}

type syncProgressBody struct {
	Phase      string `json:"phase"`
	Percentage int    `json:"percentage"`
}

type syncRequiredBody struct {
	Required bool `json:"required"`
}

type syncFailedBody struct {
	Reason string `json:"reason"`
}

type wireTrack struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	DurationMS  int64  `json:"duration_ms,omitempty"`
	URI         string `json:"uri"`
	TrackNumber int    `json:"track_number,omitempty"`
	ArtworkURL  string `json:"artwork_url,omitempty"`
}

// RemoteEngineConfig contains the backend connection configuration.
type RemoteEngineConfig struct {
	Address  string
	Password string
}

// RemoteEngine speaks the backend player protocol over a websocket.
// Commands are fire-and-ack with pending-seq correlation; the backend
// pushes track-end, invalidation, and sync reports which are routed into
// the event bus and sync reporter.
type RemoteEngine struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	seq       atomic.Int64
	pendingMu sync.Mutex
	pending   map[int64]chan frame

	publisher ports.EventPublisher

	reporterMu sync.RWMutex
	reporter   ports.SyncReporter

	done chan struct{}
}

// NewRemoteEngine dials the backend and starts the read pump. The sync
// reporter is bound afterwards via BindSyncReporter because the
// coordinator needs the engine as its scanner.
func NewRemoteEngine(config RemoteEngineConfig, publisher ports.EventPublisher) (*RemoteEngine, error) {
	header := http.Header{}
	if config.Password != "" {
		header.Set("Authorization", config.Password)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+config.Address+"/v1/session", header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to engine at %s: %w", config.Address, err)
	}

	e := &RemoteEngine{
		conn:      conn,
		pending:   make(map[int64]chan frame),
		publisher: publisher,
		done:      make(chan struct{}),
	}
	go e.readPump()

	slog.Info("connected to remote engine", "address", config.Address)
	return e, nil
}

// BindSyncReporter attaches the coordinator that receives sync pushes.
func (e *RemoteEngine) BindSyncReporter(reporter ports.SyncReporter) {
	e.reporterMu.Lock()
	defer e.reporterMu.Unlock()
	e.reporter = reporter
}

func (e *RemoteEngine) syncReporter() ports.SyncReporter {
	e.reporterMu.RLock()
	defer e.reporterMu.RUnlock()
	return e.reporter
}

// command sends a frame and waits for the matching ack or the context.
func (e *RemoteEngine) command(ctx context.Context, op string, body any) (frame, error) {
	seq := e.seq.Add(1)

	var raw json.RawMessage
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return frame{}, err
		}
		raw = encoded
	}

	reply := make(chan frame, 1)
	e.pendingMu.Lock()
	e.pending[seq] = reply
	e.pendingMu.Unlock()
	defer func() {
		e.pendingMu.Lock()
		delete(e.pending, seq)
		e.pendingMu.Unlock()
	}()

	e.writeMu.Lock()
	err := e.conn.WriteJSON(frame{Op: op, Seq: seq, Body: raw})
	e.writeMu.Unlock()
	if err != nil {
		return frame{}, fmt.Errorf("engine write failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		return frame{}, fmt.Errorf("engine did not acknowledge %s: %w", op, ctx.Err())
	case <-e.done:
		return frame{}, fmt.Errorf("engine connection closed")
	case resp := <-reply:
		if resp.Op == "error" {
			var eb errorBody
			_ = json.Unmarshal(resp.Body, &eb)
			return frame{}, fmt.Errorf("engine rejected %s: %s", op, eb.Message)
		}
		return resp, nil
	}
}

// Play asks the backend to start (or replace) playback of the track.
func (e *RemoteEngine) Play(ctx context.Context, track *domain.Track) error {
	_, err := e.command(ctx, "play", playBody{
		TrackID:  track.ID,
		URI:      track.URI,
		Title:    track.Title,
		Duration: track.Duration.Milliseconds(),
	})
	return err
}

// Pause pauses backend playback.
func (e *RemoteEngine) Pause(ctx context.Context) error {
	_, err := e.command(ctx, "pause", nil)
	return err
}

// Resume resumes backend playback.
func (e *RemoteEngine) Resume(ctx context.Context) error {
	_, err := e.command(ctx, "resume", nil)
	return err
}

// Stop stops backend playback.
func (e *RemoteEngine) Stop(ctx context.Context) error {
	_, err := e.command(ctx, "stop", nil)
	return err
}

// Seek moves the backend to the given position.
func (e *RemoteEngine) Seek(ctx context.Context, position time.Duration) error {
	_, err := e.command(ctx, "seek", seekBody{PositionMS: position.Milliseconds()})
	return err
}

// SetVolume applies the volume on the backend output.
func (e *RemoteEngine) SetVolume(ctx context.Context, volume float64) error {
	_, err := e.command(ctx, "volume", volumeBody{Volume: volume})
	return err
}

// StartScan asks the backend to begin a library scan run.
func (e *RemoteEngine) StartScan(ctx context.Context, trigger domain.SyncTrigger) error {
	_, err := e.command(ctx, "startScan", scanBody{Trigger: string(trigger)})
	return err
}

// FetchTracks requests the tracks behind a source descriptor.
func (e *RemoteEngine) FetchTracks(ctx context.Context, source ports.SourceDescriptor) ([]*domain.Track, error) {
	resp, err := e.command(ctx, "fetchTracks", fetchBody{Kind: string(source.Kind), ID: source.ID})
	if err != nil {
		return nil, err
	}

	var wire []wireTrack
	if err := json.Unmarshal(resp.Body, &wire); err != nil {
		return nil, fmt.Errorf("malformed track list from engine: %w", err)
	}

	tracks := make([]*domain.Track, 0, len(wire))
	for _, w := range wire {
		tracks = append(tracks, &domain.Track{
			ID:          domain.TrackID(w.ID),
			Title:       w.Title,
			Artist:      w.Artist,
			Album:       w.Album,
			Duration:    time.Duration(w.DurationMS) * time.Millisecond,
			URI:         w.URI,
			TrackNumber: w.TrackNumber,
			ArtworkURL:  w.ArtworkURL,
		})
	}
	return tracks, nil
}

// readPump routes acks to pending commands and push notifications to the
// bus and sync reporter. It runs until the connection drops or Close.
func (e *RemoteEngine) readPump() {
	defer close(e.done)

	for {
		var f frame
		if err := e.conn.ReadJSON(&f); err != nil {
			slog.Warn("remote engine read loop ended", "error", err)
			return
		}

		if f.Seq != 0 {
			e.pendingMu.Lock()
			reply, ok := e.pending[f.Seq]
			e.pendingMu.Unlock()
			if ok {
				reply <- f
			} else {
				slog.Debug("dropping ack for unknown seq", "seq", f.Seq, "op", f.Op)
			}
			continue
		}

		e.handlePush(f)
	}
}

func (e *RemoteEngine) handlePush(f frame) {
	switch f.Op {
	case "trackEnded":
		var body trackEndedBody
		if err := json.Unmarshal(f.Body, &body); err != nil {
			slog.Warn("malformed trackEnded push", "error", err)
			return
		}
		e.publisher.PublishTrackEnded(domain.TrackEndedEvent{
			TrackID: body.TrackID,
			Reason:  domain.TrackEndReason(body.Reason),
		})

	case "trackUnavailable":
		var body trackUnavailableBody
		if err := json.Unmarshal(f.Body, &body); err != nil {
			slog.Warn("malformed trackUnavailable push", "error", err)
			return
		}
		e.publisher.PublishTrackUnavailable(domain.TrackUnavailableEvent{TrackID: body.TrackID})

	case "syncProgress":
		var body syncProgressBody
		if err := json.Unmarshal(f.Body, &body); err != nil {
			slog.Warn("malformed syncProgress push", "error", err)
			return
		}
		if r := e.syncReporter(); r != nil {
			r.ReportProgress(domain.ParseSyncPhase(body.Phase), body.Percentage)
		}

	case "syncRequired":
		var body syncRequiredBody
		if err := json.Unmarshal(f.Body, &body); err != nil {
			slog.Warn("malformed syncRequired push", "error", err)
			return
		}
		if r := e.syncReporter(); r != nil {
			r.ReportRequired(body.Required)
		}

	case "syncComplete":
		if r := e.syncReporter(); r != nil {
			r.ReportCompleted()
		}

	case "syncFailed":
		var body syncFailedBody
		_ = json.Unmarshal(f.Body, &body)
		if r := e.syncReporter(); r != nil {
			r.ReportFailed(body.Reason)
		}

	default:
		slog.Debug("ignoring unknown push", "op", f.Op)
	}
}

// Close tears down the websocket. Pending commands fail with a closed
// connection error.
func (e *RemoteEngine) Close() error {
	e.writeMu.Lock()
	_ = e.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	e.writeMu.Unlock()
	return e.conn.Close()
}
