package store

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/brensch/snekarena/game"
)

// DefaultFrameEvery records every sixth tick, ten frames a second at the
// default tick rate.
const DefaultFrameEvery = 6

// Recorder turns a stream of ticks into one frame trace and one event file
// per session. It is not safe for concurrent use; the session driver calls
// it from its tick goroutine.
type Recorder struct {
	root   string
	every  uint64
	source string
	log    *slog.Logger

	sessionID string
	done      bool
	writer    *TraceWriter
	events    []EventRow
}

func NewRecorder(root string, every int, source string, log *slog.Logger) *Recorder {
	if every <= 0 {
		every = DefaultFrameEvery
	}
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{root: root, every: uint64(every), source: source, log: log}
}

// Record stores the tick's events and, every N ticks or whenever the status
// changes, a frame. A new sessionID finalizes the previous trace; the
// trace is also finalized as soon as the session is over.
func (r *Recorder) Record(sessionID string, snap game.Snapshot, events []game.Event) error {
	if sessionID != r.sessionID {
		if err := r.finish(); err != nil {
			return err
		}
		r.sessionID = sessionID
		r.done = false
	}
	if r.done {
		return nil
	}

	statusChanged := false
	for _, e := range events {
		r.events = append(r.events, EventFromGame(sessionID, e))
		if e.Kind == game.EventStatus {
			statusChanged = true
		}
	}

	if snap.Tick%r.every == 0 || statusChanged {
		if r.writer == nil {
			w, err := NewTraceWriter(r.root, sessionID, map[string]string{
				"arena":  strconv.FormatFloat(snap.Arena, 'f', -1, 64),
				"source": r.source,
			})
			if err != nil {
				return err
			}
			r.writer = w
		}
		if err := r.writer.WriteFrames([]FrameRow{FrameFromSnapshot(sessionID, r.source, snap)}); err != nil {
			return err
		}
	}

	if snap.Status == game.StatusGameOver.String() {
		r.done = true
		return r.finish()
	}
	return nil
}

// Close finalizes the current trace.
func (r *Recorder) Close() error {
	return r.finish()
}

func (r *Recorder) finish() error {
	var firstErr error
	if r.writer != nil {
		path, frames, err := r.writer.Finalize()
		r.writer = nil
		if err != nil {
			firstErr = fmt.Errorf("finalize trace %s: %w", r.sessionID, err)
		} else if path != "" {
			r.log.Info("trace written", "session", r.sessionID, "path", path, "frames", frames)
		}
	}
	if len(r.events) > 0 {
		path, err := WriteEventsParquet(r.root, r.sessionID, r.events)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("write events %s: %w", r.sessionID, err)
		} else if err == nil {
			r.log.Info("events written", "session", r.sessionID, "path", path, "events", len(r.events))
		}
		r.events = nil
	}
	return firstErr
}
