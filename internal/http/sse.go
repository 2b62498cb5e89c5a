package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Clark-Hu/reactive-movies/internal/broadcast"
)

// eventWriter frames values as text/event-stream data events.
type eventWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// openEventStream writes the stream headers and lifts the server write
// deadline for this connection only.
func (s *Server) openEventStream(w http.ResponseWriter) (*eventWriter, error) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		if !errors.Is(err, http.ErrNotSupported) {
			return nil, fmt.Errorf("clear write deadline: %w", err)
		}
		s.logger.Debugf("event stream: write deadline stays in force: %v", err)
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ew := &eventWriter{w: w, rc: rc}
	if err := ew.flush(); err != nil {
		return nil, err
	}
	return ew, nil
}

func (ew *eventWriter) send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := fmt.Fprintf(ew.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return ew.flush()
}

// sendError emits a terminal error event. It is the only way to report a
// failure once the 200 status line is on the wire.
func (ew *eventWriter) sendError(body errorResponse) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(ew.w, "event: error\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return ew.flush()
}

func (ew *eventWriter) flush() error {
	if err := ew.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// streamSink replays sink history to the client and then follows it live
// until the client leaves or the sink closes.
func streamSink[T any, V any](s *Server, w http.ResponseWriter, r *http.Request, sink *broadcast.Sink[T], render func(T) V) {
	ew, err := s.openEventStream(w)
	if err != nil {
		s.logger.Warnf("stream %s: %v", r.URL.Path, err)
		return
	}

	sub := sink.Subscribe()
	defer sub.Close()

	ctx := r.Context()
	for {
		item, err := sub.Next(ctx)
		if err != nil {
			if !errors.Is(err, broadcast.ErrClosed) && !errors.Is(err, context.Canceled) {
				s.logger.Debugf("stream %s ended: %v", r.URL.Path, err)
			}
			return
		}
		if err := ew.send(render(item)); err != nil {
			s.logger.Debugf("stream %s: client write failed: %v", r.URL.Path, err)
			return
		}
	}
}
