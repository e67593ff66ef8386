package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/rill/pkg/disposable"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/subscriber"
)

// stream is the observer behind one SSE connection. Values go through a bounded
// buffer and are dropped when the client lags; the terminal event has its own slot.
type stream struct {
	topic  string
	events chan domain.Event[string]
	done   chan domain.Event[string]
	gone   chan struct{}
	logger *slog.Logger
}

func newStream(topic string, buffer int, logger *slog.Logger) *stream {
	return &stream{
		topic:  topic,
		events: make(chan domain.Event[string], buffer),
		done:   make(chan domain.Event[string], 1),
		gone:   make(chan struct{}),
		logger: logger,
	}
}

func (st *stream) OnNext(v string) {
	select {
	case st.events <- domain.Event[string]{Timestamp: time.Now(), Kind: domain.EventNext, Value: v}:
	default:
		st.logger.Warn("SSE: Client buffer full, dropping event", "topic", st.topic)
	}
}

func (st *stream) OnComplete() {
	st.done <- domain.Event[string]{Timestamp: time.Now(), Kind: domain.EventComplete}
}

func (st *stream) OnError(err error) {
	st.done <- domain.Event[string]{Timestamp: time.Now(), Kind: domain.EventError, Err: err.Error()}
}

// SubscribeEvents handles GET /topics/{topic}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	hub, ok := s.topic(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	st := newStream(hub.Name(), s.Buffer, s.Logger)
	sub := subscriber.New[string](st)
	sub.Add(disposable.Func(func() { close(st.gone) }))
	hub.Subscribe(sub)
	defer sub.Dispose()

	s.Logger.Info("SSE: Client subscribed", "topic", hub.Name())
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: Client disconnected", "topic", hub.Name())
			return
		case ev := <-st.events:
			s.writeEvent(w, ev)
			flusher.Flush()
		case ev := <-st.done:
			s.drain(w, st)
			s.writeEvent(w, ev)
			flusher.Flush()
			return
		case <-st.gone:
			select {
			case ev := <-st.done:
				s.drain(w, st)
				s.writeEvent(w, ev)
			default:
				s.drain(w, st)
				fmt.Fprintf(w, "event: closed\ndata: %s\n\n", domain.ErrDisposed)
			}
			flusher.Flush()
			return
		}
	}
}

func (s *Server) drain(w http.ResponseWriter, st *stream) {
	for {
		select {
		case ev := <-st.events:
			s.writeEvent(w, ev)
		default:
			return
		}
	}
}

func (s *Server) writeEvent(w http.ResponseWriter, ev domain.Event[string]) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.Logger.Error("SSE: Event encode failed", "err", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
}
