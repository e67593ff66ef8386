package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/rill"
	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/signaling"
	"github.com/go-chi/chi/v5"
)

// Topics is the set of named hubs served by the handler. *rill.Runtime implements it.
type Topics interface {
	Topic(name string) (*signaling.Signaling[string], error)
	Lookup(name string) (*signaling.Signaling[string], bool)
	Topics() []string
}

var _ Topics = (*rill.Runtime)(nil)

// Server serves the topic endpoints.
type Server struct {
	Topics Topics
	Buffer int
	Logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithBuffer sets how many events a slow SSE client may lag behind before events
// are dropped for it.
func WithBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.Buffer = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// PublishRequest is the body of POST /topics/{topic}.
type PublishRequest struct {
	Value string `json:"value"`
}

// FailRequest is the body of POST /topics/{topic}/error.
type FailRequest struct {
	Error string `json:"error"`
}

// PublishResponse reports how many observers were attached when the event was sent.
type PublishResponse struct {
	Topic     string `json:"topic"`
	Observers int    `json:"observers"`
}

// TopicInfo is an entry of GET /topics.
type TopicInfo struct {
	Name       string `json:"name"`
	Observers  int    `json:"observers"`
	Terminated bool   `json:"terminated"`
}

// NewHandler creates the HTTP handler for topics.
func NewHandler(topics Topics, opts ...Option) http.Handler {
	s := &Server{
		Topics: topics,
		Buffer: 64,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s.Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/openapi.yaml", s.GetSpec)
	r.Get("/swagger", s.GetSwaggerUI)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/topics", s.ListTopics)
	r.Route("/topics/{topic}", func(r chi.Router) {
		r.Post("/", s.Publish)
		r.Post("/complete", s.Complete)
		r.Post("/error", s.Fail)
		r.Get("/events", s.SubscribeEvents)
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.Logger)
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "rill-http",
		"version":     strings.TrimSpace(rill.Version),
		"api_version": apiVersion,
	}, s.Logger)
}

// ListTopics handles GET /topics.
func (s *Server) ListTopics(w http.ResponseWriter, r *http.Request) {
	names := s.Topics.Topics()
	out := make([]TopicInfo, 0, len(names))
	for _, name := range names {
		hub, ok := s.Topics.Lookup(name)
		if !ok {
			continue
		}
		out = append(out, TopicInfo{
			Name:       name,
			Observers:  hub.Len(),
			Terminated: hub.IsTerminated(),
		})
	}
	writeJSON(w, http.StatusOK, out, s.Logger)
}

// Publish handles POST /topics/{topic}.
func (s *Server) Publish(w http.ResponseWriter, r *http.Request) {
	var body PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Publish: Invalid request body", "err", err)
		return
	}

	hub, ok := s.topic(w, r)
	if !ok {
		return
	}
	observers := hub.Len()
	hub.OnNext(body.Value)
	s.Logger.Debug("Publish: Event sent", "topic", hub.Name(), "observers", observers, "payload_size", len(body.Value))

	writeJSON(w, http.StatusAccepted, PublishResponse{Topic: hub.Name(), Observers: observers}, s.Logger)
}

// Complete handles POST /topics/{topic}/complete.
func (s *Server) Complete(w http.ResponseWriter, r *http.Request) {
	hub, ok := s.topic(w, r)
	if !ok {
		return
	}
	observers := hub.Len()
	hub.OnComplete()
	writeJSON(w, http.StatusAccepted, PublishResponse{Topic: hub.Name(), Observers: observers}, s.Logger)
}

// Fail handles POST /topics/{topic}/error.
func (s *Server) Fail(w http.ResponseWriter, r *http.Request) {
	var body FailRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Error == "" {
		http.Error(w, "Invalid request body: error message required", http.StatusBadRequest)
		return
	}

	hub, ok := s.topic(w, r)
	if !ok {
		return
	}
	observers := hub.Len()
	hub.OnError(errors.New(body.Error))
	writeJSON(w, http.StatusAccepted, PublishResponse{Topic: hub.Name(), Observers: observers}, s.Logger)
}

func (s *Server) topic(w http.ResponseWriter, r *http.Request) (*signaling.Signaling[string], bool) {
	name := chi.URLParam(r, "topic")
	hub, err := s.Topics.Topic(name)
	switch {
	case err == nil:
		return hub, true
	case errors.Is(err, domain.ErrTopicNameEmpty):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrDisposed):
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
	default:
		http.Error(w, fmt.Sprintf("Topic error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Topic lookup failed", "topic", name, "err", err)
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
