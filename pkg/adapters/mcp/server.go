package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/rill"
	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/signaling"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultWait bounds next_value when the caller gives no timeout.
const DefaultWait = 30 * time.Second

// Topics is the set of named hubs exposed as tools. *rill.Runtime implements it.
type Topics interface {
	Topic(name string) (*signaling.Signaling[string], error)
	Lookup(name string) (*signaling.Signaling[string], bool)
	Topics() []string
}

var _ Topics = (*rill.Runtime)(nil)

// TopicInfo describes one topic.
type TopicInfo struct {
	Name       string `json:"name" jsonschema_description:"Topic name"`
	Observers  int    `json:"observers" jsonschema_description:"Number of attached observers"`
	Terminated bool   `json:"terminated" jsonschema_description:"Whether the topic has completed or failed"`
}

// TopicList is the result of list_topics.
type TopicList struct {
	Topics []TopicInfo `json:"topics" jsonschema_description:"Known topics"`
}

// PublishResult is the result of publish and complete_topic.
type PublishResult struct {
	Topic     string `json:"topic" jsonschema_description:"Topic name"`
	Observers int    `json:"observers" jsonschema_description:"Observers attached when the event was sent"`
}

// NextResult is the result of next_value.
type NextResult struct {
	Topic string `json:"topic" jsonschema_description:"Topic name"`
	Value string `json:"value,omitempty" jsonschema_description:"The value received"`
	Done  bool   `json:"done" jsonschema_description:"True when the topic terminated before a value arrived"`
	Error string `json:"error,omitempty" jsonschema_description:"Terminal error of the topic, if any"`
}

// Server exposes topics as an MCP Server.
type Server struct {
	topics    Topics
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(topics Topics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		topics:    topics,
		logger:    logger,
		mcpServer: server.NewMCPServer("rill-mcp", strings.TrimSpace(rill.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_topics",
		mcp.WithDescription("List the known topics with their observer counts."),
		mcp.WithOutputSchema[TopicList](),
	), mcp.NewStructuredToolHandler(s.handleListTopics))

	s.mcpServer.AddTool(mcp.NewTool("publish",
		mcp.WithDescription("Publish a value to every observer of a topic. The topic is created if needed."),
		mcp.WithString("topic", mcp.Required(), mcp.Description("Topic name")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Value to publish")),
		mcp.WithOutputSchema[PublishResult](),
	), mcp.NewStructuredToolHandler(s.handlePublish))

	s.mcpServer.AddTool(mcp.NewTool("complete_topic",
		mcp.WithDescription("Complete a topic. Its observers are released and later values are dropped."),
		mcp.WithString("topic", mcp.Required(), mcp.Description("Topic name")),
		mcp.WithOutputSchema[PublishResult](),
	), mcp.NewStructuredToolHandler(s.handleComplete))

	s.mcpServer.AddTool(mcp.NewTool("next_value",
		mcp.WithDescription("Wait for the next value published to a topic."),
		mcp.WithString("topic", mcp.Required(), mcp.Description("Topic name")),
		mcp.WithNumber("timeout_ms", mcp.Description("Maximum wait in milliseconds (default 30000)")),
		mcp.WithOutputSchema[NextResult](),
	), mcp.NewStructuredToolHandler(s.handleNext))
}

func (s *Server) handleListTopics(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TopicList, error) {
	return TopicList{Topics: s.list()}, nil
}

func (s *Server) list() []TopicInfo {
	names := s.topics.Topics()
	out := make([]TopicInfo, 0, len(names))
	for _, name := range names {
		hub, ok := s.topics.Lookup(name)
		if !ok {
			continue
		}
		out = append(out, TopicInfo{Name: name, Observers: hub.Len(), Terminated: hub.IsTerminated()})
	}
	return out
}

func (s *Server) handlePublish(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PublishResult, error) {
	name, _ := args["topic"].(string)
	value, ok := args["value"].(string)
	if !ok {
		return PublishResult{}, errors.New("value must be a string")
	}

	hub, err := s.topics.Topic(name)
	if err != nil {
		return PublishResult{}, fmt.Errorf("publish failed: %w", err)
	}
	observers := hub.Len()
	hub.OnNext(value)
	s.logger.Debug("MCP Publish", "topic", name, "observers", observers)
	return PublishResult{Topic: name, Observers: observers}, nil
}

func (s *Server) handleComplete(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (PublishResult, error) {
	name, _ := args["topic"].(string)
	hub, err := s.topics.Topic(name)
	if err != nil {
		return PublishResult{}, fmt.Errorf("complete failed: %w", err)
	}
	observers := hub.Len()
	hub.OnComplete()
	return PublishResult{Topic: name, Observers: observers}, nil
}

func (s *Server) handleNext(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NextResult, error) {
	name, _ := args["topic"].(string)
	wait := DefaultWait
	if ms, ok := args["timeout_ms"].(float64); ok && ms > 0 {
		wait = time.Duration(ms) * time.Millisecond
	}

	hub, err := s.topics.Topic(name)
	if err != nil {
		return NextResult{}, fmt.Errorf("next failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	v, err := hub.Next(ctx)
	switch {
	case err == nil:
		return NextResult{Topic: name, Value: v}, nil
	case errors.Is(err, domain.ErrCompleted), errors.Is(err, domain.ErrDisposed):
		return NextResult{Topic: name, Done: true}, nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NextResult{}, fmt.Errorf("no value on %q within %s: %w", name, wait, err)
	default:
		return NextResult{Topic: name, Done: true, Error: err.Error()}, nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("rill://topics", "Known Topics",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.list())
		if err != nil {
			return nil, fmt.Errorf("failed to encode topics: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "rill://topics",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
