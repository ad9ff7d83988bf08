package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Request is one tool invocation sent by a connected agent.
type Request struct {
	ID    string         `json:"id"`
	Tool  string         `json:"tool"`
	Input map[string]any `json:"input,omitempty"`
}

// Response answers a Request. Exactly one of Result or Error is set.
type Response struct {
	ID     string `json:"id"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Server exposes a tool registry over WebSocket. Each frame is one
// JSON-encoded Request; the server answers with a Response carrying the
// same id.
type Server struct {
	registry *Registry
	upgrader websocket.Upgrader
}

// NewServer creates a server for the given registry.
func NewServer(registry *Registry) *Server {
	return &Server{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler that upgrades connections.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleWebSocket)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Run serves WebSocket sessions on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	slog.Info("Agent server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	slog.Info("Agent session started", "remote", r.RemoteAddr)

	ctx := r.Context()
	for {
		_, data, readErr := conn.ReadMessage()
		if readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("Agent session ended unexpectedly", "error", readErr)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			if writeErr := conn.WriteJSON(Response{Error: fmt.Sprintf("invalid request: %v", err)}); writeErr != nil {
				return
			}
			continue
		}

		resp := s.dispatch(ctx, req)
		if writeErr := conn.WriteJSON(resp); writeErr != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	if req.Tool == "" {
		return Response{ID: req.ID, Error: "tool name is required"}
	}

	// list_tools is always available so agents can discover the surface
	if req.Tool == "list_tools" {
		defs, err := json.Marshal(s.registry.Definitions())
		if err != nil {
			return Response{ID: req.ID, Error: err.Error()}
		}
		return Response{ID: req.ID, Result: string(defs)}
	}

	started := time.Now()
	result, err := s.registry.Call(ctx, req.Tool, req.Input)
	if err != nil {
		slog.Warn("Tool call failed", "tool", req.Tool, "error", err)
		return Response{ID: req.ID, Error: err.Error()}
	}

	slog.Debug("Tool call completed", "tool", req.Tool, "duration", time.Since(started))
	return Response{ID: req.ID, Result: result}
}
