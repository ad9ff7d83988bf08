package agent

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestServer(t *testing.T, registry *Registry) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(NewServer(registry).Handler())
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req Request) Response {
	t.Helper()
	require.NoError(t, conn.WriteJSON(req))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestServer_ToolCall(t *testing.T) {
	registry := NewRegistry()
	registry.Register(echoTool("echo"))
	conn := dialTestServer(t, registry)

	resp := roundTrip(t, conn, Request{
		ID:    "req-1",
		Tool:  "echo",
		Input: map[string]any{"message": "hello"},
	})
	assert.Equal(t, "req-1", resp.ID)
	assert.Equal(t, "hello", resp.Result)
	assert.Empty(t, resp.Error)
}

func TestServer_ListToolsBuiltin(t *testing.T) {
	registry := NewRegistry()
	registry.Register(echoTool("echo"))
	conn := dialTestServer(t, registry)

	resp := roundTrip(t, conn, Request{ID: "req-1", Tool: "list_tools"})
	assert.Empty(t, resp.Error)
	assert.Contains(t, resp.Result, `"name":"echo"`)
	assert.Contains(t, resp.Result, "echoes its message input")
}

func TestServer_UnknownTool(t *testing.T) {
	conn := dialTestServer(t, NewRegistry())

	resp := roundTrip(t, conn, Request{ID: "req-1", Tool: "missing"})
	assert.Equal(t, "req-1", resp.ID)
	assert.Contains(t, resp.Error, "unknown tool")
	assert.Empty(t, resp.Result)
}

func TestServer_MissingToolName(t *testing.T) {
	conn := dialTestServer(t, NewRegistry())

	resp := roundTrip(t, conn, Request{ID: "req-1"})
	assert.Contains(t, resp.Error, "tool name is required")
}

func TestServer_MalformedFrame(t *testing.T) {
	conn := dialTestServer(t, NewRegistry())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Contains(t, resp.Error, "invalid request")
}

func TestServer_SequentialCallsOnOneConnection(t *testing.T) {
	registry := NewRegistry()
	registry.Register(echoTool("echo"))
	conn := dialTestServer(t, registry)

	for _, id := range []string{"a", "b", "c"} {
		resp := roundTrip(t, conn, Request{
			ID:    id,
			Tool:  "echo",
			Input: map[string]any{"message": id},
		})
		assert.Equal(t, id, resp.ID)
		assert.Equal(t, id, resp.Result)
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	server := httptest.NewServer(NewServer(NewRegistry()).routes())
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
