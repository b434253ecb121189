package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers JSON-RPC requests over in-process pipes.
type fakeServer struct {
	t      *testing.T
	reader *bufio.Reader
	writer io.Writer

	mu      sync.Mutex
	methods []string
}

func (s *fakeServer) seenMethods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.methods...)
}

func startFakeServer(t *testing.T) (*Client, *fakeServer) {
	t.Helper()

	clientToServer, clientWriter := io.Pipe()
	serverToClient, serverWriter := io.Pipe()

	server := &fakeServer{
		t:      t,
		reader: bufio.NewReader(clientToServer),
		writer: serverWriter,
	}
	go server.serve()

	t.Cleanup(func() {
		_ = clientWriter.Close()
		_ = serverWriter.Close()
	})

	return newPipeClient(clientWriter, serverToClient), server
}

func (s *fakeServer) serve() {
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			return
		}

		var req struct {
			ID     *int64          `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(line, &req); err != nil {
			return
		}
		s.mu.Lock()
		s.methods = append(s.methods, req.Method)
		s.mu.Unlock()

		// Notifications get no reply.
		if req.ID == nil {
			continue
		}

		switch req.Method {
		case "initialize":
			// Send an unrelated notification first; the client must skip it.
			s.send(map[string]any{"jsonrpc": "2.0", "method": "notifications/message"})
			s.send(map[string]any{
				"jsonrpc": "2.0",
				"id":      *req.ID,
				"result": InitializeResult{
					ProtocolVersion: ProtocolVersion,
					ServerInfo:      Implementation{Name: "fake-server", Version: "0.1.0"},
				},
			})
		case "tools/list":
			s.send(map[string]any{
				"jsonrpc": "2.0",
				"id":      *req.ID,
				"result": listToolsResult{Tools: []ToolDescriptor{{
					Name:        "get_weather",
					Description: "Look up the weather",
					InputSchema: map[string]any{"type": "object"},
				}}},
			})
		case "tools/call":
			var params struct {
				Name      string         `json:"name"`
				Arguments map[string]any `json:"arguments"`
			}
			_ = json.Unmarshal(req.Params, &params)
			if params.Name == "broken" {
				s.send(map[string]any{
					"jsonrpc": "2.0",
					"id":      *req.ID,
					"error":   ResponseError{Code: -32602, Message: "no such tool"},
				})
				continue
			}
			text := "no arguments given"
			if city, ok := params.Arguments["city"].(string); ok {
				text = "sunny in " + city
			}
			s.send(map[string]any{
				"jsonrpc": "2.0",
				"id":      *req.ID,
				"result": CallToolResult{Content: []ContentBlock{
					{Type: "text", Text: text},
				}},
			})
		}
	}
}

func (s *fakeServer) send(msg any) {
	payload, err := json.Marshal(msg)
	require.NoError(s.t, err)
	payload = append(payload, '\n')
	_, err = s.writer.Write(payload)
	require.NoError(s.t, err)
}

func TestClientHandshakeAndTools(t *testing.T) {
	client, server := startFakeServer(t)
	ctx := context.Background()

	result, err := client.Initialize(ctx, Implementation{Name: "test-client", Version: "0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "fake-server", result.ServerInfo.Name)

	tools, err := client.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "get_weather", tools[0].Name)

	callResult, err := client.CallTool(ctx, "get_weather", map[string]any{"city": "Madrid"})
	require.NoError(t, err)
	assert.Equal(t, "sunny in Madrid", callResult.Text())

	// A call with no arguments at all must still round-trip.
	emptyResult, err := client.CallTool(ctx, "get_weather", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "no arguments given", emptyResult.Text())

	assert.Equal(t, []string{"initialize", "notifications/initialized", "tools/list", "tools/call", "tools/call"}, server.seenMethods())
}

func TestClientServerError(t *testing.T) {
	client, _ := startFakeServer(t)
	ctx := context.Background()

	_, err := client.Initialize(ctx, Implementation{Name: "test-client", Version: "0.0.1"})
	require.NoError(t, err)

	_, err = client.CallTool(ctx, "broken", map[string]any{"city": "x"})
	require.Error(t, err)

	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, -32602, respErr.Code)
}

func TestClientRequiresInitialize(t *testing.T) {
	client, _ := startFakeServer(t)

	_, err := client.ListTools(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}
