package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Client talks to an MCP server over newline-delimited JSON-RPC. Requests
// are serialized; the stdio transport carries one exchange at a time.
type Client struct {
	mu     sync.Mutex
	writer io.Writer
	reader *bufio.Reader
	closer io.Closer
	cmd    *exec.Cmd
	nextID int64

	initialized bool
}

// NewStdioClient launches the given server command and connects to it over
// stdin/stdout. The caller must Close the client to reap the subprocess.
func NewStdioClient(ctx context.Context, command string, args ...string) (*Client, error) {
	cmd := exec.CommandContext(ctx, command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening server stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening server stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting MCP server %q: %w", command, err)
	}

	return &Client{
		writer: stdin,
		reader: bufio.NewReader(stdout),
		closer: stdin,
		cmd:    cmd,
	}, nil
}

// newPipeClient connects over in-process pipes, used by tests.
func newPipeClient(writer io.Writer, reader io.Reader) *Client {
	return &Client{
		writer: writer,
		reader: bufio.NewReader(reader),
	}
}

// Initialize performs the MCP handshake and must be called before any other
// request.
func (c *Client) Initialize(ctx context.Context, clientInfo Implementation) (*InitializeResult, error) {
	params := map[string]any{
		"protocolVersion": ProtocolVersion,
		"clientInfo":      clientInfo,
		"capabilities":    map[string]any{},
	}

	var result InitializeResult
	if err := c.request(ctx, "initialize", params, &result); err != nil {
		return nil, err
	}
	if err := c.notify("notifications/initialized", nil); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()
	return &result, nil
}

// ListTools returns the tools the server exposes.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	if err := c.requireInitialized(); err != nil {
		return nil, err
	}
	var result listToolsResult
	if err := c.request(ctx, "tools/list", map[string]any{}, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a named tool with the given arguments.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (*CallToolResult, error) {
	if err := c.requireInitialized(); err != nil {
		return nil, err
	}
	params := map[string]any{
		"name":      name,
		"arguments": arguments,
	}
	var result CallToolResult
	if err := c.request(ctx, "tools/call", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close shuts down the transport and waits for the server to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closer != nil {
		_ = c.closer.Close()
	}
	if c.cmd != nil {
		return c.cmd.Wait()
	}
	return nil
}

func (c *Client) requireInitialized() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return fmt.Errorf("mcp: client is not initialized")
	}
	return nil
}

// request sends one JSON-RPC request and blocks until the matching response
// arrives. Server notifications received in the meantime are skipped.
func (c *Client) request(ctx context.Context, method string, params any, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	if err := c.writeMessage(jsonrpcRequest{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return fmt.Errorf("mcp: reading response to %s: %w", method, err)
		}

		var resp jsonrpcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return fmt.Errorf("mcp: invalid response to %s: %w", method, err)
		}
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return fmt.Errorf("mcp: %s failed: %w", method, resp.Error)
		}
		if result == nil {
			return nil
		}
		return json.Unmarshal(resp.Result, result)
	}
}

func (c *Client) notify(method string, params any) error {
	return c.writeMessage(jsonrpcNotification{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  params,
	})
}

func (c *Client) writeMessage(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mcp: encoding message: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := c.writer.Write(payload); err != nil {
		return fmt.Errorf("mcp: writing message: %w", err)
	}
	return nil
}
