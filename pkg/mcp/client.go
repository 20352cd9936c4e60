package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sort"

	"github.com/liliang-cn/calc-mcp/pkg/arith"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client is a connection to a calc server
type Client struct {
	config        *ClientConfig
	session       *mcp.ClientSession
	serverSession *mcp.ServerSession
	tools         map[string]*mcp.Tool
	connected     bool
}

// NewClient creates a new client for the given server configuration
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("client config cannot be nil")
	}

	return &Client{
		config: config,
		tools:  make(map[string]*mcp.Tool),
	}, nil
}

// NewInProcessClient connects a client to s over in-memory transports.
// Closing the client closes the server session too.
func NewInProcessClient(ctx context.Context, s *Server) (*Client, error) {
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := s.Connect(ctx, serverTransport)
	if err != nil {
		return nil, fmt.Errorf("failed to start in-process session: %w", err)
	}

	c := &Client{
		config:        &ClientConfig{Name: "in-process"},
		serverSession: serverSession,
		tools:         make(map[string]*mcp.Tool),
	}
	if err := c.ConnectTransport(ctx, clientTransport); err != nil {
		serverSession.Close()
		return nil, err
	}
	return c, nil
}

// Connect establishes connection to the configured server
func (c *Client) Connect(ctx context.Context) error {
	if c.connected {
		return nil
	}

	var transport mcp.Transport
	switch c.config.Type {
	case ServerTypeHTTP:
		if c.config.URL == "" {
			return fmt.Errorf("URL is required for HTTP server %s", c.config.Name)
		}
		transport = c.createHTTPTransport()

	case ServerTypeStdio, "":
		if len(c.config.Command) == 0 {
			return fmt.Errorf("command is required for stdio server %s", c.config.Name)
		}
		transport = c.createStdioTransport(ctx)

	default:
		return fmt.Errorf("unsupported server type: %s", c.config.Type)
	}

	return c.ConnectTransport(ctx, transport)
}

// ConnectTransport establishes a session over an explicit transport
func (c *Client) ConnectTransport(ctx context.Context, transport mcp.Transport) error {
	if c.connected {
		return nil
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "calc-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server %s: %w", c.config.Name, err)
	}

	c.session = session
	c.connected = true

	if err := c.loadTools(ctx); err != nil {
		session.Close()
		c.session = nil
		c.connected = false
		return fmt.Errorf("failed to load tools from %s: %w", c.config.Name, err)
	}

	return nil
}

// createStdioTransport creates a command transport for stdio-based servers
func (c *Client) createStdioTransport(ctx context.Context) mcp.Transport {
	args := append(append([]string{}, c.config.Command[1:]...), c.config.Args...)
	cmd := exec.CommandContext(ctx, c.config.Command[0], args...)

	if c.config.WorkingDir != "" {
		cmd.Dir = c.config.WorkingDir
	}

	cmd.Env = os.Environ()
	for key, value := range c.config.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	return &mcp.CommandTransport{Command: cmd}
}

// createHTTPTransport creates a streamable HTTP transport
func (c *Client) createHTTPTransport() mcp.Transport {
	httpClient := &http.Client{}
	if len(c.config.Headers) > 0 {
		httpClient.Transport = &headerTransport{
			headers: c.config.Headers,
			base:    http.DefaultTransport,
		}
	}

	return &mcp.StreamableClientTransport{
		Endpoint:   c.config.URL,
		HTTPClient: httpClient,
	}
}

// headerTransport adds custom headers to all HTTP requests
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// loadTools fetches and caches the available tools from the server
func (c *Client) loadTools(ctx context.Context) error {
	if !c.connected || c.session == nil {
		return fmt.Errorf("client not connected")
	}

	toolsResponse, err := c.session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}

	c.tools = make(map[string]*mcp.Tool)
	for _, tool := range toolsResponse.Tools {
		c.tools[tool.Name] = tool
	}

	return nil
}

// ListTools returns the server's tools sorted by name
func (c *Client) ListTools() []*mcp.Tool {
	tools := make([]*mcp.Tool, 0, len(c.tools))
	for _, tool := range c.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// CallTool calls a tool on the server. Tool errors are reported in the
// returned ToolResult; transport and protocol failures as err.
func (c *Client) CallTool(ctx context.Context, toolName string, arguments map[string]any) (*ToolResult, error) {
	if !c.connected || c.session == nil {
		return nil, fmt.Errorf("client not connected")
	}

	if _, exists := c.tools[toolName]; !exists {
		return nil, fmt.Errorf("tool '%s' not found on server '%s'", toolName, c.config.Name)
	}

	response, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: arguments,
	})
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}

	return decodeToolResult(response)
}

// ReadMetrics reads the server's metrics resource
func (c *Client) ReadMetrics(ctx context.Context) (*MetricsSnapshot, error) {
	if !c.connected || c.session == nil {
		return nil, fmt.Errorf("client not connected")
	}

	res, err := c.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: MetricsURI})
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}
	if len(res.Contents) == 0 {
		return nil, fmt.Errorf("metrics resource is empty")
	}

	var snapshot MetricsSnapshot
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %w", err)
	}
	return &snapshot, nil
}

// Close closes the connection to the server
func (c *Client) Close() error {
	if !c.connected {
		return nil
	}

	var err error
	if c.session != nil {
		err = c.session.Close()
	}
	if c.serverSession != nil {
		c.serverSession.Close()
	}
	c.connected = false
	c.session = nil
	c.serverSession = nil
	return err
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	return c.connected
}

// GetServerInfo returns information about the connected server
func (c *Client) GetServerInfo() *mcp.Implementation {
	if c.session != nil {
		return c.session.InitializeResult().ServerInfo
	}
	return nil
}

func decodeToolResult(response *mcp.CallToolResult) (*ToolResult, error) {
	result := &ToolResult{Success: !response.IsError}

	for _, content := range response.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			result.Text = text.Text
			break
		}
	}

	if response.StructuredContent != nil {
		raw, err := json.Marshal(response.StructuredContent)
		if err != nil {
			return nil, fmt.Errorf("failed to read structured content: %w", err)
		}
		var out struct {
			Result json.RawMessage `json:"result"`
			Error  *arith.Error    `json:"error"`
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("failed to decode structured content: %w", err)
		}
		if len(out.Result) > 0 {
			if err := json.Unmarshal(out.Result, &result.Data); err != nil {
				return nil, fmt.Errorf("failed to decode result: %w", err)
			}
		}
		result.Error = out.Error
	}

	return result, nil
}
