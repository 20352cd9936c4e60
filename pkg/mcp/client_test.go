package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	client, err := NewClient(&ClientConfig{Name: "calc", Command: []string{"calc", "serve"}})
	require.NoError(t, err)
	assert.False(t, client.IsConnected())
	assert.Nil(t, client.GetServerInfo())
	assert.NoError(t, client.Close())
}

func TestClient_ConnectValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		config *ClientConfig
	}{
		{name: "stdio without command", config: &ClientConfig{Name: "a", Type: ServerTypeStdio}},
		{name: "http without url", config: &ClientConfig{Name: "b", Type: ServerTypeHTTP}},
		{name: "unknown type", config: &ClientConfig{Name: "c", Type: "grpc", Command: []string{"x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			require.NoError(t, err)
			assert.Error(t, client.Connect(ctx))
			assert.False(t, client.IsConnected())
		})
	}
}

func TestClient_NotConnected(t *testing.T) {
	client, err := NewClient(&ClientConfig{Name: "calc"})
	require.NoError(t, err)

	_, err = client.CallTool(context.Background(), ToolAddIntegers, nil)
	assert.Error(t, err)

	_, err = client.ReadMetrics(context.Background())
	assert.Error(t, err)
}

func TestClient_HTTPHeaders(t *testing.T) {
	srv := NewServer(Options{})
	handler := srv.HTTPHandler()

	var (
		mu   sync.Mutex
		seen []string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("X-Calc-Token"))
		mu.Unlock()
		handler.ServeHTTP(w, r)
	}))
	defer ts.Close()

	client, err := NewClient(&ClientConfig{
		Name:    "http",
		Type:    ServerTypeHTTP,
		URL:     ts.URL,
		Headers: map[string]string{"X-Calc-Token": "secret"},
	})
	require.NoError(t, err)
	require.NoError(t, client.Connect(context.Background()))
	client.Close()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, "secret", seen[0])
}

func TestDecodeToolResult(t *testing.T) {
	res, err := decodeToolResult(&mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: "3.5"}},
		StructuredContent: map[string]any{"result": 3.5},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "3.5", res.Text)
	assert.Equal(t, 3.5, res.Data)
	assert.Nil(t, res.Error)

	res, err = decodeToolResult(&mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: "[400] Division by zero is not allowed."}},
		StructuredContent: map[string]any{"error": map[string]any{"code": 400, "message": "Division by zero is not allowed."}},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Nil(t, res.Data)
	require.NotNil(t, res.Error)
	assert.Equal(t, 400, res.Error.Code)

	res, err = decodeToolResult(&mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "5"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "5", res.Text)
	assert.Nil(t, res.Data)
}
