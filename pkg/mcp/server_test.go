package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/liliang-cn/calc-mcp/pkg/log"
	"github.com/liliang-cn/calc-mcp/pkg/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu          sync.Mutex
	invocations []Invocation
}

func (r *recordingObserver) ObserveInvocation(_ context.Context, inv Invocation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invocations = append(r.invocations, inv)
}

func (r *recordingObserver) all() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Invocation(nil), r.invocations...)
}

func newTestClient(t *testing.T, opts Options) (*Server, *Client) {
	t.Helper()

	srv := NewServer(opts)
	client, err := NewInProcessClient(context.Background(), srv)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return srv, client
}

func TestServer_ListTools(t *testing.T) {
	_, client := newTestClient(t, Options{})

	tools := client.ListTools()
	require.Len(t, tools, 2)
	assert.Equal(t, ToolAddIntegers, tools[0].Name)
	assert.Equal(t, ToolDivideIntegers, tools[1].Name)

	for _, tool := range tools {
		assert.NotEmpty(t, tool.Description)

		raw, err := json.Marshal(tool.InputSchema)
		require.NoError(t, err)

		var schema struct {
			Type       string `json:"type"`
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
			Required []string `json:"required"`
		}
		require.NoError(t, json.Unmarshal(raw, &schema))

		assert.Equal(t, "object", schema.Type)
		assert.Equal(t, "integer", schema.Properties["a"].Type)
		assert.Equal(t, "integer", schema.Properties["b"].Type)
		assert.ElementsMatch(t, []string{"a", "b"}, schema.Required)
	}
}

func TestServer_ServerInfo(t *testing.T) {
	_, client := newTestClient(t, Options{Name: "calculator", Version: "2.0.0"})

	info := client.GetServerInfo()
	require.NotNil(t, info)
	assert.Equal(t, "calculator", info.Name)
	assert.Equal(t, "2.0.0", info.Version)
}

func TestServer_CallTool(t *testing.T) {
	_, client := newTestClient(t, Options{})
	ctx := context.Background()

	tests := []struct {
		name     string
		tool     string
		a, b     int64
		wantData float64
		wantText string
	}{
		{name: "add", tool: ToolAddIntegers, a: 2, b: 3, wantData: 5, wantText: "5"},
		{name: "add to zero", tool: ToolAddIntegers, a: -1, b: 1, wantData: 0, wantText: "0"},
		{name: "divide exact", tool: ToolDivideIntegers, a: 10, b: 2, wantData: 5, wantText: "5"},
		{name: "divide fractional", tool: ToolDivideIntegers, a: 7, b: 2, wantData: 3.5, wantText: "3.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := client.CallTool(ctx, tt.tool, map[string]any{"a": tt.a, "b": tt.b})
			require.NoError(t, err)

			assert.True(t, res.Success)
			assert.Equal(t, tt.wantText, res.Text)
			assert.Equal(t, tt.wantData, res.Data)
			assert.Nil(t, res.Error)
		})
	}
}

func TestServer_DivideByZero(t *testing.T) {
	_, client := newTestClient(t, Options{})
	ctx := context.Background()

	res, err := client.CallTool(ctx, ToolDivideIntegers, map[string]any{"a": 5, "b": 0})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Text, "[400] Division by zero is not allowed.")
	if res.Error != nil {
		assert.Equal(t, 400, res.Error.Code)
		assert.Equal(t, "Division by zero is not allowed.", res.Error.Message)
	}

	// The failure is scoped to that request.
	res, err = client.CallTool(ctx, ToolAddIntegers, map[string]any{"a": 1, "b": 1})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, float64(2), res.Data)
}

func TestServer_RejectsNonIntegerArguments(t *testing.T) {
	_, client := newTestClient(t, Options{})

	res, err := client.CallTool(context.Background(), ToolAddIntegers, map[string]any{"a": "two", "b": 3})
	if err == nil {
		assert.False(t, res.Success)
	}

	res, err = client.CallTool(context.Background(), ToolAddIntegers, map[string]any{"a": 2})
	if err == nil {
		assert.False(t, res.Success)
	}
}

func TestServer_UnknownTool(t *testing.T) {
	_, client := newTestClient(t, Options{})

	_, err := client.CallTool(context.Background(), "multiply_integers", map[string]any{"a": 2, "b": 3})
	assert.Error(t, err)
}

func TestServer_LogsInvocations(t *testing.T) {
	var buf bytes.Buffer
	logger, err := log.New(log.Options{Name: "calc", Output: &buf})
	require.NoError(t, err)

	_, client := newTestClient(t, Options{Logger: logger.Logger})
	ctx := context.Background()

	_, err = client.CallTool(ctx, ToolAddIntegers, map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	_, err = client.CallTool(ctx, ToolDivideIntegers, map[string]any{"a": 5, "b": 0})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, " - calc - INFO - Adding 2 and 3\n")
	assert.Contains(t, out, " - calc - INFO - Dividing 5 by 0\n")
	assert.Contains(t, out, " - calc - WARNING - Rejected division of 5 by 0: [400] Division by zero is not allowed.\n")
	assert.NotContains(t, out, "tool call finished")
}

func TestServer_NotifiesObservers(t *testing.T) {
	observer := &recordingObserver{}
	srv, client := newTestClient(t, Options{Observers: []Observer{observer}})
	ctx := context.Background()

	_, err := client.CallTool(ctx, ToolAddIntegers, map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	_, err = client.CallTool(ctx, ToolDivideIntegers, map[string]any{"a": 5, "b": 0})
	require.NoError(t, err)

	invocations := observer.all()
	require.Len(t, invocations, 2)

	assert.NotEmpty(t, invocations[0].ID)
	assert.Equal(t, ToolAddIntegers, invocations[0].Tool)
	assert.Equal(t, Operands{A: 2, B: 3}, invocations[0].Arguments)
	assert.Equal(t, int64(5), invocations[0].Result)
	assert.NoError(t, invocations[0].Err)

	assert.Equal(t, ToolDivideIntegers, invocations[1].Tool)
	assert.Nil(t, invocations[1].Result)
	assert.Error(t, invocations[1].Err)
	assert.NotEqual(t, invocations[0].ID, invocations[1].ID)

	tm, ok := srv.Metrics().GetToolMetrics(ToolDivideIntegers)
	require.True(t, ok)
	assert.Equal(t, int64(1), tm.FailedCalls)
}

func TestServer_MetricsResource(t *testing.T) {
	_, client := newTestClient(t, Options{})
	ctx := context.Background()

	for _, args := range []map[string]any{{"a": 1, "b": 2}, {"a": 3, "b": 4}} {
		_, err := client.CallTool(ctx, ToolAddIntegers, args)
		require.NoError(t, err)
	}
	_, err := client.CallTool(ctx, ToolDivideIntegers, map[string]any{"a": 1, "b": 0})
	require.NoError(t, err)

	snapshot, err := client.ReadMetrics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), snapshot.TotalToolCalls)
	require.Len(t, snapshot.Tools, 2)
	assert.Equal(t, ToolAddIntegers, snapshot.Tools[0].ToolName)
	assert.Equal(t, int64(2), snapshot.Tools[0].SuccessfulCalls)
	assert.Equal(t, ToolDivideIntegers, snapshot.Tools[1].ToolName)
	assert.Equal(t, float64(1), snapshot.Tools[1].ErrorRate)
}

func TestServer_UsageJournal(t *testing.T) {
	service, err := usage.NewService(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { service.Close() })

	_, client := newTestClient(t, Options{Observers: []Observer{NewUsageObserver(service, nil)}})
	ctx := context.Background()

	_, err = client.CallTool(ctx, ToolDivideIntegers, map[string]any{"a": 7, "b": 2})
	require.NoError(t, err)
	_, err = client.CallTool(ctx, ToolDivideIntegers, map[string]any{"a": 7, "b": 0})
	require.NoError(t, err)

	records, err := service.ListInvocations(ctx, &usage.UsageFilter{Tool: ToolDivideIntegers})
	require.NoError(t, err)
	require.Len(t, records, 2)

	var ok, failed *usage.InvocationRecord
	for _, r := range records {
		if r.Success {
			ok = r
		} else {
			failed = r
		}
	}
	require.NotNil(t, ok)
	require.NotNil(t, failed)

	assert.JSONEq(t, `{"a":7,"b":2}`, ok.Arguments)
	assert.JSONEq(t, `3.5`, ok.Result)
	assert.Equal(t, 400, failed.ErrorCode)
	assert.Equal(t, "Division by zero is not allowed.", failed.ErrorMessage)
}

func TestServer_HTTPTransport(t *testing.T) {
	srv := NewServer(Options{})
	ts := httptest.NewServer(srv.HTTPHandler())
	defer ts.Close()

	client, err := NewClient(&ClientConfig{Name: "http", Type: ServerTypeHTTP, URL: ts.URL})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	assert.True(t, client.IsConnected())
	assert.Len(t, client.ListTools(), 2)

	res, err := client.CallTool(ctx, ToolAddIntegers, map[string]any{"a": 20, "b": 22})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "42", res.Text)
}
