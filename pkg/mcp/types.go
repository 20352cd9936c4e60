package mcp

import (
	"context"
	"time"

	"github.com/liliang-cn/calc-mcp/pkg/arith"
)

const (
	ToolAddIntegers    = "add_integers"
	ToolDivideIntegers = "divide_integers"

	// MetricsURI is the resource exposing the metrics snapshot.
	MetricsURI = "calc://metrics"
)

// Operands is the argument object shared by both tools.
type Operands struct {
	A int64 `json:"a" jsonschema:"the first integer"`
	B int64 `json:"b" jsonschema:"the second integer"`
}

// Output is the structured content of a tool result. Exactly one of Result
// and Error is set.
type Output[T any] struct {
	Result *T           `json:"result,omitempty" jsonschema:"the operation result"`
	Error  *arith.Error `json:"error,omitempty" jsonschema:"set when the operation failed"`
}

// Invocation describes one finished tool call.
type Invocation struct {
	ID        string
	Tool      string
	Arguments Operands
	Result    any
	Err       error
	StartTime time.Time
	Duration  time.Duration
}

// Observer receives every finished invocation. Implementations must be
// safe for concurrent use and must not block for long.
type Observer interface {
	ObserveInvocation(ctx context.Context, inv Invocation)
}

// ServerType selects how a Client reaches a calc server.
type ServerType string

const (
	ServerTypeStdio ServerType = "stdio"
	ServerTypeHTTP  ServerType = "http"
)

// ClientConfig represents the configuration for reaching a remote calc server
type ClientConfig struct {
	Name       string            `json:"name"`
	Type       ServerType        `json:"type"`
	Command    []string          `json:"command"`
	Args       []string          `json:"args"`
	WorkingDir string            `json:"working_dir"`
	Env        map[string]string `json:"env"`
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers"`
}

// ToolResult represents the result of a tool call as seen by a client
type ToolResult struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Text    string       `json:"text"`
	Error   *arith.Error `json:"error,omitempty"`
}
