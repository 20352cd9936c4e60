package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/calc-mcp/pkg/arith"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var addIntegersTool = &mcp.Tool{
	Name:        ToolAddIntegers,
	Description: "Add two integers and return the result. Takes the first integer a and the second integer b; returns their sum.",
}

var divideIntegersTool = &mcp.Tool{
	Name:        ToolDivideIntegers,
	Description: "Divide two integers and return the result. Takes the dividend a and the divisor b; returns the quotient, which may be fractional. Fails with code 400 when b is zero.",
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, addIntegersTool, toolHandler(s, ToolAddIntegers, s.add))
	mcp.AddTool(s.server, divideIntegersTool, toolHandler(s, ToolDivideIntegers, s.divide))
}

func (s *Server) add(ctx context.Context, in Operands) (int64, error) {
	s.logger.InfoContext(ctx, fmt.Sprintf("Adding %d and %d", in.A, in.B))
	return arith.Add(in.A, in.B)
}

func (s *Server) divide(ctx context.Context, in Operands) (float64, error) {
	s.logger.InfoContext(ctx, fmt.Sprintf("Dividing %d by %d", in.A, in.B))
	q, err := arith.Divide(in.A, in.B)
	if err != nil {
		s.logger.WarnContext(ctx, fmt.Sprintf("Rejected division of %d by %d: %v", in.A, in.B, err))
	}
	return q, err
}

// toolHandler adapts an operation to the go-sdk typed handler, converting
// its outcome into a tool result and notifying observers.
func toolHandler[T any](s *Server, name string, op func(context.Context, Operands) (T, error)) mcp.ToolHandlerFor[Operands, Output[T]] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in Operands) (*mcp.CallToolResult, Output[T], error) {
		inv := Invocation{
			ID:        uuid.New().String(),
			Tool:      name,
			Arguments: in,
			StartTime: time.Now(),
		}

		value, opErr := op(ctx, in)
		inv.Duration = time.Since(inv.StartTime)
		if opErr != nil {
			inv.Err = opErr
		} else {
			inv.Result = value
		}
		s.notify(ctx, inv)

		return toolResult(value, opErr)
	}
}

// toolResult maps an operation outcome onto the protocol result. Typed
// arithmetic errors become tool errors carrying {code, message}; any other
// error is left to the dispatcher.
func toolResult[T any](value T, err error) (*mcp.CallToolResult, Output[T], error) {
	if err != nil {
		var arithErr *arith.Error
		if errors.As(err, &arithErr) {
			res := &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: arithErr.Error()}},
			}
			return res, Output[T]{Error: arithErr}, nil
		}
		return nil, Output[T]{}, err
	}

	res := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprint(value)}},
	}
	return res, Output[T]{Result: &value}, nil
}
