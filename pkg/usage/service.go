package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/liliang-cn/calc-mcp/pkg/arith"
)

// ToolCall describes a finished tool invocation to be journaled.
type ToolCall struct {
	ID        string
	Tool      string
	Arguments any
	Result    any
	Err       error
	StartTime time.Time
}

// Service provides invocation journaling
type Service struct {
	repo Repository
}

// NewService opens the SQLite journal at dbPath.
func NewService(dbPath string) (*Service, error) {
	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}
	return &Service{repo: repo}, nil
}

// NewServiceWithRepository wraps an existing repository.
func NewServiceWithRepository(repo Repository) *Service {
	return &Service{repo: repo}
}

// TrackToolCall persists one invocation and returns the stored record.
func (s *Service) TrackToolCall(ctx context.Context, call ToolCall) (*InvocationRecord, error) {
	record := NewInvocationRecord(call.Tool)
	if call.ID != "" {
		record.ID = call.ID
	}
	if !call.StartTime.IsZero() {
		record.CreatedAt = call.StartTime
		record.Latency = time.Since(call.StartTime).Milliseconds()
	}

	args, err := marshalJSON(call.Arguments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal arguments: %w", err)
	}
	record.Arguments = args

	if call.Err != nil {
		record.Success = false
		record.ErrorMessage = call.Err.Error()
		var arithErr *arith.Error
		if errors.As(call.Err, &arithErr) {
			record.ErrorCode = arithErr.Code
			record.ErrorMessage = arithErr.Message
		}
	} else {
		record.Success = true
		result, err := marshalJSON(call.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		record.Result = result
	}

	if err := s.repo.CreateInvocation(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create invocation record: %w", err)
	}
	return record, nil
}

// GetInvocation returns a single record.
func (s *Service) GetInvocation(ctx context.Context, id string) (*InvocationRecord, error) {
	return s.repo.GetInvocation(ctx, id)
}

// ListInvocations returns records, newest first.
func (s *Service) ListInvocations(ctx context.Context, filter *UsageFilter) ([]*InvocationRecord, error) {
	return s.repo.ListInvocations(ctx, filter)
}

// GetToolStats returns per-tool aggregates.
func (s *Service) GetToolStats(ctx context.Context, filter *UsageFilter) ([]*ToolStats, error) {
	return s.repo.GetToolStats(ctx, filter)
}

// Close closes the service
func (s *Service) Close() error {
	return s.repo.Close()
}

func marshalJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
