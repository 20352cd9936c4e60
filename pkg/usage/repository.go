package usage

import "context"

// Repository defines the interface for invocation journal persistence
type Repository interface {
	CreateInvocation(ctx context.Context, record *InvocationRecord) error
	GetInvocation(ctx context.Context, id string) (*InvocationRecord, error)
	ListInvocations(ctx context.Context, filter *UsageFilter) ([]*InvocationRecord, error)
	GetToolStats(ctx context.Context, filter *UsageFilter) ([]*ToolStats, error)

	Initialize(ctx context.Context) error
	Close() error
}
