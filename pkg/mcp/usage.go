package mcp

import (
	"context"
	"log/slog"

	"github.com/liliang-cn/calc-mcp/pkg/usage"
)

// UsageObserver journals every invocation through a usage.Service. Write
// failures are logged and never reach the caller.
type UsageObserver struct {
	service *usage.Service
	logger  *slog.Logger
}

// NewUsageObserver creates an observer backed by service.
func NewUsageObserver(service *usage.Service, logger *slog.Logger) *UsageObserver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &UsageObserver{service: service, logger: logger}
}

func (o *UsageObserver) ObserveInvocation(ctx context.Context, inv Invocation) {
	_, err := o.service.TrackToolCall(ctx, usage.ToolCall{
		ID:        inv.ID,
		Tool:      inv.Tool,
		Arguments: inv.Arguments,
		Result:    inv.Result,
		Err:       inv.Err,
		StartTime: inv.StartTime,
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "failed to journal invocation",
			slog.String("invocation_id", inv.ID),
			slog.String("tool", inv.Tool),
			slog.Any("error", err))
	}
}
