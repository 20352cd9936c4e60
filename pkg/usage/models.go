package usage

import (
	"time"

	"github.com/google/uuid"
)

// InvocationRecord is one persisted tool call.
type InvocationRecord struct {
	ID           string    `json:"id" db:"id"`
	Tool         string    `json:"tool" db:"tool"`
	Arguments    string    `json:"arguments" db:"arguments"` // JSON
	Result       string    `json:"result" db:"result"`       // JSON, empty on failure
	Success      bool      `json:"success" db:"success"`
	ErrorCode    int       `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage string    `json:"error_message,omitempty" db:"error_message"`
	Latency      int64     `json:"latency" db:"latency"` // milliseconds
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ToolStats aggregates the journal for a single tool.
type ToolStats struct {
	Tool           string  `json:"tool"`
	TotalCalls     int64   `json:"total_calls"`
	SuccessCalls   int64   `json:"success_calls"`
	FailedCalls    int64   `json:"failed_calls"`
	AverageLatency float64 `json:"average_latency"` // milliseconds
}

// UsageFilter narrows record listings.
type UsageFilter struct {
	Tool      string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// NewInvocationRecord returns a record with a fresh ID and creation time.
func NewInvocationRecord(tool string) *InvocationRecord {
	return &InvocationRecord{
		ID:        GenerateCallID(),
		Tool:      tool,
		CreatedAt: time.Now(),
	}
}

// GenerateCallID returns a new invocation identifier.
func GenerateCallID() string {
	return uuid.New().String()
}
