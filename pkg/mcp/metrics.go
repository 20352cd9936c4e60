package mcp

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MetricsCollector collects per-tool call metrics
type MetricsCollector struct {
	mu          sync.RWMutex
	toolMetrics map[string]*ToolMetrics
	totalCalls  int64
	startTime   time.Time
}

// ToolMetrics contains metrics for a specific tool
type ToolMetrics struct {
	ToolName            string        `json:"tool_name"`
	TotalCalls          int64         `json:"total_calls"`
	SuccessfulCalls     int64         `json:"successful_calls"`
	FailedCalls         int64         `json:"failed_calls"`
	TotalResponseTime   time.Duration `json:"total_response_time"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	LastCallTime        time.Time     `json:"last_call_time"`
	ErrorRate           float64       `json:"error_rate"`
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	TotalToolCalls int64          `json:"total_tool_calls"`
	Uptime         time.Duration  `json:"uptime"`
	Tools          []*ToolMetrics `json:"tools"`
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		toolMetrics: make(map[string]*ToolMetrics),
		startTime:   time.Now(),
	}
}

// ObserveInvocation records one finished tool call.
func (m *MetricsCollector) ObserveInvocation(_ context.Context, inv Invocation) {
	m.RecordToolCall(inv.Tool, inv.Duration, inv.Err == nil)
}

// RecordToolCall records a tool call
func (m *MetricsCollector) RecordToolCall(toolName string, responseTime time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tm, exists := m.toolMetrics[toolName]
	if !exists {
		tm = &ToolMetrics{ToolName: toolName}
		m.toolMetrics[toolName] = tm
	}

	tm.TotalCalls++
	if success {
		tm.SuccessfulCalls++
	} else {
		tm.FailedCalls++
	}
	tm.TotalResponseTime += responseTime
	tm.AverageResponseTime = tm.TotalResponseTime / time.Duration(tm.TotalCalls)
	tm.LastCallTime = time.Now()
	tm.ErrorRate = float64(tm.FailedCalls) / float64(tm.TotalCalls)

	m.totalCalls++
}

// GetToolMetrics returns a copy of the metrics for one tool
func (m *MetricsCollector) GetToolMetrics(toolName string) (*ToolMetrics, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tm, exists := m.toolMetrics[toolName]
	if !exists {
		return nil, false
	}
	copied := *tm
	return &copied, true
}

// Snapshot returns all metrics, tools sorted by name
func (m *MetricsCollector) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		TotalToolCalls: m.totalCalls,
		Uptime:         time.Since(m.startTime),
		Tools:          make([]*ToolMetrics, 0, len(m.toolMetrics)),
	}
	for _, tm := range m.toolMetrics {
		copied := *tm
		snapshot.Tools = append(snapshot.Tools, &copied)
	}
	sort.Slice(snapshot.Tools, func(i, j int) bool {
		return snapshot.Tools[i].ToolName < snapshot.Tools[j].ToolName
	})
	return snapshot
}

// Reset clears all collected metrics
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.toolMetrics = make(map[string]*ToolMetrics)
	m.totalCalls = 0
	m.startTime = time.Now()
}
