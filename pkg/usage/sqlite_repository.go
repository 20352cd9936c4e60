package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("invocation not found")

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the journal at dbPath.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{db: db}
	if err := repo.Initialize(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return repo, nil
}

// Initialize creates the necessary tables
func (r *SQLiteRepository) Initialize(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS invocations (
			id TEXT PRIMARY KEY,
			tool TEXT NOT NULL,
			arguments TEXT,
			result TEXT,
			success INTEGER NOT NULL DEFAULT 1,
			error_code INTEGER DEFAULT 0,
			error_message TEXT,
			latency INTEGER DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_created_at ON invocations(created_at)`,
	}

	for _, query := range queries {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// CreateInvocation stores a record
func (r *SQLiteRepository) CreateInvocation(ctx context.Context, record *InvocationRecord) error {
	query := `INSERT INTO invocations (
			id, tool, arguments, result, success, error_code, error_message, latency, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Tool,
		record.Arguments,
		record.Result,
		boolToInt(record.Success),
		record.ErrorCode,
		record.ErrorMessage,
		record.Latency,
		record.CreatedAt.UnixNano(),
	)
	return err
}

// GetInvocation retrieves a record by ID
func (r *SQLiteRepository) GetInvocation(ctx context.Context, id string) (*InvocationRecord, error) {
	query := `SELECT id, tool, arguments, result, success, error_code, error_message, latency, created_at
			  FROM invocations WHERE id = ?`

	record, err := scanInvocation(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return record, err
}

// ListInvocations lists records, newest first
func (r *SQLiteRepository) ListInvocations(ctx context.Context, filter *UsageFilter) ([]*InvocationRecord, error) {
	where, args := buildWhere(filter)
	query := `SELECT id, tool, arguments, result, success, error_code, error_message, latency, created_at
			  FROM invocations` + where + ` ORDER BY created_at DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*InvocationRecord
	for rows.Next() {
		record, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetToolStats aggregates records per tool
func (r *SQLiteRepository) GetToolStats(ctx context.Context, filter *UsageFilter) ([]*ToolStats, error) {
	where, args := buildWhere(filter)
	query := `SELECT tool,
				COUNT(*),
				COALESCE(SUM(success), 0),
				COALESCE(AVG(latency), 0)
			  FROM invocations` + where + `
			  GROUP BY tool
			  ORDER BY tool`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []*ToolStats
	for rows.Next() {
		var s ToolStats
		if err := rows.Scan(&s.Tool, &s.TotalCalls, &s.SuccessCalls, &s.AverageLatency); err != nil {
			return nil, err
		}
		s.FailedCalls = s.TotalCalls - s.SuccessCalls
		stats = append(stats, &s)
	}
	return stats, rows.Err()
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func buildWhere(filter *UsageFilter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var conds []string
	var args []any
	if filter.Tool != "" {
		conds = append(conds, "tool = ?")
		args = append(args, filter.Tool)
	}
	if filter.StartTime != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.StartTime.UnixNano())
	}
	if filter.EndTime != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, filter.EndTime.UnixNano())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvocation(scan rowScanner) (*InvocationRecord, error) {
	var (
		record    InvocationRecord
		arguments sql.NullString
		result    sql.NullString
		errMsg    sql.NullString
		success   int
		createdAt int64
	)

	if err := scan.Scan(
		&record.ID,
		&record.Tool,
		&arguments,
		&result,
		&success,
		&record.ErrorCode,
		&errMsg,
		&record.Latency,
		&createdAt,
	); err != nil {
		return nil, err
	}

	record.Arguments = arguments.String
	record.Result = result.String
	record.ErrorMessage = errMsg.String
	record.Success = success == 1
	record.CreatedAt = time.Unix(0, createdAt)
	return &record, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
