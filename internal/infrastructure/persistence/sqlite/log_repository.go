package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/khanhnv2901/riskscan/internal/domain/scan"
	consts "github.com/khanhnv2901/riskscan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/riskscan/internal/shared/errors"
)

// LogRepository implements scan.Repository on a SQLite database. The full
// record is stored as JSON next to the indexed columns used for querying.
type LogRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewLogRepository opens (creating if needed) the SQLite log at path and
// ensures the schema exists.
func NewLogRepository(ctx context.Context, path string) (*LogRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), consts.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	repo := &LogRepository{db: db}
	if err := repo.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repo, nil
}

// Close closes the database connection.
func (r *LogRepository) Close() error { return r.db.Close() }

func (r *LogRepository) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS scan_logs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	url            TEXT NOT NULL,
	url_lower      TEXT NOT NULL,
	scan_timestamp TEXT NOT NULL,
	risk_level     TEXT NOT NULL,
	logged_at      TEXT,
	record         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_logs_scan_timestamp ON scan_logs (scan_timestamp DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_scan_logs_url_lower ON scan_logs (url_lower);
`
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Append inserts one result.
func (r *LogRepository) Append(ctx context.Context, result *scan.Result) error {
	if result == nil {
		return fmt.Errorf("%w: nil result", sharedErrors.ErrSerializationFailed)
	}
	record, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
INSERT INTO scan_logs (url, url_lower, scan_timestamp, risk_level, logged_at, record)
VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		result.URL,
		strings.ToLower(result.URL),
		result.ScanTimestamp,
		string(result.RiskLevel),
		result.LoggedAt,
		string(record),
	); err != nil {
		return fmt.Errorf("failed to insert scan log: %w", err)
	}
	return nil
}

// Query returns results newest first. Rows sharing a timestamp come back in
// reverse insertion order, matching the JSON store.
func (r *LogRepository) Query(ctx context.Context, q scan.Query) ([]*scan.Result, error) {
	var args []interface{}
	qb := strings.Builder{}
	qb.WriteString("SELECT record FROM scan_logs WHERE 1=1")
	if q.Domain != "" {
		args = append(args, strings.ToLower(q.Domain))
		qb.WriteString(" AND instr(url_lower, ?) > 0")
	}
	qb.WriteString(" ORDER BY scan_timestamp DESC, id DESC")
	if q.Limit > 0 {
		args = append(args, q.Limit)
		qb.WriteString(" LIMIT ?")
	}

	rows, err := r.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan logs: %w", err)
	}
	defer rows.Close()

	results := make([]*scan.Result, 0)
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		var result scan.Result
		if err := json.Unmarshal([]byte(record), &result); err != nil {
			return nil, fmt.Errorf("%w: %v", sharedErrors.ErrDeserializationFailed, err)
		}
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan logs: %w", err)
	}
	return results, nil
}
