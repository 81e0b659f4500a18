package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RequestMetric records metadata for a single backend API request.
type RequestMetric struct {
	Operation  string
	StatusCode int
	LatencyMS  int64
	Timestamp  time.Time
}

// Store handles persistence of request metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(m RequestMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	const q = `INSERT INTO request_metrics (operation, status_code, latency_ms, timestamp)
		VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(context.Background(), q, m.Operation, m.StatusCode, m.LatencyMS, ts); err != nil {
		return fmt.Errorf("failed to record request metric: %w", err)
	}
	return nil
}

// DailyUsage represents request totals for a single day.
type DailyUsage struct {
	Date          string
	TotalRequests int
	TotalErrors   int
	AvgLatencyMS  int64
}

// GetDailyUsage retrieves per-day request totals for the last N days.
func (s *Store) GetDailyUsage(days int) ([]DailyUsage, error) {
	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02 15:04:05")

	const q = `SELECT date(timestamp) AS day,
			COUNT(*),
			SUM(CASE WHEN status_code >= 400 OR status_code = 0 THEN 1 ELSE 0 END),
			CAST(AVG(latency_ms) AS INTEGER)
		FROM request_metrics
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day DESC`

	rows, err := s.db.QueryContext(context.Background(), q, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var usage []DailyUsage
	for rows.Next() {
		var d DailyUsage
		if err := rows.Scan(&d.Date, &d.TotalRequests, &d.TotalErrors, &d.AvgLatencyMS); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage row: %w", err)
		}
		usage = append(usage, d)
	}
	return usage, rows.Err()
}
