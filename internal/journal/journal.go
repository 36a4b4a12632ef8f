// Package journal persists a best-effort diagnostic log of dispatch
// outcomes. It is not registry persistence and nothing reads it on the
// request path; losing it costs observability, not correctness.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Journal struct {
	db *sql.DB
}

func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Append writes one dispatch record. A zero ID and CreatedAt are filled in.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	if e.Status == "" {
		return fmt.Errorf("entry status is empty")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var reqID any
	if e.RequestID != "" {
		reqID = e.RequestID
	}
	var errMsg any
	if e.Error != "" {
		errMsg = e.Error
	}

	_, err := j.db.ExecContext(ctx, `
INSERT INTO dispatch_log(id, request_id, namespace, method, status, error, duration_ms, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?);
`, e.ID, reqID, e.Namespace, e.Method, string(e.Status), errMsg, e.Duration.Milliseconds(), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append dispatch entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest-first, capped at limit.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, `
SELECT id, request_id, namespace, method, status, error, duration_ms, created_at
FROM dispatch_log
ORDER BY created_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query dispatch_log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			reqID      sql.NullString
			errMsg     sql.NullString
			statusS    string
			durationMS int64
			createdS   string
		)
		if err := rows.Scan(&e.ID, &reqID, &e.Namespace, &e.Method, &statusS, &errMsg, &durationMS, &createdS); err != nil {
			return nil, fmt.Errorf("scan dispatch entry: %w", err)
		}
		e.RequestID = reqID.String
		e.Error = errMsg.String
		e.Status = Status(statusS)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if t, err := time.Parse(time.RFC3339Nano, createdS); err == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of journal entries.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dispatch_log;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dispatch_log: %w", err)
	}
	return n, nil
}

// Prune deletes entries older than the retention window.
func (j *Journal) Prune(ctx context.Context, retention time.Duration) error {
	if retention <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339Nano)
	if _, err := j.db.ExecContext(ctx, `DELETE FROM dispatch_log WHERE created_at < ?;`, cutoff); err != nil {
		return fmt.Errorf("prune dispatch_log: %w", err)
	}
	return nil
}
