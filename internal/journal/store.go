// internal/journal/store.go
//
// Run journal: one row per finished attempt at the sequence, either a
// completion or the mistake that ended it. The journal is a log only;
// nothing here restores a session's position.

package journal

import (
	"context"
	"database/sql"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Run is one finished attempt.
type Run struct {
	SessionID  string    `json:"sessionId"`
	Completed  bool      `json:"completed"`
	Reached    int       `json:"reached"`
	Length     int       `json:"length"`
	Missed     string    `json:"missed,omitempty"`
	ElapsedMs  int64     `json:"elapsedMs"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Summary aggregates runs.
type Summary struct {
	Runs        int   `json:"runs"`
	Completions int   `json:"completions"`
	BestReach   int   `json:"bestReach"`
	FastestMs   int64 `json:"fastestMs,omitempty"` // fastest completion
	Today       int   `json:"today"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record inserts a finished run.
func (s *Store) Record(ctx context.Context, r Run) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO runs
            (session_id, day, completed, reached, length, missed, elapsed_ms, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, DateKey(r.FinishedAt), r.Completed, r.Reached, r.Length, r.Missed,
		r.ElapsedMs, r.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Summary aggregates runs for one session, or all sessions when
// sessionID is empty. now selects the day counted in Today.
func (s *Store) Summary(ctx context.Context, sessionID string, now time.Time) (Summary, error) {
	var out Summary
	var fastest sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1),
               COALESCE(SUM(completed), 0),
               COALESCE(MAX(reached), 0),
               MIN(CASE WHEN completed = 1 THEN elapsed_ms END),
               COALESCE(SUM(CASE WHEN day = ? THEN 1 ELSE 0 END), 0)
        FROM runs
        WHERE (? = '' OR session_id = ?)`,
		DateKey(now), sessionID, sessionID,
	).Scan(&out.Runs, &out.Completions, &out.BestReach, &fastest, &out.Today)
	if err != nil {
		return Summary{}, err
	}
	if fastest.Valid {
		out.FastestMs = fastest.Int64
	}
	return out, nil
}

// Recent returns the latest runs, newest first. Default limit is 20.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT session_id, completed, reached, length, missed, elapsed_ms, finished_at
        FROM runs
        WHERE (? = '' OR session_id = ?)
        ORDER BY finished_at DESC, id DESC
        LIMIT ?`, sessionID, sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Run, 0, limit)
	for rows.Next() {
		var r Run
		var finished string
		if err := rows.Scan(&r.SessionID, &r.Completed, &r.Reached, &r.Length, &r.Missed, &r.ElapsedMs, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}
