package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vk/shimloader/internal/events"
	"github.com/vk/shimloader/internal/moduleid"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite creates or opens the journal database at path. The schema is
// applied idempotently.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply journal schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Record(ctx context.Context, e events.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (run_id, module, kind, duration_ns, err, at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Module.String(), string(e.Kind), int64(e.Duration), e.Err, e.Time.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record %s event: %w", e.Kind, err)
	}
	return nil
}

func (s *SQLite) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id,
		       MIN(at),
		       MAX(CASE WHEN kind = ? THEN at END),
		       MAX(CASE WHEN kind = ? THEN err END)
		FROM events
		GROUP BY run_id
		ORDER BY MIN(at), MIN(seq)
	`, string(events.RunFinished), string(events.RunFinished))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			id       string
			started  int64
			finished sql.NullInt64
			runErr   sql.NullString
		)
		if err := rows.Scan(&id, &started, &finished, &runErr); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r := Run{ID: id, Started: time.Unix(0, started), Err: runErr.String}
		if finished.Valid {
			r.Finished = time.Unix(0, finished.Int64)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLite) Events(ctx context.Context, runID string) ([]events.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT module, kind, duration_ns, err, at
		FROM events WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events of run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			mod, kind, msg string
			dur, at        int64
		)
		if err := rows.Scan(&mod, &kind, &dur, &msg, &at); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, events.Event{
			RunID:    runID,
			Module:   moduleid.ID(mod),
			Kind:     events.Kind(kind),
			Duration: time.Duration(dur),
			Err:      msg,
			Time:     time.Unix(0, at),
		})
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
