package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/cameroncuttingedge/place/canvas"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteLog is the provenance log: every accepted draw plus the last draw
// time of each user.
type SQLiteLog struct {
	db *sql.DB
}

// OpenSQLite creates or opens the log at path. ":memory:" gives a private
// in-memory database.
func OpenSQLite(path string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer; one connection also keeps ":memory:"
	// databases from splitting per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

func (s *SQLiteLog) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteLog) Append(ctx context.Context, ev canvas.DrawEvent) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO draws (x, y, color, user, ts_unix_ns) VALUES (?, ?, ?, ?, ?)",
		ev.X, ev.Y, int(ev.Color), ev.User, ev.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("insert draw: %w", err)
	}
	return nil
}

// RecordLastDraw upserts in one statement.
func (s *SQLiteLog) RecordLastDraw(ctx context.Context, user string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO last_draw (user, ts_unix_ns) VALUES (?, ?)
		 ON CONFLICT(user) DO UPDATE SET ts_unix_ns = excluded.ts_unix_ns`,
		user, ts.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert last draw: %w", err)
	}
	return nil
}

func (s *SQLiteLog) LastTimestampFor(ctx context.Context, user string) (time.Time, bool, error) {
	var ns int64
	err := s.db.QueryRowContext(ctx, "SELECT ts_unix_ns FROM last_draw WHERE user = ?", user).Scan(&ns)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("select last draw: %w", err)
	}
	return time.Unix(0, ns).UTC(), true, nil
}

// PixelHistory returns the most recent draws of one pixel, newest first.
func (s *SQLiteLog) PixelHistory(ctx context.Context, x, y, limit int) ([]canvas.DrawEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT x, y, color, user, ts_unix_ns FROM draws WHERE x = ? AND y = ? ORDER BY id DESC LIMIT ?",
		x, y, limit)
	if err != nil {
		return nil, fmt.Errorf("query pixel history: %w", err)
	}
	defer rows.Close()

	var out []canvas.DrawEvent
	for rows.Next() {
		ev, err := scanDraw(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Replay calls fn for every draw in insertion order and stops at the first
// error.
func (s *SQLiteLog) Replay(ctx context.Context, fn func(canvas.DrawEvent) error) error {
	rows, err := s.db.QueryContext(ctx, "SELECT x, y, color, user, ts_unix_ns FROM draws ORDER BY id")
	if err != nil {
		return fmt.Errorf("query draws: %w", err)
	}
	var events []canvas.DrawEvent
	for rows.Next() {
		ev, err := scanDraw(rows)
		if err != nil {
			rows.Close()
			return err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	// fn may write back into this store; the single connection must be free.
	for _, ev := range events {
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteLog) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM draws").Scan(&n); err != nil {
		return 0, fmt.Errorf("count draws: %w", err)
	}
	return n, nil
}

func scanDraw(rows *sql.Rows) (canvas.DrawEvent, error) {
	var (
		ev    canvas.DrawEvent
		color int
		ns    int64
	)
	if err := rows.Scan(&ev.X, &ev.Y, &color, &ev.User, &ns); err != nil {
		return canvas.DrawEvent{}, fmt.Errorf("scan draw: %w", err)
	}
	ev.Color = canvas.Color(color)
	ev.Timestamp = time.Unix(0, ns).UTC()
	return ev, nil
}
