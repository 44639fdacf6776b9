// Package journal keeps a SQLite log of catalog loads.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/orbitwatch/internal/ingest"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// timeLayout is fixed-width so stored timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrClosed is returned after Close.
var ErrClosed = errors.New("journal closed")

// Entry is one recorded load.
type Entry struct {
	ID       string
	LoadedAt time.Time
	Source   ingest.Source
	Records  int
	Notice   string
	// LiveError is the reason the live feed was not used, if any.
	LiveError string
}

// Journal is a SQLite-backed load log.
type Journal struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the journal at path. Use ":memory:" for a
// throwaway journal.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is empty")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// One connection keeps ":memory:" databases alive and writes serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}
	return &Journal{db: db, path: path}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

// Path returns the database path.
func (j *Journal) Path() string { return j.path }

// Record stores e, assigning an ID and timestamp when missing.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if j.db == nil {
		return Entry{}, ErrClosed
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.LoadedAt.IsZero() {
		e.LoadedAt = time.Now()
	}
	e.LoadedAt = e.LoadedAt.UTC()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO loads (id, loaded_at, source, records, notice, live_error) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.LoadedAt.Format(timeLayout), string(e.Source), e.Records, e.Notice, e.LiveError,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record load: %w", err)
	}
	return e, nil
}

// RecordLoad implements ingest.Recorder.
func (j *Journal) RecordLoad(ctx context.Context, res ingest.Result) error {
	e := Entry{
		LoadedAt: res.LoadedAt,
		Source:   res.Source,
		Records:  len(res.Records),
		Notice:   res.Notice,
	}
	if res.LiveErr != nil {
		e.LiveError = res.LiveErr.Error()
	}
	_, err := j.Record(ctx, e)
	return err
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, loaded_at, source, records, notice, live_error FROM loads ORDER BY loaded_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query loads: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			loadedAt string
			source   string
		)
		if err := rows.Scan(&e.ID, &loadedAt, &source, &e.Records, &e.Notice, &e.LiveError); err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		e.Source = ingest.Source(source)
		e.LoadedAt, err = time.Parse(timeLayout, loadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse load time %q: %w", loadedAt, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loads: %w", err)
	}
	return out, nil
}
