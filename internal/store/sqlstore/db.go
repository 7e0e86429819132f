// Package sqlstore implements internal/store's SessionStore and
// ActionLogStore against SQLite, using the pure-Go modernc.org/sqlite
// driver and pressly/goose/v3 for embedded-migration schema management.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/ametel01/claw-browser-automation/internal/store"
)

// DB wraps a sql.DB connection to the SQLite state store and implements
// both store.SessionStore and store.ActionLogStore.
type DB struct {
	conn *sql.DB
}

// Open creates a new DB connection and applies all pending migrations.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	migrationsFS, err := fs.Sub(MigrationFS, "migrations")
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations sub-fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, conn, migrationsFS)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create migration provider: %w", err)
	}

	if _, err := provider.Up(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

func (d *DB) Close() error { return d.conn.Close() }

// Conn returns the underlying *sql.DB for callers that need direct access.
func (d *DB) Conn() *sql.DB { return d.conn }

const sessionColumns = `id, profile, status, snapshot, created_at, updated_at`

func scanSession(scanner interface{ Scan(...any) error }) (store.SessionRecord, error) {
	var rec store.SessionRecord
	var status string
	var createdAt, updatedAt string
	if err := scanner.Scan(&rec.ID, &rec.Profile, &status, &rec.Snapshot, &createdAt, &updatedAt); err != nil {
		return store.SessionRecord{}, err
	}
	rec.Status = store.Status(status)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return rec, nil
}

func (d *DB) Create(rec store.SessionRecord) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if rec.Status == "" {
		rec.Status = store.StatusActive
	}
	_, err := d.conn.Exec(
		`INSERT INTO sessions (id, profile, status, snapshot, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Profile, string(rec.Status), rec.Snapshot, now, now,
	)
	if err != nil {
		return fmt.Errorf("create session %s: %w", rec.ID, err)
	}
	return nil
}

func (d *DB) Get(id string) (store.SessionRecord, bool, error) {
	row := d.conn.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	rec, err := scanSession(row)
	if err == sql.ErrNoRows {
		return store.SessionRecord{}, false, nil
	}
	if err != nil {
		return store.SessionRecord{}, false, fmt.Errorf("get session %s: %w", id, err)
	}
	return rec, true, nil
}

func (d *DB) UpdateStatus(id string, status store.Status) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := d.conn.Exec(`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`, string(status), now, id)
	if err != nil {
		return fmt.Errorf("update session status %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

func (d *DB) SaveSnapshot(id string, snapshot []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := d.conn.Exec(`UPDATE sessions SET snapshot = ?, updated_at = ? WHERE id = ?`, snapshot, now, id)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

func (d *DB) ListByStatus(status store.Status) ([]store.SessionRecord, error) {
	rows, err := d.conn.Query(`SELECT `+sessionColumns+` FROM sessions WHERE status = ? ORDER BY created_at ASC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list sessions by status: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []store.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) SuspendAll() error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := d.conn.Exec(`UPDATE sessions SET status = ?, updated_at = ? WHERE status = ?`,
		string(store.StatusSuspended), now, string(store.StatusActive))
	if err != nil {
		return fmt.Errorf("suspend all sessions: %w", err)
	}
	return nil
}

func (d *DB) CloseAll() error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := d.conn.Exec(`UPDATE sessions SET status = ?, updated_at = ? WHERE status != ?`,
		string(store.StatusClosed), now, string(store.StatusClosed))
	if err != nil {
		return fmt.Errorf("close all sessions: %w", err)
	}
	return nil
}

const actionLogColumns = `id, session_id, action, selector, input, result, screenshot_path, duration_ms, retries, ok, created_at`

func scanActionLog(scanner interface{ Scan(...any) error }) (store.ActionLogEntry, error) {
	var e store.ActionLogEntry
	var selector, screenshotPath sql.NullString
	var ok int
	var createdAt string
	if err := scanner.Scan(&e.ID, &e.SessionID, &e.Action, &selector, &e.Input, &e.Result, &screenshotPath, &e.DurationMs, &e.Retries, &ok, &createdAt); err != nil {
		return store.ActionLogEntry{}, err
	}
	e.Selector = selector.String
	e.ScreenshotPath = screenshotPath.String
	e.OK = ok == 1
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return e, nil
}

func (d *DB) Append(entry store.ActionLogEntry) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	okInt := 0
	if entry.OK {
		okInt = 1
	}
	res, err := d.conn.Exec(
		`INSERT INTO action_log (session_id, action, selector, input, result, screenshot_path, duration_ms, retries, ok, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID, entry.Action, entry.Selector, entry.Input, entry.Result, entry.ScreenshotPath, entry.DurationMs, entry.Retries, okInt, now,
	)
	if err != nil {
		return 0, fmt.Errorf("append action log: %w", err)
	}
	return res.LastInsertId()
}

func (d *DB) BySession(sessionID string, limit int) ([]store.ActionLogEntry, error) {
	rows, err := d.conn.Query(
		`SELECT `+actionLogColumns+` FROM action_log WHERE session_id = ? ORDER BY created_at DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("action log by session: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return scanActionLogRows(rows)
}

func (d *DB) Recent(limit int) ([]store.ActionLogEntry, error) {
	rows, err := d.conn.Query(`SELECT `+actionLogColumns+` FROM action_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent action log: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return scanActionLogRows(rows)
}

func (d *DB) CountBySession(sessionID string) (int, error) {
	var count int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM action_log WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count action log by session: %w", err)
	}
	return count, nil
}

func (d *DB) FailuresBySession(sessionID string, limit int) ([]store.ActionLogEntry, error) {
	rows, err := d.conn.Query(
		`SELECT `+actionLogColumns+` FROM action_log WHERE session_id = ? AND ok = 0 ORDER BY created_at DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failures by session: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return scanActionLogRows(rows)
}

func scanActionLogRows(rows *sql.Rows) ([]store.ActionLogEntry, error) {
	var out []store.ActionLogEntry
	for rows.Next() {
		e, err := scanActionLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
