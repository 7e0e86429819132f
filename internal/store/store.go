// Package store defines the persisted-state contracts the runtime depends
// on: session records, the append-only action log, and artifact retention,
// per spec's Persisted state layout. internal/store/sqlstore implements
// these against SQLite via modernc.org/sqlite and pressly/goose/v3;
// internal/store/memstore is an in-memory implementation for tests.
package store

import "time"

// Status is one of the three lifecycle states a persisted session record
// may be in.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusClosed    Status = "closed"
)

// SessionRecord is the persisted shadow of a BrowserSession.
type SessionRecord struct {
	ID        string
	Profile   string
	Status    Status
	Snapshot  []byte // JSON, nullable
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionStore persists BrowserSession lifecycle state.
type SessionStore interface {
	Create(rec SessionRecord) error
	Get(id string) (SessionRecord, bool, error)
	UpdateStatus(id string, status Status) error
	SaveSnapshot(id string, snapshot []byte) error
	ListByStatus(status Status) ([]SessionRecord, error)
	SuspendAll() error
	CloseAll() error
}

// ActionLogEntry is one append-only action-log row.
type ActionLogEntry struct {
	ID             int64
	SessionID      string
	Action         string
	Selector       string // JSON, optional
	Input          []byte // JSON, sanitised/redacted
	Result         []byte // JSON
	ScreenshotPath string
	DurationMs     int64
	Retries        int
	OK             bool
	CreatedAt      time.Time
}

// ActionLogStore persists the append-only action log.
type ActionLogStore interface {
	Append(entry ActionLogEntry) (int64, error)
	BySession(sessionID string, limit int) ([]ActionLogEntry, error)
	Recent(limit int) ([]ActionLogEntry, error)
	CountBySession(sessionID string) (int, error)
	FailuresBySession(sessionID string, limit int) ([]ActionLogEntry, error)
}
