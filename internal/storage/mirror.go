// Package storage keeps a best-effort local SQLite mirror of submitted jobs
// so operators can list past submissions without hitting the remote API.
package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/quantrunner/HQSAgent/internal/env"
)

const (
	// EnvMirrorPath overrides the sqlite database location.
	EnvMirrorPath = "HQS_MIRROR_PATH"

	jobsTable = "jobs"
)

// JobEntry is one mirrored submission row.
type JobEntry struct {
	RefID       string
	JobID       string
	Machine     string
	Shots       int
	Status      string
	ResultCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// JobMirror records job lifecycle snapshots inside SQLite.
type JobMirror struct {
	db *sql.DB
}

var (
	mirrorOnce sync.Once
	mirrorInst *JobMirror
	mirrorErr  error
)

// Default opens (once) the shared mirror at ResolveMirrorPath.
func Default() (*JobMirror, error) {
	mirrorOnce.Do(func() {
		path, err := ResolveMirrorPath()
		if err != nil {
			mirrorErr = err
			return
		}
		mirrorInst, mirrorErr = NewJobMirror(path)
	})
	return mirrorInst, mirrorErr
}

// ResolveMirrorPath returns $HQS_MIRROR_PATH or
// <user-cache-dir>/hqsagent/jobs.sqlite.
func ResolveMirrorPath() (string, error) {
	if override := env.String(EnvMirrorPath, ""); override != "" {
		return override, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user cache dir failed")
	}
	return filepath.Join(base, "hqsagent", "jobs.sqlite"), nil
}

// NewJobMirror opens the SQLite database at path and ensures the jobs table
// exists. The containing directory is created when missing.
func NewJobMirror(path string) (*JobMirror, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "create mirror dir failed")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite job mirror failed")
	}
	if err := configureSQLite(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &JobMirror{db: db}, nil
}

func configureSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "execute sqlite pragma %s failed", stmt)
		}
	}
	db.SetMaxOpenConns(1)
	return nil
}

func ensureSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + jobsTable + ` (
		ref_id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL DEFAULT '',
		machine TEXT NOT NULL DEFAULT '',
		shots INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT '',
		result_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_job_id ON ` + jobsTable + ` (job_id);`
	if _, err := db.Exec(ddl); err != nil {
		return errors.Wrap(err, "ensure jobs schema failed")
	}
	return nil
}

// Upsert writes one lifecycle snapshot, keyed by the client-side reference id
// so repeated updates for the same submission collapse into one row.
func (m *JobMirror) Upsert(entry JobEntry) error {
	if entry.RefID == "" {
		return errors.New("storage: job entry ref id is required")
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	_, err := m.db.Exec(`INSERT INTO `+jobsTable+`
		(ref_id, job_id, machine, shots, status, result_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ref_id) DO UPDATE SET
			job_id = excluded.job_id,
			status = excluded.status,
			result_count = excluded.result_count,
			updated_at = excluded.updated_at`,
		entry.RefID, entry.JobID, entry.Machine, entry.Shots,
		entry.Status, entry.ResultCount, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "upsert job entry failed")
	}
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (m *JobMirror) ListRecent(limit int) ([]JobEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := m.db.Query(`SELECT ref_id, job_id, machine, shots, status, result_count, created_at, updated_at
		FROM `+jobsTable+` ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list job entries failed")
	}
	defer rows.Close()
	var entries []JobEntry
	for rows.Next() {
		var e JobEntry
		if err := rows.Scan(&e.RefID, &e.JobID, &e.Machine, &e.Shots,
			&e.Status, &e.ResultCount, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan job entry failed")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// FindByJobID returns the mirrored entry for a remote job id, or nil.
func (m *JobMirror) FindByJobID(jobID string) (*JobEntry, error) {
	row := m.db.QueryRow(`SELECT ref_id, job_id, machine, shots, status, result_count, created_at, updated_at
		FROM `+jobsTable+` WHERE job_id = ? ORDER BY updated_at DESC LIMIT 1`, jobID)
	var e JobEntry
	err := row.Scan(&e.RefID, &e.JobID, &e.Machine, &e.Shots,
		&e.Status, &e.ResultCount, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find job entry failed")
	}
	return &e, nil
}

// Close releases the underlying database handle.
func (m *JobMirror) Close() error {
	return m.db.Close()
}
