package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = 1

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .bmad) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableCount == 0 {
		return s.freshInstall()
	}

	var version int
	if err := s.db.QueryRow("SELECT version FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("journal schema v%d is newer than this build supports (v%d)", version, currentSchemaVersion)
	}
	return nil
}

func (s *SqlStore) freshInstall() error {
	const schema = `
CREATE TABLE schema_version (version INTEGER NOT NULL);
CREATE TABLE runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	stage TEXT NOT NULL,
	bundle TEXT NOT NULL,
	project TEXT NOT NULL DEFAULT '',
	written INTEGER NOT NULL DEFAULT 0,
	deleted INTEGER NOT NULL DEFAULT 0,
	preserved INTEGER NOT NULL DEFAULT 0,
	outcome TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX idx_runs_project ON runs(project, id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// RecordRun inserts a run. CreatedAt is stamped when unset.
func (s *SqlStore) RecordRun(r *Run) (int64, error) {
	if r.CreatedAt == "" {
		r.CreatedAt = nowUTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO runs (stage, bundle, project, written, deleted, preserved, outcome, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Stage, r.Bundle, r.Project, r.Written, r.Deleted, r.Preserved, r.Outcome, r.Detail, r.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	r.ID = id
	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SqlStore) ListRuns(limit int) ([]*Run, error) {
	return s.queryRuns(
		"SELECT id, stage, bundle, project, written, deleted, preserved, outcome, detail, created_at FROM runs ORDER BY id DESC"+limitClause(limit),
	)
}

// ListRunsByProject returns the most recent runs for one project, newest first.
func (s *SqlStore) ListRunsByProject(project string, limit int) ([]*Run, error) {
	return s.queryRuns(
		"SELECT id, stage, bundle, project, written, deleted, preserved, outcome, detail, created_at FROM runs WHERE project = ? ORDER BY id DESC"+limitClause(limit),
		project,
	)
}

func (s *SqlStore) queryRuns(query string, args ...any) ([]*Run, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Stage, &r.Bundle, &r.Project,
			&r.Written, &r.Deleted, &r.Preserved, &r.Outcome, &r.Detail, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func limitClause(limit int) string {
	if limit > 0 {
		return fmt.Sprintf(" LIMIT %d", limit)
	}
	return ""
}

// Close closes the underlying DB.
func (s *SqlStore) Close() error { return s.db.Close() }

var _ Store = (*SqlStore)(nil)
