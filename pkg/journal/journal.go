// Package journal records completed harvest runs in a small SQLite database.
// It is purely additive observability: harvest correctness never depends on
// it, and callers treat write failures as warnings.
package journal

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Outcome values for a recorded run.
const (
	OutcomeCompleted = "completed"
	OutcomeLimit     = "limit"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	categories TEXT NOT NULL,
	lang TEXT NOT NULL,
	run_limit INTEGER NOT NULL,
	added INTEGER NOT NULL,
	outcome TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)
`

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx.
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Run is one completed harvest invocation.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Categories []string
	Lang       string
	Limit      int
	Added      int
	Outcome    string
}

// Open opens (creating if needed) the journal database at path and ensures
// the schema exists.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Init applies the schema to the given DB connection.
func Init(db *sql.DB) error {
	for _, s := range strings.Split(schemaSQL, ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init journal schema: %w", err)
		}
	}
	return nil
}

// RecordRun inserts a run and returns its id.
func RecordRun(db DBExecutor, run Run) (int64, error) {
	if run.Outcome != OutcomeCompleted && run.Outcome != OutcomeLimit {
		return 0, fmt.Errorf("invalid outcome %q", run.Outcome)
	}

	res, err := db.Exec(
		`INSERT INTO runs (started_at, finished_at, categories, lang, run_limit, added, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt, run.FinishedAt, strings.Join(run.Categories, ","),
		run.Lang, run.Limit, run.Added, run.Outcome,
	)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	return res.LastInsertId()
}

// RecentRuns returns up to n runs, most recent first.
func RecentRuns(db DBExecutor, n int) ([]Run, error) {
	rows, err := db.Query(
		`SELECT id, started_at, finished_at, categories, lang, run_limit, added, outcome
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var categories string
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &categories, &r.Lang, &r.Limit, &r.Added, &r.Outcome); err != nil {
			return nil, err
		}
		if categories != "" {
			r.Categories = strings.Split(categories, ",")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
