package tasks

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"weibograb/pkg/logger"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	url          TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	notes        TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	completed_at TEXT NOT NULL DEFAULT '',
	seq          INTEGER
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

// SQLiteQueue stores tasks in a SQLite database. Unlike the CSV queue
// it updates rows in place, so large queues don't pay a full-file
// rewrite per transition.
type SQLiteQueue struct {
	db     *sql.DB
	now    func() time.Time
	logger logger.Logger
}

// NewSQLiteQueue opens (or creates) the database at path
func NewSQLiteQueue(path string, log logger.Logger) (*SQLiteQueue, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create task directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open task database: %w", err)
	}
	// the queue is single-writer; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize task database: %w", err)
	}

	return &SQLiteQueue{db: db, now: time.Now, logger: log}, nil
}

// Add enqueues a URL, or returns the existing task if already present
func (q *SQLiteQueue) Add(url string) (*Task, error) {
	if existing, err := q.Get(url); err == nil {
		q.logger.DebugWithFields("task already queued", map[string]interface{}{
			"url":    url,
			"status": string(existing.Status),
		})
		return existing, nil
	}

	task := &Task{
		URL:       url,
		Status:    StatusPending,
		CreatedAt: q.now(),
	}
	_, err := q.db.Exec(
		`INSERT INTO tasks (url, status, notes, created_at, seq)
		 VALUES (?, ?, '', ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM tasks))`,
		task.URL, string(task.Status), task.CreatedAt.Format(TimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return task, nil
}

// Pending returns pending tasks in insertion order, or every task with
// includeAll.
func (q *SQLiteQueue) Pending(includeAll bool) ([]*Task, error) {
	query := `SELECT url, status, notes, created_at, completed_at FROM tasks`
	args := []interface{}{}
	if !includeAll {
		query += ` WHERE status = ?`
		args = append(args, string(StatusPending))
	}
	query += ` ORDER BY seq`

	rows, err := q.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// SetStatus transitions a task and persists the change
func (q *SQLiteQueue) SetStatus(url string, status Status, notes string) error {
	completedAt := ""
	if status == StatusCompleted {
		completedAt = q.now().Format(TimeLayout)
	}
	res, err := q.db.Exec(
		`UPDATE tasks SET status = ?, notes = ?, completed_at = ? WHERE url = ?`,
		string(status), notes, completedAt, url,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("unknown task: %s", url)
	}
	return nil
}

// Get looks up one task by URL
func (q *SQLiteQueue) Get(url string) (*Task, error) {
	row := q.db.QueryRow(
		`SELECT url, status, notes, created_at, completed_at FROM tasks WHERE url = ?`, url,
	)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("unknown task: %s", url)
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Close releases the database handle
func (q *SQLiteQueue) Close() error {
	return q.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*Task, error) {
	var task Task
	var status, createdAt, completedAt string
	if err := row.Scan(&task.URL, &status, &task.Notes, &createdAt, &completedAt); err != nil {
		return nil, err
	}
	task.Status = Status(status)
	if createdAt != "" {
		task.CreatedAt, _ = time.ParseInLocation(TimeLayout, createdAt, time.Local)
	}
	if completedAt != "" {
		task.CompletedAt, _ = time.ParseInLocation(TimeLayout, completedAt, time.Local)
	}
	return &task, nil
}
