package tasks

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"weibograb/pkg/logger"
)

var csvHeader = []string{"url", "status", "notes", "created_at", "completed_at"}

// CSVQueue keeps tasks in a single CSV file, rewriting the whole file
// on every mutation. Fine for a single writer at the volumes one person
// archives; the file stays hand-editable, which is half the point.
type CSVQueue struct {
	path   string
	tasks  []*Task
	byURL  map[string]*Task
	now    func() time.Time
	logger logger.Logger
}

// NewCSVQueue opens (or creates) the queue file at path
func NewCSVQueue(path string, log logger.Logger) (*CSVQueue, error) {
	if log == nil {
		log = logger.Nop()
	}
	q := &CSVQueue{
		path:   path,
		byURL:  make(map[string]*Task),
		now:    time.Now,
		logger: log,
	}
	if err := q.load(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *CSVQueue) load() error {
	f, err := os.Open(q.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open task file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read task file: %w", err)
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		row[0] = strings.TrimPrefix(row[0], "\uFEFF")
		if i == 0 && row[0] == "url" {
			continue
		}
		task := &Task{URL: row[0]}
		if len(row) > 1 {
			task.Status = Status(row[1])
		}
		if len(row) > 2 {
			task.Notes = row[2]
		}
		if len(row) > 3 && row[3] != "" {
			task.CreatedAt, _ = time.ParseInLocation(TimeLayout, row[3], time.Local)
		}
		if len(row) > 4 && row[4] != "" {
			task.CompletedAt, _ = time.ParseInLocation(TimeLayout, row[4], time.Local)
		}
		if task.Status == "" {
			task.Status = StatusPending
		}
		q.tasks = append(q.tasks, task)
		q.byURL[task.URL] = task
	}
	return nil
}

// save rewrites the whole file atomically
func (q *CSVQueue) save() error {
	dir := filepath.Dir(q.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create task directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tasks-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp task file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString("\uFEFF"); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write task file: %w", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write task header: %w", err)
	}
	for _, task := range q.tasks {
		completedAt := ""
		if task.Status == StatusCompleted && !task.CompletedAt.IsZero() {
			completedAt = task.CompletedAt.Format(TimeLayout)
		}
		row := []string{
			task.URL,
			string(task.Status),
			task.Notes,
			task.CreatedAt.Format(TimeLayout),
			completedAt,
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write task row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush task file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp task file: %w", err)
	}
	if err := os.Rename(tmpName, q.path); err != nil {
		return fmt.Errorf("failed to replace task file: %w", err)
	}
	return nil
}

// Add enqueues a URL, or returns the existing task if already present
func (q *CSVQueue) Add(url string) (*Task, error) {
	if existing, ok := q.byURL[url]; ok {
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
	q.tasks = append(q.tasks, task)
	q.byURL[url] = task
	if err := q.save(); err != nil {
		return nil, err
	}
	return task, nil
}

// Pending returns pending tasks, or every task with includeAll
func (q *CSVQueue) Pending(includeAll bool) ([]*Task, error) {
	var out []*Task
	for _, task := range q.tasks {
		if includeAll || task.Status == StatusPending {
			out = append(out, task)
		}
	}
	return out, nil
}

// SetStatus transitions a task and persists the change
func (q *CSVQueue) SetStatus(url string, status Status, notes string) error {
	task, ok := q.byURL[url]
	if !ok {
		return fmt.Errorf("unknown task: %s", url)
	}
	task.Status = status
	task.Notes = notes
	if status == StatusCompleted {
		task.CompletedAt = q.now()
	} else {
		task.CompletedAt = time.Time{}
	}
	return q.save()
}

// Get looks up one task by URL
func (q *CSVQueue) Get(url string) (*Task, error) {
	task, ok := q.byURL[url]
	if !ok {
		return nil, fmt.Errorf("unknown task: %s", url)
	}
	return task, nil
}

// Close is a no-op; every mutation is already persisted
func (q *CSVQueue) Close() error { return nil }
