package tasks

import "time"

// Status is the lifecycle state of a download task
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// TimeLayout is how timestamps are persisted
const TimeLayout = "2006-01-02 15:04:05"

// Task is one post URL queued for archival
type Task struct {
	URL         string
	Status      Status
	Notes       string
	CreatedAt   time.Time
	CompletedAt time.Time
}

// Queue stores download tasks. Implementations persist every mutation
// immediately so an interrupted run can be resumed.
type Queue interface {
	// Add enqueues a URL as pending. Adding a URL that already exists
	// is a no-op and returns the existing task unchanged.
	Add(url string) (*Task, error)

	// Pending returns tasks in insertion order. With includeAll it
	// returns every task regardless of status, which is how a run
	// retries previously failed ones.
	Pending(includeAll bool) ([]*Task, error)

	// SetStatus transitions a task, replacing its notes. Completed
	// tasks get a completion timestamp; every other transition clears
	// it.
	SetStatus(url string, status Status, notes string) error

	// Get looks up one task by URL
	Get(url string) (*Task, error)

	Close() error
}
