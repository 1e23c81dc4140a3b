package archiver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"weibograb/pkg/logger"
	"weibograb/pkg/record"
	"weibograb/pkg/tasks"
	"weibograb/pkg/weibo"
)

// PostResolver resolves one post by its identifiers
type PostResolver interface {
	Resolve(userID, postID string) (*weibo.RawPost, error)
}

// RecordStore persists canonical records
type RecordStore interface {
	Append(rec *record.CanonicalRecord) error
}

// Archiver drains the task queue: each pending URL is resolved,
// normalized (downloading its media along the way), and appended to
// the record store, with the outcome written back to the queue. Tasks
// fail independently; one bad post never stops the run.
type Archiver struct {
	queue      tasks.Queue
	resolver   PostResolver
	normalizer *record.Normalizer
	store      RecordStore
	baseDir    string
	logger     logger.Logger
}

// New creates an Archiver
func New(queue tasks.Queue, resolver PostResolver, normalizer *record.Normalizer, store RecordStore, baseDir string, log logger.Logger) *Archiver {
	if log == nil {
		log = logger.Nop()
	}
	return &Archiver{
		queue:      queue,
		resolver:   resolver,
		normalizer: normalizer,
		store:      store,
		baseDir:    baseDir,
		logger:     log,
	}
}

// Result summarizes one run
type Result struct {
	Processed int
	Succeeded int
	Failed    int
}

// Run processes queued tasks one at a time. With includeAll it revisits
// every task regardless of status, which is how failed tasks get
// retried.
func (a *Archiver) Run(includeAll bool, opts record.Options) (*Result, error) {
	pending, err := a.queue.Pending(includeAll)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	result := &Result{}
	for _, task := range pending {
		result.Processed++
		if err := a.processTask(task.URL, opts); err != nil {
			result.Failed++
			a.logger.ErrorWithFields("task failed", map[string]interface{}{
				"url":   task.URL,
				"error": err.Error(),
			})
			if qerr := a.queue.SetStatus(task.URL, tasks.StatusFailed, err.Error()); qerr != nil {
				a.logger.WithError(qerr).Error("failed to record task failure")
			}
			continue
		}
		result.Succeeded++
		if qerr := a.queue.SetStatus(task.URL, tasks.StatusCompleted, ""); qerr != nil {
			a.logger.WithError(qerr).Error("failed to record task completion")
		}
	}

	a.logger.InfoWithFields("run finished", map[string]interface{}{
		"processed": result.Processed,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})
	return result, nil
}

// processTask runs the pipeline for one URL
func (a *Archiver) processTask(url string, opts record.Options) error {
	userID, postID, ok := weibo.ExtractIDs(url)
	if !ok {
		return fmt.Errorf("unrecognized post url: %s", url)
	}

	log := a.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"post_id": postID,
	})
	log.Info("processing post")

	post, err := a.resolver.Resolve(userID, postID)
	if err != nil {
		return fmt.Errorf("failed to resolve post: %w", err)
	}

	a.saveDebugSnapshot(post, postID)

	rec, err := a.normalizer.Normalize(post, userID, opts)
	if err != nil {
		return fmt.Errorf("failed to normalize post: %w", err)
	}

	if err := a.store.Append(rec); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	log.InfoWithFields("post archived", map[string]interface{}{"bid": rec.Bid})
	return nil
}

// saveDebugSnapshot drops the raw post JSON next to the downloads so a
// surprising record can be diagnosed after the fact. Best effort only.
func (a *Archiver) saveDebugSnapshot(post *weibo.RawPost, postID string) {
	name := post.Bid
	if name == "" {
		name = postID
	}

	dir := filepath.Join(a.baseDir, "debug")
	if err := os.MkdirAll(dir, 0755); err != nil {
		a.logger.WithError(err).Debug("failed to create debug directory")
		return
	}

	data, err := json.MarshalIndent(post, "", "  ")
	if err != nil {
		a.logger.WithError(err).Debug("failed to marshal debug snapshot")
		return
	}

	path := filepath.Join(dir, name+"_data.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		a.logger.WithError(err).Debug("failed to write debug snapshot")
	}
}
