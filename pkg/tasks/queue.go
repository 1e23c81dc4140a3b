package tasks

import (
	"fmt"

	"weibograb/pkg/config"
	"weibograb/pkg/logger"
)

// NewQueue builds the queue backend the configuration selects
func NewQueue(cfg *config.TasksConfig, log logger.Logger) (Queue, error) {
	switch cfg.Backend {
	case "csv":
		return NewCSVQueue(cfg.File, log)
	case "sqlite":
		return NewSQLiteQueue(cfg.File, log)
	default:
		return nil, fmt.Errorf("unknown task queue backend: %s", cfg.Backend)
	}
}
