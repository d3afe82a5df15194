package database

import (
	"fmt"
	"path/filepath"

	"pedit/internal/config"
	"pedit/internal/edit"
)

// HistoryFileName is the name of the save history database inside the data directory.
const HistoryFileName = "history.db"

// NewHistoryFromConfig creates a History implementation based on the database config type.
func NewHistoryFromConfig(cfg config.DatabaseConfig) (edit.History, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return openHistory(filepath.Join(cfg.DataDir, HistoryFileName))
	case "memory":
		return openHistory(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

func openHistory(path string) (edit.History, error) {
	h, err := NewSQLiteHistory(path)
	if err != nil {
		return nil, err
	}
	return h, nil
}
