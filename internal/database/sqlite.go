package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pedit/internal/database/migrations"
	"pedit/internal/edit"
	"pedit/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteHistory implements the History interface using SQLite.
type SQLiteHistory struct {
	db   *sql.DB
	path string
}

// NewSQLiteHistory opens the database at path and migrates it to the latest schema.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &SQLiteHistory{db: db, path: path}, nil
}

// NewSQLiteHistoryFromDB wraps an existing database connection.
// The caller is responsible for ensuring the schema is up-to-date.
func NewSQLiteHistoryFromDB(db *sql.DB) *SQLiteHistory {
	return &SQLiteHistory{db: db}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

const saveOperationColumns = `id, session_id, path, started_at, finished_at, status,
	modified_count, added_count, deleted_count, archive_version, encrypted, error`

func (s *SQLiteHistory) CreateSaveOperation(sessionID, path string, startedAt time.Time) (*edit.SaveOperation, error) {
	res, err := s.db.ExecContext(context.Background(),
		`INSERT INTO save_operations (session_id, path, started_at, status) VALUES (?, ?, ?, ?)`,
		sessionID, path, startedAt, edit.StatusRunning)
	if err != nil {
		return nil, fmt.Errorf("creating save operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading save operation id: %w", err)
	}
	return &edit.SaveOperation{
		ID:        id,
		SessionID: sessionID,
		Path:      path,
		StartedAt: startedAt,
		Status:    edit.StatusRunning,
	}, nil
}

func (s *SQLiteHistory) FinishSaveOperation(op *edit.SaveOperation, changes []edit.SavedChange) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `UPDATE save_operations
		SET finished_at = ?, status = ?, modified_count = ?, added_count = ?, deleted_count = ?,
			archive_version = ?, encrypted = ?, error = ?
		WHERE id = ?`,
		op.FinishedAt, op.Status, op.Modified, op.Added, op.Deleted,
		op.ArchiveVersion, op.Encrypted, op.Error, op.ID)
	if err != nil {
		return fmt.Errorf("finishing save operation: %w", err)
	}

	for _, c := range changes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO saved_changes (save_operation_id, record_id, category, name) VALUES (?, ?, ?, ?)`,
			op.ID, int64(c.RecordID), string(c.Category), c.Name)
		if err != nil {
			return fmt.Errorf("recording saved change %d: %w", c.RecordID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteHistory) FindSaveOperation(id int64) (*edit.SaveOperation, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT `+saveOperationColumns+` FROM save_operations WHERE id = ?`, id)
	op, err := scanSaveOperation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding save operation: %w", err)
	}
	return op, nil
}

func (s *SQLiteHistory) ListSaveOperations(limit int) ([]*edit.SaveOperation, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT `+saveOperationColumns+` FROM save_operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing save operations: %w", err)
	}
	defer rows.Close()

	var result []*edit.SaveOperation
	for rows.Next() {
		op, err := scanSaveOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning save operation: %w", err)
		}
		result = append(result, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing save operations: %w", err)
	}
	return result, nil
}

func (s *SQLiteHistory) ListSavedChanges(id int64) ([]edit.SavedChange, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT record_id, category, name FROM saved_changes WHERE save_operation_id = ? ORDER BY record_id`, id)
	if err != nil {
		return nil, fmt.Errorf("listing saved changes: %w", err)
	}
	defer rows.Close()

	var result []edit.SavedChange
	for rows.Next() {
		var (
			c        edit.SavedChange
			recordID int64
			category string
		)
		if err := rows.Scan(&recordID, &category, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning saved change: %w", err)
		}
		c.RecordID = model.ID(recordID)
		c.Category = edit.Category(category)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing saved changes: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSaveOperation(row scanner) (*edit.SaveOperation, error) {
	var op edit.SaveOperation
	err := row.Scan(&op.ID, &op.SessionID, &op.Path, &op.StartedAt, &op.FinishedAt, &op.Status,
		&op.Modified, &op.Added, &op.Deleted, &op.ArchiveVersion, &op.Encrypted, &op.Error)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteHistory) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteHistory) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteHistory) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteHistory implements edit.History interface
var _ edit.History = (*SQLiteHistory)(nil)
