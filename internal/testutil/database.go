package testutil

import (
	"testing"

	"pedit/internal/database"
)

// NewTestHistory creates an in-memory SQLite history database with the schema applied.
// The database is automatically closed when the test completes.
func NewTestHistory(t *testing.T) *database.SQLiteHistory {
	t.Helper()

	h, err := database.NewSQLiteHistory(":memory:")
	if err != nil {
		t.Fatalf("failed to open history database: %v", err)
	}

	t.Cleanup(func() {
		h.Close()
	})

	return h
}
