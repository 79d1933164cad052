package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/studio-booking/internal/database"
)

// newTestDB returns a migrated SQLite database in a temp dir.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "studio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// insertUser adds a student row without bcrypt so tests stay fast.
func insertUser(t *testing.T, db *database.DB, name string) uint64 {
	t.Helper()
	id, err := db.Dialect.InsertID(context.Background(), db,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`, "user_id",
		name, fmt.Sprintf("%s@example.com", name), "x")
	require.NoError(t, err)
	return id
}

// insertClass adds a class with every seat free.
func insertClass(t *testing.T, db *database.DB, day time.Time, start string, capacity int) uint64 {
	t.Helper()
	id, err := db.Dialect.InsertID(context.Background(), db,
		`INSERT INTO classes (date, start_time, end_time, location, capacity, seats_available) VALUES (?, ?, ?, ?, ?, ?)`,
		"class_id", day.Format(DateLayout), start, "19:00", "Studio A", capacity, capacity)
	require.NoError(t, err)
	return id
}
