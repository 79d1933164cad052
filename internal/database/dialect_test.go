package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y = ?"
	assert.Equal(t, q, MySQL.Rebind(q))
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", Postgres.Rebind(q))
}

func TestForUpdate(t *testing.T) {
	q := "SELECT seats_available FROM classes WHERE class_id = ?"
	assert.Equal(t, q+" FOR UPDATE", MySQL.ForUpdate(q))
	assert.Equal(t, q+" FOR UPDATE", Postgres.ForUpdate(q))
	assert.Equal(t, q, SQLite.ForUpdate(q), "sqlite relies on BEGIN IMMEDIATE")
}

func TestDialectFor(t *testing.T) {
	for in, want := range map[string]string{"": "mysql", "MySQL": "mysql", "pg": "postgres", "sqlite3": "sqlite"} {
		d, err := DialectFor(in)
		require.NoError(t, err)
		assert.Equal(t, want, d.Name)
	}
	_, err := DialectFor("oracle")
	assert.Error(t, err)
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(errors.New("boom")))

	assert.True(t, IsTransient(&mysql.MySQLError{Number: 1213}))
	assert.True(t, IsTransient(&mysql.MySQLError{Number: 1205}))
	assert.True(t, IsTransient(&pq.Error{Code: "40P01"}))
	assert.True(t, IsTransient(&pq.Error{Code: "08006"}))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsTransient(nil))
}

func TestMigrateSQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "studio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db), "migrate must be re-runnable")

	id, err := db.Dialect.InsertID(ctx, db,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`, "user_id",
		"ana", "ana@example.com", "x")
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = db.ExecContext(ctx, `INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		"ana", "other@example.com", "x")
	assert.True(t, IsUniqueViolation(err), "duplicate username: %v", err)

	_, err = db.ExecContext(ctx, `INSERT INTO classes (date, start_time, end_time, location, capacity, seats_available) VALUES ('2030-01-01', '18:00', '19:00', 'Studio A', 2, 3)`)
	assert.Error(t, err, "seats_available above capacity must violate the check constraint")
}
