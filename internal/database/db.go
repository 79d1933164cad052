package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is a connection pool bound to the dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Rebind is shorthand for db.Dialect.Rebind.
func (db *DB) Rebind(query string) string { return db.Dialect.Rebind(query) }

// Options describes where to connect.  Path is only used by SQLite.
type Options struct {
	Driver string
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
	Path   string
}

// Open connects to the configured database and verifies the connection.
func Open(o Options) (*DB, error) {
	d, err := DialectFor(o.Driver)
	if err != nil {
		return nil, err
	}
	if d.Name == "sqlite" {
		return OpenSQLite(o.Path)
	}

	var dsn string
	switch d.Name {
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			Host:     o.Host + ":" + o.Port,
			Path:     "/" + o.Name,
			RawQuery: "sslmode=disable&timezone=UTC",
		}
		if o.Pass != "" {
			u.User = url.UserPassword(o.User, o.Pass)
		} else {
			u.User = url.User(o.User)
		}
		dsn = u.String()
	default:
		auth := o.User
		if o.Pass != "" {
			auth = fmt.Sprintf("%s:%s", o.User, o.Pass)
		}
		// parseTime=true -> DATE/DATETIME -> time.Time | loc=UTC keeps times consistent
		dsn = fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			auth, o.Host, o.Port, o.Name)
	}

	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db, Dialect: d}, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file.  Every
// transaction starts with BEGIN IMMEDIATE so concurrent writers queue on the
// database lock instead of failing at commit time.
func OpenSQLite(path string) (*DB, error) {
	if path == "" {
		path = "data/studio.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open(SQLite.Driver, path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer; one connection keeps lock hand-off inside database/sql
	db.SetMaxOpenConns(1)

	if err := ping(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db, Dialect: SQLite}, nil
}

func ping(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
