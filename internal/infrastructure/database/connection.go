package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB is the store handle shared by the repositories. It is opened once in
// main and closed at shutdown.
type DB struct {
	sql     *sql.DB
	pool    *pgxpool.Pool
	dialect Dialect
}

// Open connects to url and applies pending migrations. postgres:// and
// postgresql:// URLs go to PostgreSQL; sqlite://path or a bare path opens a
// SQLite file on disk.
func Open(ctx context.Context, url string, logger *slog.Logger) (*DB, error) {
	logger = logger.With("component", "database")
	if isPostgres(url) {
		return openPostgres(ctx, url, logger)
	}
	return openSQLite(ctx, strings.TrimPrefix(url, "sqlite://"), logger)
}

func isPostgres(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// NewPool creates a pgx connection pool for PostgreSQL.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func openPostgres(ctx context.Context, url string, logger *slog.Logger) (*DB, error) {
	pool, err := NewPool(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	// Closing a *sql.DB from OpenDBFromPool leaves the pool open.
	if err := RunMigrations(stdlib.OpenDBFromPool(pool), DialectPostgres, logger); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("✅ PostgreSQL database connected")
	return &DB{sql: stdlib.OpenDBFromPool(pool), pool: pool, dialect: DialectPostgres}, nil
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// openSQLite opens path, recreating the file when it is corrupt. Any other
// open failure, such as a lock held by another process, is returned as is.
func openSQLite(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	_, statErr := os.Stat(path)
	existed := statErr == nil

	db, err := probeSQLite(ctx, path)
	if err != nil {
		if !existed || !isCorrupt(err) {
			return nil, err
		}
		logger.Warn("⚠️ database file is corrupt, recreating it", "path", path, "error", err)
		if err := removeSQLiteFiles(path); err != nil {
			return nil, err
		}
		if db, err = probeSQLite(ctx, path); err != nil {
			return nil, err
		}
	}

	migrator, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite for migrations: %w", err)
	}
	if err := RunMigrations(migrator, DialectSQLite, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("✅ SQLite database ready", "path", path)
	return &DB{sql: db, dialect: DialectSQLite}, nil
}

var errCorrupt = errors.New("integrity check failed")

func isCorrupt(err error) bool {
	if errors.Is(err, errCorrupt) {
		return true
	}
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	// Extended result codes keep the primary code in the low byte.
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
		return true
	}
	return false
}

func probeSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; serializes statements on the file.
	db.SetMaxOpenConns(1)

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		db.Close()
		return nil, fmt.Errorf("probe sqlite: %w", err)
	}
	if result != "ok" {
		db.Close()
		return nil, fmt.Errorf("probe sqlite: %w: %s", errCorrupt, result)
	}
	return db, nil
}

func removeSQLiteFiles(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

func (d *DB) Dialect() Dialect { return d.dialect }

func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) Close() error {
	err := d.sql.Close()
	if d.pool != nil {
		d.pool.Close()
	}
	return err
}

// rebind turns ? placeholders into $n for PostgreSQL.
func (d *DB) rebind(query string) string {
	if d.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
