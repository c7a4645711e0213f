package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/ammo/internal/core"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const defaultBusyTimeout = 5 * time.Second

// SQLite stores records in a single database file.
type SQLite struct {
	db *sqlx.DB
}

var _ core.Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database file at path.
// It does not create the table; call EnsureSchema for that.
func OpenSQLite(ctx context.Context, path string, busyTimeout time.Duration) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path required")
	}
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", path, busyTimeout.Milliseconds())
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite %s: %w", path, err)
	}

	// Single writer avoids SQLITE_BUSY within one process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to open sqlite %s: %w", path, err)
	}

	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func sqliteCreateTable() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", TableName)
	b.WriteString("\tID INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, name := range core.DataColumns() {
		if isQuantity(name) {
			fmt.Fprintf(&b, ",\n\t%s INTEGER NOT NULL DEFAULT 0 CHECK (%s >= 0)", name, name)
		} else {
			fmt.Fprintf(&b, ",\n\t%s TEXT NOT NULL DEFAULT ''", name)
		}
	}
	b.WriteString("\n)")
	return b.String()
}

var (
	sqliteSelect = fmt.Sprintf("SELECT %s FROM %s ORDER BY ID",
		columnList(core.Columns, false), TableName)

	sqliteInsert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		TableName,
		columnList(core.DataColumns(), false),
		strings.Join(core.DataColumns(), ", :"))
)

// EnsureSchema creates the table if it is missing.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteCreateTable()); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// ResetSchema drops and recreates the table in one transaction.
// Dropping the table also clears its AUTOINCREMENT sequence, so IDs
// restart at 1.
func (s *SQLite) ResetSchema(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+TableName); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqliteCreateTable()); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return tx.Commit()
}

// InsertRecords inserts all records or none.
func (s *SQLite) InsertRecords(ctx context.Context, records []core.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, sqliteInsert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// InsertRecord inserts one record and returns its ID.
func (s *SQLite) InsertRecord(ctx context.Context, rec core.Record) (int64, error) {
	res, err := s.db.NamedExecContext(ctx, sqliteInsert, rec)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	return res.LastInsertId()
}

// Records returns every row ordered by ID.
func (s *SQLite) Records(ctx context.Context) ([]core.Record, error) {
	records := []core.Record{}
	if err := s.db.SelectContext(ctx, &records, sqliteSelect); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return records, nil
}

// Count returns the number of rows.
func (s *SQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+TableName); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
