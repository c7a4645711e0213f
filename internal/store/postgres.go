package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/ammo/internal/core"
	"github.com/jackc/pgx/v5"
)

// Postgres stores records in a PostgreSQL table over a single connection.
type Postgres struct {
	conn *pgx.Conn
}

var _ core.Store = (*Postgres)(nil)

// OpenPostgres connects to the database at url.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("postgres connection string required")
	}
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{conn: conn}, nil
}

// Close closes the connection.
func (p *Postgres) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Close(context.Background())
}

func postgresCreateTable() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", TableName)
	b.WriteString("\t\"ID\" BIGSERIAL PRIMARY KEY")
	for _, name := range core.DataColumns() {
		if isQuantity(name) {
			fmt.Fprintf(&b, ",\n\t%q INTEGER NOT NULL DEFAULT 0 CHECK (%q >= 0)", name, name)
		} else {
			fmt.Fprintf(&b, ",\n\t%q TEXT NOT NULL DEFAULT ''", name)
		}
	}
	b.WriteString("\n)")
	return b.String()
}

func postgresInsert() string {
	cols := core.DataColumns()
	params := make([]string, len(cols))
	for i := range cols {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING "ID"`,
		TableName, columnList(cols, true), strings.Join(params, ", "))
}

// dataArgs returns the record's data fields in DataColumns order.
func dataArgs(rec core.Record) []any {
	return []any{
		rec.AmmoType,
		rec.GaugeOrAmmoSize,
		rec.Brand,
		rec.SlugSize,
		rec.QuantityBox,
		rec.QuantityLoose,
		rec.QuantityInMagazine,
		rec.Type,
		rec.Grain,
		rec.FirearmType,
		rec.DateEntered,
	}
}

// EnsureSchema creates the table if it is missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.conn.Exec(ctx, postgresCreateTable()); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// ResetSchema drops and recreates the table in one transaction.
func (p *Postgres) ResetSchema(ctx context.Context) error {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+TableName); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.Exec(ctx, postgresCreateTable()); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return tx.Commit(ctx)
}

// InsertRecords copies all records in one transaction using COPY.
func (p *Postgres) InsertRecords(ctx context.Context, records []core.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{TableName},
		core.DataColumns(),
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			return dataArgs(records[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// InsertRecord inserts one record and returns its ID.
func (p *Postgres) InsertRecord(ctx context.Context, rec core.Record) (int64, error) {
	var id int64
	if err := p.conn.QueryRow(ctx, postgresInsert(), dataArgs(rec)...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	return id, nil
}

// Records returns every row ordered by ID.
func (p *Postgres) Records(ctx context.Context) ([]core.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY "ID"`, columnList(core.Columns, true), TableName)
	rows, err := p.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[core.Record])
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return records, nil
}

// Count returns the number of rows.
func (p *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+TableName).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
