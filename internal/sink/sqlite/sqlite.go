// Package sqlite is a sink backend for local SQLite files, using the pure-Go
// modernc.org/sqlite driver. Destination tables and columns are created on
// first use.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/prof-ramos/planilhas-gov-br/internal/sink"
)

// maxParams is SQLITE_MAX_VARIABLE_NUMBER for SQLite 3.32 and later.
const maxParams = 32766

func init() {
	sink.Register("sqlite", New)
}

// Sink writes to a SQLite database.
type Sink struct {
	db *sql.DB
}

// New opens cfg.DSN, a file path or URI understood by modernc.org/sqlite.
func New(_ context.Context, cfg sink.Config) (sink.Sink, error) {
	if cfg.DSN == "" {
		return nil, errors.New("sqlite: missing DSN")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer at a time; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)
	return &Sink{db: db}, nil
}

func (s *Sink) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: %w: %w", sink.ErrUnavailable, err)
	}
	return nil
}

// Insert creates the table and any missing columns, then writes the batch
// in one transaction.
func (s *Sink) Insert(ctx context.Context, collection string, b sink.Batch) error {
	if b.Len() == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	if err := ensureTable(ctx, tx, collection, b.Columns, b.ConflictColumns); err != nil {
		return err
	}
	for _, rows := range sink.Chunk(b.Rows, len(b.Columns), maxParams) {
		query, args := buildInsertSQL(collection, b.Columns, rows, b.ConflictColumns)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("sqlite: insert into %s: %w", collection, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func (s *Sink) Close() error { return s.db.Close() }

// ensureTable creates table with untyped columns, so values keep the storage
// class they were bound with, and adds columns the table lacks.
func ensureTable(ctx context.Context, tx *sql.Tx, table string, columns, conflict []string) error {
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", sqlIdent(table), joinIdentList(columns))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("sqlite: create table %s: %w", table, err)
	}

	existing, err := tableColumns(ctx, tx, table)
	if err != nil {
		return err
	}
	for _, c := range columns {
		if existing[c] {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", sqlIdent(table), sqlIdent(c))
		if _, err := tx.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("sqlite: add column %s.%s: %w", table, c, err)
		}
	}

	if len(conflict) > 0 {
		index := "ux_" + table + "_" + strings.Join(conflict, "_")
		ddl := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
			sqlIdent(index), sqlIdent(table), joinIdentList(conflict))
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("sqlite: create index %s: %w", index, err)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("sqlite: table info %s: %w", table, err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}

func buildInsertSQL(table string, columns []string, rows [][]any, conflict []string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	b.WriteString(joinIdentList(columns))
	b.WriteString(") VALUES ")

	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(rowPlaceholder)
		for j := range columns {
			var v any
			if j < len(row) {
				v = row[j]
			}
			args = append(args, v)
		}
	}

	if len(conflict) > 0 {
		b.WriteString(" ON CONFLICT (")
		b.WriteString(joinIdentList(conflict))
		b.WriteString(") DO NOTHING")
	}
	return b.String(), args
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func joinIdentList(columns []string) string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		out = append(out, sqlIdent(c))
	}
	return strings.Join(out, ", ")
}
