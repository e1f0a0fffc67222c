// Package mssql is a sink backend for Microsoft SQL Server using go-mssqldb.
//
// SQL Server has no ON CONFLICT clause, so batches with conflict columns are
// written with INSERT ... SELECT ... WHERE NOT EXISTS.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/prof-ramos/planilhas-gov-br/internal/sink"
)

// maxParams stays below SQL Server's hard limit of 2100 parameters.
const maxParams = 2000

// Login failed for user.
const errLoginFailed = 18456

func init() {
	sink.Register("mssql", New)
}

// Sink writes to SQL Server.
type Sink struct {
	db *sql.DB
}

// New validates cfg.DSN and opens a handle. No connection is made until Ping.
func New(_ context.Context, cfg sink.Config) (sink.Sink, error) {
	if cfg.DSN == "" {
		return nil, errors.New("mssql: missing DSN")
	}
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql: dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	return &Sink{db: db}, nil
}

func (s *Sink) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(fmt.Errorf("mssql: ping: %w", err), true)
	}
	return nil
}

// Insert writes the batch in one transaction, chunked by parameter count.
func (s *Sink) Insert(ctx context.Context, collection string, b sink.Batch) error {
	if b.Len() == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("mssql: begin: %w", err), true)
	}
	defer tx.Rollback()

	for _, rows := range sink.Chunk(b.Rows, len(b.Columns), maxParams) {
		var (
			query string
			args  []any
		)
		if len(b.ConflictColumns) > 0 {
			query, args = buildInsertNotExistsSQL(collection, b.Columns, rows, b.ConflictColumns)
		} else {
			query, args = buildInsertSQL(collection, b.Columns, rows)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return classify(fmt.Errorf("mssql: insert into %s: %w", collection, err), false)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("mssql: commit: %w", err), false)
	}
	return nil
}

func (s *Sink) Close() error { return s.db.Close() }

// classify marks login failures as unauthorized. Network failures are
// unavailable; while connecting every non-server error is.
func classify(err error, connecting bool) error {
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		if msErr.Number == errLoginFailed {
			return fmt.Errorf("%w: %w", sink.ErrUnauthorized, err)
		}
		return err
	}
	var netErr net.Error
	if connecting || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", sink.ErrUnavailable, err)
	}
	return err
}

func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" (")
	b.WriteString(joinIdents(columns, ""))
	b.WriteString(") VALUES ")
	args := writeValues(&b, columns, rows)
	b.WriteString(";")
	return b.String(), args
}

func buildInsertNotExistsSQL(table string, columns []string, rows [][]any, conflict []string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" (")
	b.WriteString(joinIdents(columns, ""))
	b.WriteString(") SELECT ")
	b.WriteString(joinIdents(columns, "v."))
	b.WriteString(" FROM (VALUES ")
	args := writeValues(&b, columns, rows)
	b.WriteString(") AS v(")
	b.WriteString(joinIdents(columns, ""))
	b.WriteString(") WHERE NOT EXISTS (SELECT 1 FROM ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" t WHERE ")
	for i, c := range conflict {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString("t." + mssqlIdent(c) + " = v." + mssqlIdent(c))
	}
	b.WriteString(");")
	return b.String(), args
}

// writeValues appends "(@p1, @p2), (@p3, @p4)" and returns the bound values.
func writeValues(b *strings.Builder, columns []string, rows [][]any) []any {
	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "@p%d", p)
			var v any
			if j < len(row) {
				v = row[j]
			}
			args = append(args, v)
			p++
		}
		b.WriteString(")")
	}
	return args
}

func joinIdents(columns []string, prefix string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = prefix + mssqlIdent(c)
	}
	return strings.Join(out, ", ")
}

func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlTableIdent quotes schema-qualified names part by part.
//
//	"dbo.autorizacoes_uniao" -> [dbo].[autorizacoes_uniao]
func mssqlTableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = mssqlIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}
