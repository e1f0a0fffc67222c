// Package postgres is a sink backend writing batches with multi-row INSERT
// statements through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prof-ramos/planilhas-gov-br/internal/sink"
)

// maxParams is the PostgreSQL bind parameter limit per statement.
const maxParams = 65535

func init() {
	sink.Register("postgres", New)
}

// Sink writes to PostgreSQL.
type Sink struct {
	pool *pgxpool.Pool
}

// New builds a pool for cfg.DSN. Connections are opened lazily; call Ping to
// verify the server.
func New(ctx context.Context, cfg sink.Config) (sink.Sink, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres: missing DSN")
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse DSN: %w", err)
	}
	if cfg.Timeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.Timeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, classify(fmt.Errorf("postgres: connect: %w", err))
	}
	return &Sink{pool: pool}, nil
}

func (s *Sink) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return classify(fmt.Errorf("postgres: ping: %w", err))
	}
	return nil
}

// Insert writes every row of b in one transaction, splitting statements to
// stay under the parameter limit.
func (s *Sink) Insert(ctx context.Context, collection string, b sink.Batch) error {
	if b.Len() == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify(fmt.Errorf("postgres: begin: %w", err))
	}
	defer tx.Rollback(ctx)

	for _, rows := range sink.Chunk(b.Rows, len(b.Columns), maxParams) {
		query, args := buildInsertSQL(collection, b.Columns, rows, b.ConflictColumns)
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return classify(fmt.Errorf("postgres: insert into %s: %w", collection, err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classify(fmt.Errorf("postgres: commit: %w", err))
	}
	return nil
}

func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}

// classify marks connection and authentication failures as fatal.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 28: invalid authorization specification.
		if strings.HasPrefix(pgErr.Code, "28") {
			return fmt.Errorf("%w: %w", sink.ErrUnauthorized, err)
		}
		return err
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", sink.ErrUnavailable, err)
	}
	return err
}

func buildInsertSQL(table string, columns []string, rows [][]any, conflictColumns []string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgTableIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

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
			fmt.Fprintf(&b, "$%d", p)
			var v any
			if j < len(row) {
				v = row[j]
			}
			args = append(args, v)
			p++
		}
		b.WriteString(")")
	}

	if len(conflictColumns) > 0 {
		b.WriteString(" ON CONFLICT (")
		for i, c := range conflictColumns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(pgIdent(c))
		}
		b.WriteString(") DO NOTHING")
	}

	b.WriteString(";")
	return b.String(), args
}

func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// pgTableIdent quotes each part of a possibly schema-qualified name.
//
//	"public.autorizacoes_uniao" -> "public"."autorizacoes_uniao"
func pgTableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = pgIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}
