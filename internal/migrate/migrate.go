// Package migrate applies the embedded SQL migrations to the destination
// database.
//
// Several strategies can be configured. They are tried in order and the
// first one that succeeds wins:
//
//   - rpc: sends the Up sections to a database function (exec_sql) through
//     the PostgREST API, for hosted projects without direct database access.
//   - direct: runs goose over a direct PostgreSQL connection, recording
//     applied versions in goose's version table.
//
// Migration SQL is written to be idempotent (IF NOT EXISTS) because the rpc
// strategy keeps no version table.
package migrate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

//go:embed sql/*.sql
var embedded embed.FS

// FS holds the migration files at its root.
var FS fs.FS = mustSub(embedded, "sql")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// ErrNotFound is returned by Select for an unknown migration name.
var ErrNotFound = errors.New("migration not found")

// Migration is one SQL file.
type Migration struct {
	Name string // file name, e.g. "002_create_autorizacoes_uniao.sql"
	SQL  string
}

// Up returns the statements of the "-- +goose Up" section, or the whole file
// when it has no goose annotations.
func (m Migration) Up() string {
	var b strings.Builder
	inUp, annotated := false, false
	for _, line := range strings.SplitAfter(m.SQL, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-- +goose") {
			annotated = true
			switch strings.TrimSpace(strings.TrimPrefix(trimmed, "-- +goose")) {
			case "Up":
				inUp = true
			case "Down":
				inUp = false
			}
			continue
		}
		if inUp {
			b.WriteString(line)
		}
	}
	if !annotated {
		return strings.TrimSpace(m.SQL)
	}
	return strings.TrimSpace(b.String())
}

// All returns the embedded migrations sorted by name.
func All() ([]Migration, error) {
	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		b, err := fs.ReadFile(FS, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, Migration{Name: name, SQL: string(b)})
	}
	return out, nil
}

// Select returns all migrations, or only the one whose file name matches
// the base name of name.
func Select(name string) ([]Migration, error) {
	all, err := All()
	if err != nil || name == "" {
		return all, err
	}
	base := path.Base(filepath.ToSlash(name))
	for _, m := range all {
		if m.Name == base {
			return []Migration{m}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, base)
}

// Strategy applies migrations one way.
type Strategy interface {
	Name() string
	Apply(ctx context.Context, ms []Migration) error
}

// Attempt is the outcome of one strategy.
type Attempt struct {
	Strategy string
	Err      error
	Duration time.Duration
}

// Result lists every attempt in order. Winner is empty when all failed.
type Result struct {
	Winner   string
	Attempts []Attempt
}

// Apply tries each strategy in order until one succeeds. The error joins
// every strategy's failure when none does.
func Apply(ctx context.Context, strategies []Strategy, ms []Migration, log *slog.Logger) (Result, error) {
	if log == nil {
		log = slog.Default()
	}
	var res Result
	if len(ms) == 0 {
		return res, errors.New("no migrations to apply")
	}
	if len(strategies) == 0 {
		return res, errors.New("no migration strategy configured")
	}

	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}

	var errs []error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		start := time.Now()
		err := s.Apply(ctx, ms)
		res.Attempts = append(res.Attempts, Attempt{Strategy: s.Name(), Err: err, Duration: time.Since(start)})

		if err == nil {
			res.Winner = s.Name()
			log.Info("migrations applied", "strategy", s.Name(), "migrations", names, "duration", time.Since(start))
			return res, nil
		}
		log.Warn("migration strategy failed", "strategy", s.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return res, fmt.Errorf("apply migrations: %w", errors.Join(errs...))
}
