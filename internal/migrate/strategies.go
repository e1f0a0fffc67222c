package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// DefaultRPCFunction is the database function that executes raw SQL.
const DefaultRPCFunction = "exec_sql"

// RPCCaller calls a database function over HTTP. *rest.Client implements it.
type RPCCaller interface {
	RPC(ctx context.Context, fn string, args any) error
}

// RPC sends all Up sections in one call to Function as {"sql": ...}.
type RPC struct {
	Client   RPCCaller
	Function string
}

func (RPC) Name() string { return "rpc" }

func (r RPC) Apply(ctx context.Context, ms []Migration) error {
	if r.Client == nil {
		return errors.New("rpc client not configured")
	}
	fn := r.Function
	if fn == "" {
		fn = DefaultRPCFunction
	}
	return r.Client.RPC(ctx, fn, map[string]string{"sql": Script(ms)})
}

// Script concatenates the Up sections, each under a file comment.
func Script(ms []Migration) string {
	var b strings.Builder
	for _, m := range ms {
		fmt.Fprintf(&b, "-- File: %s\n%s\n\n", m.Name, m.Up())
	}
	return b.String()
}

// Direct runs goose over a PostgreSQL connection opened with the pgx
// database/sql driver. When a single migration is selected, every migration
// up to its version is applied.
type Direct struct {
	DSN string
}

func (Direct) Name() string { return "direct" }

func (d Direct) Apply(ctx context.Context, ms []Migration) error {
	if d.DSN == "" {
		return errors.New("direct connection string not configured")
	}
	db, err := sql.Open("pgx", d.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, FS)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	if len(ms) == 1 {
		version, err := goose.NumericComponent(ms[0].Name)
		if err != nil {
			return fmt.Errorf("migration version: %w", err)
		}
		_, err = provider.UpTo(ctx, version)
		return err
	}
	_, err = provider.Up(ctx)
	return err
}
