// Command migrate applies the embedded SQL migrations to the destination
// database.
//
// Usage:
//
//	migrate [file.sql]
//
// Without an argument every migration is applied. The strategies listed in
// MIGRATE_STRATEGIES are tried in order until one succeeds.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/prof-ramos/planilhas-gov-br/internal/application"
	"github.com/prof-ramos/planilhas-gov-br/internal/config"
	"github.com/prof-ramos/planilhas-gov-br/internal/logging"
	"github.com/prof-ramos/planilhas-gov-br/internal/migrate"
	"github.com/prof-ramos/planilhas-gov-br/internal/sink/rest"
)

func main() {
	if len(os.Args) > 2 {
		application.Usage("migrate", "[file.sql]")
	}

	app, err := application.Start("migrate")
	if err != nil {
		application.Fatal("failed to load configuration", err)
	}

	var name string
	if len(os.Args) == 2 {
		name = os.Args[1]
	}
	err = run(app, name)
	app.Close()
	if err != nil {
		application.Fatal("migrations failed", err)
	}
}

func run(app *application.App, name string) error {
	ms, err := migrate.Select(name)
	if err != nil {
		return err
	}
	strategies, err := buildStrategies(app.Config)
	if err != nil {
		return err
	}

	res, err := migrate.Apply(app.Ctx, strategies, ms, logging.FromContext(app.Ctx))
	if err != nil {
		return err
	}
	fmt.Printf("%d migration(s) applied with the %s strategy\n", len(ms), res.Winner)
	return nil
}

// buildStrategies returns the configured strategies in order, skipping the
// ones whose settings are missing.
func buildStrategies(cfg *config.Config) ([]migrate.Strategy, error) {
	var out []migrate.Strategy
	var missing []string

	for _, name := range cfg.Migrate.Strategies {
		switch strings.ToLower(name) {
		case "rpc":
			client, err := rest.NewClient(cfg.Sink.ToSink())
			if err != nil {
				missing = append(missing, fmt.Sprintf("rpc: %v", err))
				continue
			}
			out = append(out, migrate.RPC{Client: client, Function: cfg.Migrate.RPCFunction})
		case "direct":
			if cfg.Migrate.DirectURL == "" {
				missing = append(missing, "direct: POSTGRES_URL_NON_POOLING is not set")
				continue
			}
			out = append(out, migrate.Direct{DSN: cfg.Migrate.DirectURL})
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no usable migration strategy: %s", strings.Join(missing, "; "))
	}
	return out, nil
}
