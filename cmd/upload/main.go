// Command upload sends the consolidated data to the configured sink.
//
// Usage:
//
//	upload [file]
//
// file defaults to the consolidated CSV in the processed directory; a .json
// file is read as an array of records. The exit status is 1 only when the
// sink is unreachable or rejects the credentials. Rejected batches are
// reported and counted but do not fail the command.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prof-ramos/planilhas-gov-br/internal/application"
	"github.com/prof-ramos/planilhas-gov-br/internal/artifact"
	"github.com/prof-ramos/planilhas-gov-br/internal/core"
	_ "github.com/prof-ramos/planilhas-gov-br/internal/core/tables" // Register all tables
	"github.com/prof-ramos/planilhas-gov-br/internal/logging"
	"github.com/prof-ramos/planilhas-gov-br/internal/sink"
	_ "github.com/prof-ramos/planilhas-gov-br/internal/sink/all" // Register all sinks
	"github.com/prof-ramos/planilhas-gov-br/internal/upload"
)

func main() {
	if len(os.Args) > 2 {
		application.Usage("upload", "[file]")
	}

	app, err := application.Start("upload")
	if err != nil {
		application.Fatal("failed to load configuration", err)
	}

	err = run(app, os.Args[1:])
	app.Close()
	if err != nil {
		application.Fatal("upload failed", err)
	}
}

func run(app *application.App, args []string) error {
	cfg := app.Config
	ctx := app.Ctx

	path := artifact.Layout{Dir: cfg.Paths.ProcessedDir()}.ConsolidatedCSV()
	if len(args) == 1 {
		path = args[0]
	}

	if err := cfg.Sink.Validate(); err != nil {
		return err
	}

	log := logging.WithFields(ctx, "file", path, "sink", cfg.Sink.Kind, "table", cfg.Sink.Table)

	t, err := artifact.ReadTable(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	log.Info("loaded records", "rows", t.RowCount(), "columns", len(t.Columns))

	def := core.Lookup(cfg.Sink.Table)
	shaped, err := core.Remap(t, def)
	if err != nil {
		return err
	}
	if def.Passthrough {
		log.Debug("no table definition registered, uploading columns as they are", "known_tables", core.Keys())
	}
	for _, ve := range core.ValidateColumns(shaped, def, cfg.Upload.HashColumn) {
		log.Warn("column will be rejected by the destination", "column", ve.Field, "reason", ve.Message)
	}

	s, err := sink.New(ctx, cfg.Sink.ToSink())
	if err != nil {
		return err
	}
	defer s.Close()

	u := upload.New(s)
	u.BatchSize = cfg.Upload.BatchSize
	u.HashColumn = cfg.Upload.HashColumn

	rep, err := u.Upload(ctx, shaped, cfg.Sink.Table)
	printReport(os.Stdout, rep)
	return err
}

// printReport writes the run totals and one line per rejected batch, followed
// by the operator hint when the cause is known.
func printReport(w io.Writer, rep upload.Report) {
	fmt.Fprintf(w, "%s: %d attempted, %d uploaded, %d failed in %d batches\n",
		rep.Collection, rep.Attempted, rep.Succeeded, rep.Failed, rep.Batches)
	for _, be := range rep.Errors {
		fmt.Fprintf(w, "  batch %d (rows %d-%d): [%s] %s\n", be.Batch, be.FirstRow+1, be.FirstRow+be.Rows, be.Code, be.Error)
		if be.Hint != "" {
			fmt.Fprintf(w, "    %s\n", be.Hint)
		}
	}
}
