// Command process converts the spreadsheets under <root>/data/raw into
// normalized per-file CSVs and a consolidated CSV/JSON under
// <root>/data/processed.
//
// Usage:
//
//	process [root]
package main

import (
	"fmt"
	"os"

	"github.com/prof-ramos/planilhas-gov-br/internal/application"
	"github.com/prof-ramos/planilhas-gov-br/internal/logging"
	"github.com/prof-ramos/planilhas-gov-br/internal/pipeline"
)

func main() {
	if len(os.Args) > 2 {
		application.Usage("process", "[root]")
	}

	app, err := application.Start("process")
	if err != nil {
		application.Fatal("failed to load configuration", err)
	}

	paths := app.Config.Paths
	if len(os.Args) == 2 {
		paths.Root, paths.Raw, paths.Processed = os.Args[1], "", ""
	}

	log := logging.FromContext(app.Ctx)
	log.Info("processing spreadsheets", "raw_dir", paths.RawDir(), "processed_dir", paths.ProcessedDir())

	sum, err := pipeline.New(paths.ProcessedDir()).Run(app.Ctx, paths.RawDir())
	app.Close()
	if err != nil {
		application.Fatal("processing failed", err)
	}
	fmt.Println(sum)
}
