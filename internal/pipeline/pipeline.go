// Package pipeline runs the process command: discover the raw spreadsheets,
// ingest each one, write per-file CSVs, consolidate them and write the
// consolidated artifacts and the error log.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/prof-ramos/planilhas-gov-br/internal/artifact"
	"github.com/prof-ramos/planilhas-gov-br/internal/core"
	"github.com/prof-ramos/planilhas-gov-br/internal/logging"
	"github.com/prof-ramos/planilhas-gov-br/internal/metrics"
	"github.com/prof-ramos/planilhas-gov-br/internal/spreadsheet"
)

const metricsJob = "process"

// Summary reports what a run produced.
type Summary struct {
	core.IngestSummary
	Files        int
	Rows         int // rows in the consolidated table
	Columns      int
	Consolidated bool
	Errors       []core.ErrorRecord
	Duration     time.Duration
}

// Processor ties the ingestor to an output layout.
type Processor struct {
	Ingestor *core.Ingestor
	Layout   artifact.Layout
}

// New returns a Processor reading with spreadsheet.Reader and writing under
// processedDir.
func New(processedDir string) *Processor {
	return &Processor{
		Ingestor: core.NewIngestor(spreadsheet.Reader{}),
		Layout:   artifact.Layout{Dir: processedDir},
	}
}

// Run processes every spreadsheet in rawDir. File-level problems are
// recorded in the error log and never fail the run; the returned error
// means an artifact could not be written.
func (p *Processor) Run(ctx context.Context, rawDir string) (sum Summary, err error) {
	start := time.Now()
	log := logging.WithFields(ctx, "raw_dir", rawDir, "processed_dir", p.Layout.Dir)
	defer func() {
		sum.Duration = time.Since(start)
		metrics.RecordStep(metricsJob, "process", err, sum.Duration)
	}()

	if err := p.Layout.Prepare(); err != nil {
		return sum, err
	}

	paths, err := spreadsheet.Discover(rawDir)
	if err != nil {
		return sum, err
	}
	sum.Files = len(paths)
	if len(paths) == 0 {
		log.Warn("no spreadsheets found")
	}

	in := *p.Ingestor
	if in.Logger == nil {
		in.Logger = logging.FromContext(ctx)
	}

	ingestStart := time.Now()
	var tables []*core.Table
	for i, path := range paths {
		if ctx.Err() != nil {
			log.Warn("processing cancelled", "remaining", len(paths)-i)
			break
		}
		res := in.IngestFile(ctx, path)
		sum.IngestSummary = addResult(sum.IngestSummary, res)

		if res.Error != nil {
			sum.Errors = append(sum.Errors, *res.Error)
			continue
		}
		if res.Table == nil {
			continue
		}

		out := p.Layout.ConvertedCSV(res.Stem())
		if err := artifact.WriteCSVFile(out, res.Table); err != nil {
			// Treated like a read failure: the file is left out of the consolidation.
			name := filepath.Base(res.Path)
			logging.WithFields(ctx, "file", name).Error("file failed", "error", err)
			sum.Errors = append(sum.Errors, core.ErrorRecord{File: name, Message: err.Error()})
			continue
		}
		tables = append(tables, res.Table)
	}
	metrics.RecordStep(metricsJob, "ingest", nil, time.Since(ingestStart))
	metrics.RecordRows(metricsJob, "ingested", sum.IngestSummary.Rows)
	metrics.RecordRows(metricsJob, "failed_files", sum.Failed)

	if len(tables) > 0 {
		combined := core.Consolidate(tables)
		if err := artifact.WriteCSVFile(p.Layout.ConsolidatedCSV(), combined); err != nil {
			return sum, err
		}
		if err := artifact.WriteJSONFile(p.Layout.ConsolidatedJSON(), combined); err != nil {
			return sum, err
		}
		sum.Consolidated = true
		sum.Rows = combined.RowCount()
		sum.Columns = len(combined.Columns)
		log.Info("consolidated data saved",
			"csv", p.Layout.ConsolidatedCSV(),
			"json", p.Layout.ConsolidatedJSON(),
			"rows", sum.Rows,
			"columns", sum.Columns,
		)
	}

	if len(sum.Errors) > 0 {
		if err := artifact.WriteErrorLogFile(p.Layout.ErrorLog(), sum.Errors); err != nil {
			return sum, err
		}
		log.Info("error log saved", "path", p.Layout.ErrorLog(), "files", len(sum.Errors))
	}

	log.Info("processing complete",
		"files", sum.Files,
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"rows", sum.Rows,
	)
	return sum, nil
}

func addResult(s core.IngestSummary, r core.FileResult) core.IngestSummary {
	next := core.Summarize([]core.FileResult{r})
	s.Processed += next.Processed
	s.Skipped += next.Skipped
	s.Failed += next.Failed
	s.Rows += next.Rows
	return s
}

// String renders a one-line summary for command output.
func (s Summary) String() string {
	return fmt.Sprintf("%d files: %d processed, %d skipped, %d failed; %d rows x %d columns consolidated",
		s.Files, s.Processed, s.Skipped, s.Failed, s.Rows, s.Columns)
}
