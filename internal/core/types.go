package core

import (
	"time"
)

// FieldType is the destination type of a remapped column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInteger
	FieldNumeric
	FieldDate
)

func (f FieldType) String() string {
	switch f {
	case FieldInteger:
		return "integer"
	case FieldNumeric:
		return "numeric"
	case FieldDate:
		return "date"
	default:
		return "text"
	}
}

// FieldSpec describes one destination column.
type FieldSpec struct {
	Name     string    // Destination column name
	Type     FieldType // Coercion applied by Remap
	Nullable bool      // Informational; every uploaded cell may be null
}

// MergeGroup collapses several source columns into Target. For each row the first
// non-null source wins. A group with one source present is a plain rename.
type MergeGroup struct {
	Target  string
	Sources []string
}

// TableInfo contains display information about a destination table.
type TableInfo struct {
	Key     string   // Collection name in the sink: "autorizacoes_uniao"
	Group   string   // Data source: "Uniao"
	Label   string   // Display name
	Columns []string // Destination column names, derived from FieldSpecs
}

// TableDefinition contains everything Remap needs to shape a consolidated table for
// one destination.
type TableDefinition struct {
	Info        TableInfo
	FieldSpecs  []FieldSpec
	MergeGroups []MergeGroup
	Renames     map[string]string // source name -> destination name
	// DropPattern removes every column whose name contains it. Empty disables it.
	DropPattern string
	// Passthrough skips merges, renames and typing; only the scrub runs.
	Passthrough bool
}

// Spec returns the FieldSpec for a destination column.
func (t TableDefinition) Spec(name string) (FieldSpec, bool) {
	for _, s := range t.FieldSpecs {
		if s.Name == name {
			return s, true
		}
	}
	return FieldSpec{}, false
}

// FileResult is the outcome of ingesting one spreadsheet. Exactly one of Table,
// Error and Skipped is set.
type FileResult struct {
	Path    string
	Table   *Table
	Error   *ErrorRecord
	Skipped bool
	// Normalized is false when value normalization failed and Table only carries
	// normalized headers.
	Normalized bool
	Duration   time.Duration
}

// Stem returns the file name without directory and extension.
func (r FileResult) Stem() string {
	return fileStem(r.Path)
}

// IngestSummary totals a run of IngestAll.
type IngestSummary struct {
	Processed int
	Skipped   int
	Failed    int
	Rows      int
}

// Summarize counts results by outcome.
func Summarize(results []FileResult) IngestSummary {
	var s IngestSummary
	for _, r := range results {
		switch {
		case r.Error != nil:
			s.Failed++
		case r.Skipped:
			s.Skipped++
		case r.Table != nil:
			s.Processed++
			s.Rows += r.Table.RowCount()
		}
	}
	return s
}
