package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SheetReader reads the first worksheet of a file as a headerless grid.
type SheetReader interface {
	ReadFirstSheet(ctx context.Context, path string) (RawTable, error)
}

// SheetReaderFunc adapts a function to SheetReader.
type SheetReaderFunc func(ctx context.Context, path string) (RawTable, error)

func (f SheetReaderFunc) ReadFirstSheet(ctx context.Context, path string) (RawTable, error) {
	return f(ctx, path)
}

// Ingestor turns spreadsheet files into normalized tables.
type Ingestor struct {
	Reader    SheetReader
	HeaderMap HeaderMap
	Keywords  []string
	Logger    *slog.Logger
}

// NewIngestor returns an Ingestor with the default header map and keywords.
func NewIngestor(r SheetReader) *Ingestor {
	return &Ingestor{
		Reader:    r,
		HeaderMap: DefaultHeaderMap(),
		Keywords:  DefaultHeaderKeywords,
	}
}

func (in *Ingestor) logger() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.Default()
}

// IngestFile reads and normalizes one file. It never returns an error: read
// failures and panics are reported in FileResult.Error, empty sheets as Skipped.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (res FileResult) {
	start := time.Now()
	res.Path = path
	log := in.logger().With("file", filepath.Base(path))

	defer func() {
		if r := recover(); r != nil {
			res = FileResult{
				Path:  path,
				Error: &ErrorRecord{File: filepath.Base(path), Message: fmt.Sprint(r)},
			}
			log.Error("panic while reading file", "panic", r)
		}
		res.Duration = time.Since(start)
	}()

	raw, err := in.Reader.ReadFirstSheet(ctx, path)
	if err != nil {
		log.Error("file failed", "error", err, "code", MapError(err).Code)
		res.Error = &ErrorRecord{File: filepath.Base(path), Message: err.Error()}
		return res
	}
	if raw.IsEmpty() {
		log.Info("file skipped", "reason", "empty sheet")
		res.Skipped = true
		return res
	}

	headerRow := FindDataStartRow(raw, in.keywords())
	table := buildTable(raw, headerRow)
	if table.IsEmpty() {
		log.Info("file skipped", "reason", "no data rows", "header_row", headerRow)
		res.Skipped = true
		return res
	}

	NormalizeHeaders(table, in.headerMap())

	normalized, err := NormalizeValues(table)
	if err != nil {
		log.Warn("value normalization failed, keeping normalized headers only", "error", err)
		res.Table = table
		return res
	}

	log.Info("file processed",
		"rows", normalized.RowCount(),
		"columns", len(normalized.Columns),
		"header_row", headerRow,
	)
	res.Table = normalized
	res.Normalized = true
	return res
}

// IngestAll ingests paths in order. It stops early only when ctx is cancelled.
func (in *Ingestor) IngestAll(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, 0, len(paths))
	for _, p := range paths {
		if ctx.Err() != nil {
			in.logger().Warn("ingest cancelled", "remaining", len(paths)-len(results))
			break
		}
		results = append(results, in.IngestFile(ctx, p))
	}
	return results
}

func (in *Ingestor) keywords() []string {
	if len(in.Keywords) == 0 {
		return DefaultHeaderKeywords
	}
	return in.Keywords
}

func (in *Ingestor) headerMap() HeaderMap {
	if in.HeaderMap == nil {
		return DefaultHeaderMap()
	}
	return in.HeaderMap
}

// buildTable uses raw[headerRow] as the header and the rows below it as data.
// Blank header cells are named "Unnamed: <index>"; fully blank data rows are
// dropped and short rows padded with null.
func buildTable(raw RawTable, headerRow int) *Table {
	width := raw.Width()
	names := make([]string, width)
	for i := range names {
		var cell Value
		if i < len(raw[headerRow]) {
			cell = raw[headerRow][i]
		}
		name := strings.TrimSpace(cell.Text())
		if cell.IsNull() || name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		names[i] = name
	}

	t := NewTable(names...)
	for _, r := range raw[headerRow+1:] {
		if isBlankRow(r) {
			continue
		}
		t.AppendRow(r...)
	}
	return t
}

func isBlankRow(r []Value) bool {
	for _, v := range r {
		if v.IsNull() {
			continue
		}
		if v.IsString() && strings.TrimSpace(v.Str()) == "" {
			continue
		}
		return false
	}
	return true
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
