// Package artifact writes and reads the files produced by the process command:
// per-file CSVs, the consolidated CSV and JSON, and the error log.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prof-ramos/planilhas-gov-br/internal/core"
)

// File names inside the processed directory.
const (
	ConvertedDirName     = "converted_csvs"
	ConsolidatedCSVName  = "consolidated_data.csv"
	ConsolidatedJSONName = "consolidated_data.json"
	ErrorLogName         = "error_log.txt"
)

// Layout locates the artifacts under a processed directory.
type Layout struct {
	Dir string
}

func (l Layout) ConvertedDir() string     { return filepath.Join(l.Dir, ConvertedDirName) }
func (l Layout) ConsolidatedCSV() string  { return filepath.Join(l.Dir, ConsolidatedCSVName) }
func (l Layout) ConsolidatedJSON() string { return filepath.Join(l.Dir, ConsolidatedJSONName) }
func (l Layout) ErrorLog() string         { return filepath.Join(l.Dir, ErrorLogName) }

// ConvertedCSV is the per-file CSV for a source file stem.
func (l Layout) ConvertedCSV(stem string) string {
	return filepath.Join(l.ConvertedDir(), stem+".csv")
}

// Prepare creates the processed and converted directories.
func (l Layout) Prepare() error {
	if err := os.MkdirAll(l.ConvertedDir(), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// ReadTable loads a consolidated artifact, choosing the format by extension.
func ReadTable(path string) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var t *core.Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		t, err = ReadJSON(f)
	case ".csv":
		t, err = ReadCSV(f)
	default:
		return nil, fmt.Errorf("read %s: unsupported file type %q", path, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// writeFile creates path and hands it to write, closing it afterwards.
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
