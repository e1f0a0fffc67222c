package artifact

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/prof-ramos/planilhas-gov-br/internal/core"
	"github.com/prof-ramos/planilhas-gov-br/internal/spreadsheet"
)

// WriteCSV writes t with a header row. Null cells are written empty.
func WriteCSV(w io.Writer, t *core.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return err
	}

	record := make([]string, len(t.Columns))
	for i := 0; i < t.RowCount(); i++ {
		for j, c := range t.Columns {
			record[j] = c.Values[i].Text()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes t to path.
func WriteCSVFile(path string, t *core.Table) error {
	return writeFile(path, func(f *os.File) error { return WriteCSV(f, t) })
}

// ReadCSV reads a CSV artifact. Every cell is text; empty cells are null.
// Typing is left to core.Remap.
func ReadCSV(r io.Reader) (*core.Table, error) {
	cr := csv.NewReader(spreadsheet.NewTextReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &core.Table{}, nil
	}
	if err != nil {
		return nil, err
	}

	t := core.NewTable(header...)
	values := make([]core.Value, len(header))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = core.Null()
			if i < len(rec) && rec[i] != "" {
				values[i] = core.String(rec[i])
			}
		}
		t.AppendRow(values...)
	}
	return t, nil
}
