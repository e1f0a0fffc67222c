package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prof-ramos/planilhas-gov-br/internal/core"
)

// ReadCSVFile reads a delimited text export as a single sheet.
func ReadCSVFile(path string) (core.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	raw, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

// ReadCSV parses r, detecting the text encoding and whether fields are separated by
// commas or semicolons (the default of spreadsheet editors in pt-BR locales).
func ReadCSV(r io.Reader) (core.RawTable, error) {
	br := bufio.NewReader(NewTextReader(r))

	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(first)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var raw core.RawTable
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		cells := make([]core.Value, len(rec))
		for i, s := range rec {
			cells[i] = parseCell(s)
		}
		raw = append(raw, cells)
	}
	return raw, nil
}

// sniffDelimiter picks ';' when the first line has more semicolons than commas.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}
