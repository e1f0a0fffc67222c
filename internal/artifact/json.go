package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prof-ramos/planilhas-gov-br/internal/core"
)

// record is one table row encoded as an object whose keys keep column order.
type record struct {
	names  []string
	values []core.Value
}

func (r record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeRaw(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeRaw(&buf, r.values[i].Transport()); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeRaw writes v without HTML escaping so links keep their '&'.
func encodeRaw(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// WriteJSON writes t as an indented array of row objects. Keys follow column
// order, dates are ISO-8601 and null, NaN and infinities are written as null.
func WriteJSON(w io.Writer, t *core.Table) error {
	names := t.Names()
	rows := make([]record, t.RowCount())
	for i := range rows {
		rows[i] = record{names: names, values: t.Row(i)}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteJSONFile writes t to path.
func WriteJSONFile(path string, t *core.Table) error {
	return writeFile(path, func(f *os.File) error { return WriteJSON(f, t) })
}

// ReadJSON reads an array of row objects. Columns are the union of the keys in
// first-seen order; absent keys are null. Numbers stay numbers.
func ReadJSON(r io.Reader) (*core.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var names []string
	index := make(map[string]int)
	var rows []map[int]core.Value

	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		row := make(map[int]core.Value)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("expected object key, got %v", tok)
			}
			var raw any
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("value of %q: %w", key, err)
			}
			i, seen := index[key]
			if !seen {
				i = len(names)
				index[key] = i
				names = append(names, key)
			}
			row[i] = core.FromAny(raw)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}

	t := core.NewTable(names...)
	values := make([]core.Value, len(names))
	for _, row := range rows {
		for i := range values {
			values[i] = row[i]
		}
		t.AppendRow(values...)
	}
	return t, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
