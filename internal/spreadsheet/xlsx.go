package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/prof-ramos/planilhas-gov-br/internal/core"
)

// ReadXLSX reads the first worksheet of an Office Open XML workbook. Text cells stay
// text, numeric cells become numbers and numeric cells with a date format become
// times.
func ReadXLSX(path string) (core.RawTable, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return core.RawTable{}, nil
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheet, err)
	}

	r := &xlsxReader{
		f:      f,
		sheet:  sheet,
		styles: make(map[int]bool),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}

	raw := make(core.RawTable, len(rows))
	for i, row := range rows {
		cells := make([]core.Value, len(row))
		for j, s := range row {
			cells[j] = r.cell(j, i, s)
		}
		raw[i] = cells
	}
	return raw, nil
}

type xlsxReader struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool // style id -> is a date format
}

func (r *xlsxReader) cell(col, row int, s string) core.Value {
	if s == "" {
		return core.Null()
	}
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return core.String(s)
	}

	typ, err := r.f.GetCellType(r.sheet, name)
	if err != nil {
		return core.String(s)
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return core.String(s)
	case excelize.CellTypeBool:
		return core.String(strings.ToUpper(strconv.FormatBool(s == "1")))
	case excelize.CellTypeDate:
		if t, ok := core.ParseDate(s); ok {
			return core.Time(t)
		}
		return core.String(s)
	}

	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return core.String(s)
	}
	if r.isDate(name) {
		if t, err := excelize.ExcelDateToTime(num, r.date1904); err == nil {
			return core.Time(t)
		}
	}
	return core.Number(num)
}

func (r *xlsxReader) isDate(cell string) bool {
	idx, err := r.f.GetCellStyle(r.sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := r.styles[idx]; ok {
		return v
	}
	v := false
	if style, err := r.f.GetStyle(idx); err == nil && style != nil {
		v = isDateFormat(style.NumFmt, style.CustomNumFmt)
	}
	r.styles[idx] = v
	return v
}

// isDateFormat reports whether a number format renders dates. Built-in ids 14-22
// are the date and date-time formats; custom formats count when they contain a
// day or year token outside quoted literals and [..] sections.
func isDateFormat(id int, custom *string) bool {
	if id >= 14 && id <= 22 {
		return true
	}
	if custom == nil {
		return false
	}
	var b strings.Builder
	depth, quoted := 0, false
	for _, c := range strings.ToLower(*custom) {
		switch {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[':
			depth++
		case c == ']' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(c)
		}
	}
	f := b.String()
	return strings.ContainsAny(f, "dy")
}
