package spreadsheet

import (
	"fmt"
	"os"

	"github.com/extrame/xls"

	"github.com/prof-ramos/planilhas-gov-br/internal/core"
)

// ReadXLS reads the first worksheet of a legacy BIFF (.xls) workbook. The format
// only exposes formatted text, so numbers are recovered with parseCell.
func ReadXLS(path string) (core.RawTable, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer fh.Close()

	wb, err := xls.OpenReader(fh, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	if wb.NumSheets() == 0 {
		return core.RawTable{}, nil
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return core.RawTable{}, nil
	}

	var raw core.RawTable
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			raw = append(raw, nil)
			continue
		}
		cells := make([]core.Value, row.LastCol())
		for j := range cells {
			cells[j] = parseCell(row.Col(j))
		}
		raw = append(raw, cells)
	}
	return trimTrailingEmpty(raw), nil
}

// trimTrailingEmpty drops empty rows at the end of the grid.
func trimTrailingEmpty(raw core.RawTable) core.RawTable {
	end := len(raw)
	for end > 0 {
		empty := true
		for _, v := range raw[end-1] {
			if !v.IsNull() {
				empty = false
				break
			}
		}
		if !empty {
			break
		}
		end--
	}
	return raw[:end]
}
