// Package spreadsheet reads the first worksheet of .xlsx, .xls and .csv files into
// headerless core.RawTable grids.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/prof-ramos/planilhas-gov-br/internal/core"
)

// ErrUnsupported is returned for file extensions no reader handles.
var ErrUnsupported = errors.New("unsupported file type")

// Reader dispatches on the file extension. It implements core.SheetReader.
type Reader struct{}

// ReadFirstSheet reads the first worksheet of path.
func (Reader) ReadFirstSheet(ctx context.Context, path string) (core.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	case ".xls":
		return ReadXLS(path)
	case ".csv":
		return ReadCSVFile(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
}

// Discover lists the spreadsheets in dir: legacy .xls files first, then .xlsx,
// then .csv exports, each group sorted by name.
func Discover(dir string) ([]string, error) {
	var out []string
	for _, pattern := range []string{"*.xls", "*.xlsx", "*.csv"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", pattern, err)
		}
		// Glob already returns matches in lexical order.
		out = append(out, matches...)
	}
	return out, nil
}

var numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// parseCell turns a formatted cell string into a typed value. Empty cells become
// null and plain decimal numbers become numbers. Codes with leading zeros such as
// "00123" stay text.
func parseCell(s string) core.Value {
	t := strings.TrimSpace(s)
	if t == "" {
		return core.Null()
	}
	if !numberPattern.MatchString(t) || hasLeadingZero(t) {
		return core.String(s)
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return core.String(s)
	}
	return core.Number(f)
}

func hasLeadingZero(t string) bool {
	t = strings.TrimLeft(t, "+-")
	return len(t) > 1 && t[0] == '0' && t[1] != '.'
}
