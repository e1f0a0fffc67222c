package core

// convert.go holds the coercions applied when a consolidated table is shaped for a
// destination. Spreadsheet exports mix typed cells with text such as " 10 ",
// "15/03/2024" or "=\"123\"", so every helper accepts a Value of any kind and
// returns null when nothing sensible can be extracted.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Brazilian sheets write day first, so day-first layouts are tried before ISO.
var (
	twoDigitYearLayouts = []string{
		"2/1/06", "02/01/06", "2-1-06", "02.01.06",
	}
	fourDigitYearLayouts = []string{
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "02.01.2006",
		"2006-01-02", "2006/01/02", "2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05",
		"20060102",
	}
)

// CleanCell removes common spreadsheet artifacts from a text cell:
// surrounding whitespace, the Excel formula prefix (="...") and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// ParseDate parses s with the supported layouts.
func ParseDate(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseNumber parses numeric text after removing spaces and the formula prefix.
func ParseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(CleanCell(s), " ", "")
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ToInteger coerces v to an integral number. Fractions, text that does not parse
// and non-finite values become null.
func ToInteger(v Value) Value {
	var f float64
	switch v.Kind() {
	case KindNumber:
		f, _ = v.Float()
	case KindString:
		var ok bool
		if f, ok = ParseNumber(v.Str()); !ok {
			return Null()
		}
	default:
		return Null()
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return Null()
	}
	return Number(f)
}

// ToNumeric coerces v to a finite number or null.
func ToNumeric(v Value) Value {
	var f float64
	switch v.Kind() {
	case KindNumber:
		f, _ = v.Float()
	case KindString:
		var ok bool
		if f, ok = ParseNumber(v.Str()); !ok {
			return Null()
		}
	default:
		return Null()
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Number(f)
}

// ToText renders numbers and times as text. Strings and null pass through.
func ToText(v Value) Value {
	switch v.Kind() {
	case KindNumber:
		if v.IsNull() {
			return Null()
		}
		return String(v.Text())
	case KindTime:
		return String(v.Text())
	default:
		return v
	}
}

// ToDate parses text dates. Text that is not a date is kept as text so nothing is
// lost; numbers are rendered as text.
func ToDate(v Value) Value {
	switch v.Kind() {
	case KindTime:
		return v
	case KindString:
		if t, ok := ParseDate(v.Str()); ok {
			return Time(t)
		}
		return v
	default:
		return ToText(v)
	}
}

// Scrub turns NaN and infinities into null.
func Scrub(v Value) Value {
	if f, ok := v.Float(); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return Null()
	}
	return v
}

// Coerce applies the conversion for typ.
func Coerce(v Value, typ FieldType) Value {
	switch typ {
	case FieldInteger:
		return ToInteger(v)
	case FieldNumeric:
		return ToNumeric(v)
	case FieldDate:
		return ToDate(v)
	default:
		return ToText(v)
	}
}
