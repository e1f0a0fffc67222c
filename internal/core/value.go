package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which branch of a Value is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// Value is a single spreadsheet cell: null, text, a number or a date.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	tm   time.Time
}

// Null returns the missing value.
func Null() Value { return Value{} }

// String returns a text value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value. NaN is kept as a number but reports IsNull.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Time returns a date/time value.
func Time(t time.Time) Value { return Value{kind: KindTime, tm: t} }

// Kind reports the populated branch.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is missing. NaN counts as missing; infinities do not.
func (v Value) IsNull() bool {
	return v.kind == KindNull || (v.kind == KindNumber && math.IsNaN(v.num))
}

// IsString reports whether v holds text.
func (v Value) IsString() bool { return v.kind == KindString }

// Str returns the text of a string value and "" for anything else.
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.str
}

// Float returns the number of a numeric value.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// TimeValue returns the time of a date value.
func (v Value) TimeValue() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.tm, true
}

// Text renders v the way it is written to flat files.
// Null (and NaN) render as "", integral numbers without a fractional part,
// and times in ISO-8601 form.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return FormatNumber(v.num)
	case KindTime:
		return FormatTime(v.tm)
	default:
		return ""
	}
}

// Equal reports whether two values hold the same branch and content.
// Two NaN numbers are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		if math.IsNaN(v.num) && math.IsNaN(o.num) {
			return true
		}
		return v.num == o.num
	case KindTime:
		return v.tm.Equal(o.tm)
	default:
		return true
	}
}

// Transport returns a value representable in JSON and SQL drivers:
// nil for null, NaN and infinities; string, float64 or an ISO string otherwise.
func (v Value) Transport() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil
		}
		return v.num
	case KindTime:
		return FormatTime(v.tm)
	default:
		return nil
	}
}

// MarshalJSON encodes v for the record-oriented artifact.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Transport())
}

// UnmarshalJSON decodes null, strings, numbers and booleans.
// Booleans become the strings "true"/"false".
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// FromAny converts a decoded scalar to a Value.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case bool:
		return String(strconv.FormatBool(t))
	case time.Time:
		return Time(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return String(t.String())
	default:
		return Null()
	}
}

// FormatNumber renders integral floats without a decimal point.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatTime renders dates as YYYY-MM-DD and anything with a clock part as RFC 3339.
func FormatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

// joinText concatenates the lowercased text of the non-null cells in row.
func joinText(row []Value) string {
	var b strings.Builder
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToLower(v.Text()))
	}
	return b.String()
}
