package core

// value.go defines the tagged cell value and the row type that flow through
// the report pipeline.
//
// Ingestion produces one Row per data line. A Row never changes its Number
// after ingestion, so diagnostics stay addressable after rows are grouped.

import (
	"math"
	"strconv"
	"strings"
)

// ValueKind tags a Value.
type ValueKind int

const (
	// KindAbsent means the row has no entry for the column at all.
	KindAbsent ValueKind = iota
	// KindNull means the entry exists but is an explicit null.
	KindNull
	KindString
	KindNumber
)

func (k ValueKind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

// Value is a single cell: absent, null, a string or a number.
// The zero Value is absent.
type Value struct {
	kind ValueKind
	str  string
	num  float64
}

// Absent returns the absent value.
func Absent() Value { return Value{} }

// Null returns an explicit null.
func Null() Value { return Value{kind: KindNull} }

// String returns a textual value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Kind returns the value's tag.
func (v Value) Kind() ValueKind { return v.kind }

// Str returns the string payload. Only meaningful for KindString.
func (v Value) Str() string { return v.str }

// Num returns the numeric payload. Only meaningful for KindNumber.
func (v Value) Num() float64 { return v.num }

// IsAbsent reports whether the value is absent.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Text returns the value's text form: strings verbatim, numbers in their
// shortest round-trip form, and "" for absent and null values.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return FormatNumber(v.num)
	default:
		return ""
	}
}

// FormatNumber renders f the way ECMAScript's Number#toString does: the
// shortest string that round-trips, plain notation for magnitudes in
// [1e-6, 1e21), exponent notation otherwise, and NaN/Infinity spelled out.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	// Go writes at least two exponent digits (1e-07); trim to 1e-7.
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mant + "e" + sign + digits
}

// Row is one data line keyed by column name.
type Row struct {
	// Number is the 1-based data row number (the header is not counted).
	Number int

	values map[string]Value
}

// NewRow creates an empty row with the given 1-based number.
func NewRow(number int) *Row {
	return &Row{Number: number, values: make(map[string]Value)}
}

// Set stores a value for a column. Setting an absent value removes the entry.
func (r *Row) Set(name string, v Value) {
	if v.kind == KindAbsent {
		delete(r.values, name)
		return
	}
	r.values[name] = v
}

// Get returns the value for a column, or Absent if the row has no entry.
func (r *Row) Get(name string) Value {
	if r.values == nil {
		return Absent()
	}
	return r.values[name]
}

// Has reports whether the row has an entry for the column.
func (r *Row) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Len returns the number of entries in the row.
func (r *Row) Len() int {
	return len(r.values)
}
