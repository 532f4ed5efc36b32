package core

// validation.go checks every cell of a dataset against its compiled schema.
//
// Validation happens at three levels:
//  1. Header check: the parsed header must have as many fields as the schema
//     has columns
//  2. Cell check: each value is tested against its ColumnRule (presence,
//     nulls, format pattern, numeric round-trip)
//  3. Dataset check: primary key values must be unique across all rows
//
// Nothing here fails. Problems are appended to the run's Log and the value is
// passed through, so the report still shows what the file contained.

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/oesreport/internal/schema"
)

// Sentinels returned by ValidateCell for values that could not be read.
const (
	MissingValue = "missing"
	NullValue    = "null"
)

// keySeparator joins primary key parts into a lookup token. It is the ASCII
// unit separator, which cell text does not contain.
const keySeparator = "\x1f"

// ValidateCell validates one cell and returns its canonical string form.
//
// row and col are the 1-based addresses used in diagnostics. Any problem is
// appended to log; the function itself never fails.
func ValidateCell(log *Log, row, col int, v Value, rule *schema.ColumnRule) string {
	name := rule.Name

	switch v.Kind() {
	case KindAbsent:
		if !rule.HasNullTokens() {
			log.Cellf(row, col, "%s missing", name)
			return MissingValue
		}
		return v.Kind().String()

	case KindNull:
		if !rule.HasNullTokens() {
			log.Cellf(row, col, "%s does not allow nulls", name)
			return NullValue
		}
		return v.Kind().String()

	case KindString:
		s := v.Str()
		if !rule.Constraint.Match(s) {
			blank := ""
			if s == "" {
				blank = "empty - "
			}
			log.Cellf(row, col, "%s '%s' is %snot %s", name, s, blank, rule.Constraint.Description)
		}
		return s

	case KindNumber:
		s := FormatNumber(v.Num())
		if back, err := strconv.ParseFloat(s, 64); err != nil || back != v.Num() {
			log.Cellf(row, col, "%s '%s' not equal to %s, could be an issue", name, s, s)
		}
		if !rule.Constraint.Match(s) {
			log.Cellf(row, col, "%s '%s' does not appear to match %s", name, s, rule.Constraint.PatternText())
		}
		return s

	default:
		return v.Kind().String()
	}
}

// CanonicalRow pairs a row with the canonical form of each of its cells, in
// schema column order.
type CanonicalRow struct {
	Row    *Row
	Values []string
}

// Key returns the canonical values of the given schema positions.
func (c CanonicalRow) Key(positions []int) []string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = c.Values[p]
	}
	return parts
}

// NoHeader is passed as the header count when the input had no header row
// to compare against the schema.
const NoHeader = -1

// ValidateDataset validates every cell of every row and checks the primary
// key for duplicates.
//
// headerCount is the number of fields in the parsed header, or NoHeader. A
// count that differs from the schema is reported once and validation
// continues. Rows are visited in order and columns in schema order, so the
// log reflects input order.
func ValidateDataset(s *schema.Schema, rows []*Row, headerCount int, log *Log) []CanonicalRow {
	if headerCount != NoHeader && headerCount != s.Len() {
		log.General("Mismatched header and columns lengths")
	}

	keyPositions := make([]int, 0, len(s.PrimaryKey))
	for _, name := range s.PrimaryKey {
		if rule, ok := s.Column(name); ok {
			keyPositions = append(keyPositions, rule.Index)
		}
	}
	checkKeys := len(keyPositions) > 0

	firstHolder := make(map[string]int)
	out := make([]CanonicalRow, 0, len(rows))

	for _, row := range rows {
		canon := CanonicalRow{Row: row, Values: make([]string, s.Len())}
		for j := range s.Columns {
			rule := &s.Columns[j]
			canon.Values[j] = ValidateCell(log, row.Number, j+1, row.Get(rule.Name), rule)
		}

		if checkKeys {
			parts := canon.Key(keyPositions)
			token := strings.Join(parts, keySeparator)
			if first, seen := firstHolder[token]; seen {
				log.Duplicate(first, row.Number, strings.Join(parts, ","))
			} else {
				firstHolder[token] = row.Number
			}
		}

		out = append(out, canon)
	}

	return out
}
