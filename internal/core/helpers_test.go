package core

import (
	"testing"

	"github.com/JonMunkholm/oesreport/internal/schema"
)

// oesSchema compiles the embedded OES schema with the report display formats.
func oesSchema(t *testing.T) *schema.Schema {
	t.Helper()
	doc, err := schema.Default()
	if err != nil {
		t.Fatalf("schema.Default() error = %v", err)
	}
	s, err := CompileSchema(doc)
	if err != nil {
		t.Fatalf("CompileSchema() error = %v", err)
	}
	return s
}

// validFields returns a complete, valid OES row as text cells.
func validFields() map[string]string {
	return map[string]string{
		"DsgntParticipant":       "A",
		"RprtEntityCd":           "X",
		"RptDate":                "202501",
		"Sp500":                  "Y",
		"OrderType":              "MXXNN",
		"OrderSize":              "250",
		"AvgOrderQty":            "100.5",
		"AvgOrderSize":           "1234.5",
		"ExctdOrderMidPtAvg":     "12.25",
		"PctExctdAtQuotOrBetter": "0.95",
		"PctExctdPI":             "0.5",
		"WghtdAvgPctPI":          "0.0012",
		"AvgEffctvSprdPct":       "0.001",
		"AvgPctQuotSprd":         "0.002",
		"AvgEFQPct":              "0.75",
		"AvgRealSprdPct15sec":    "0.0005",
		"AvgRealSprdPct1min":     "0.0004",
		"WghtdAvgExctnTime":      "12.5",
	}
}

// textRow builds a row from text cells, applying overrides on top of base.
func textRow(number int, base map[string]string, overrides map[string]string) *Row {
	row := NewRow(number)
	for k, v := range base {
		row.Set(k, String(v))
	}
	for k, v := range overrides {
		row.Set(k, String(v))
	}
	return row
}

func diagnosticTexts(entries []Diagnostic) []string {
	out := make([]string, len(entries))
	for i, d := range entries {
		out[i] = d.Text
	}
	return out
}
