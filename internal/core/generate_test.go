package core

import (
	"reflect"
	"testing"
)

func TestGenerate_ValidOrderType(t *testing.T) {
	s := oesSchema(t)
	rep := Generate(s, Input{
		Rows:        []*Row{textRow(1, validFields(), nil)},
		HeaderCount: s.Len(),
	})

	if rep.DiagnosticCount() != 0 {
		t.Errorf("DiagnosticCount() = %d, want 0: %q", rep.DiagnosticCount(), diagnosticTexts(rep.Diagnostics))
	}
	if got := rep.Sections[0].Table.Rows[0].Cells[1].Text; got != "M" {
		t.Errorf("OrderType cell = %q, want M", got)
	}
}

func TestGenerate_InvalidMonth(t *testing.T) {
	s := oesSchema(t)
	rep := Generate(s, Input{
		Rows:        []*Row{textRow(1, validFields(), map[string]string{"RptDate": "202513"})},
		HeaderCount: s.Len(),
	})

	if rep.DiagnosticCount() != 1 {
		t.Fatalf("diagnostics = %q, want 1", diagnosticTexts(rep.Diagnostics))
	}
	d := rep.Diagnostics[0]
	if d.Row != 1 || d.Column != 3 {
		t.Errorf("diagnostic addressed to R%dC%d, want R1C3", d.Row, d.Column)
	}
	// The invalid month is still used as the partition key.
	if rep.Sections[0].Key.Period != "202513" {
		t.Errorf("Period = %q, want raw 202513", rep.Sections[0].Key.Period)
	}
	if len(rep.Sections[0].Diagnostics) != 1 {
		t.Errorf("section diagnostics = %d, want 1", len(rep.Sections[0].Diagnostics))
	}
}

func TestGenerate_DuplicateRowsShareSection(t *testing.T) {
	s := oesSchema(t)
	rep := Generate(s, Input{
		Rows: []*Row{
			textRow(1, validFields(), nil),
			textRow(2, validFields(), nil),
		},
		HeaderCount: s.Len(),
	})

	if rep.DiagnosticCount() != 1 {
		t.Fatalf("diagnostics = %q, want exactly 1", diagnosticTexts(rep.Diagnostics))
	}
	if rep.Diagnostics[0].Text != "R1, R2: Duplicate primary key A,X,202501,Y,MXXNN,250" {
		t.Errorf("diagnostic = %q", rep.Diagnostics[0].Text)
	}
	if len(rep.Sections) != 1 || len(rep.Sections[0].Table.Rows) != 2 {
		t.Errorf("both rows should appear in one section")
	}
}

func TestGenerate_TwoPeriods(t *testing.T) {
	s := oesSchema(t)
	rep := Generate(s, Input{
		Rows: []*Row{
			textRow(1, validFields(), nil),
			textRow(2, validFields(), map[string]string{"RptDate": "202502"}),
			textRow(3, validFields(), map[string]string{"OrderSize": "1000"}),
		},
		HeaderCount: s.Len(),
	})

	if len(rep.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(rep.Sections))
	}
	if rep.Sections[0].Key.Period != "202501" || rep.Sections[1].Key.Period != "202502" {
		t.Errorf("section order = %s, %s", rep.Sections[0].Key.Period, rep.Sections[1].Key.Period)
	}
	if n := len(rep.Sections[0].Table.Rows); n != 2 {
		t.Errorf("section 0 rows = %d, want 2", n)
	}
	if n := len(rep.Sections[1].Table.Rows); n != 1 {
		t.Errorf("section 1 rows = %d, want 1", n)
	}
	if rep.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", rep.RowCount)
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	s := oesSchema(t)
	build := func() Input {
		return Input{
			Rows: []*Row{
				textRow(1, validFields(), map[string]string{"Sp500": "maybe"}),
				textRow(2, validFields(), map[string]string{"RptDate": "202502"}),
				textRow(3, validFields(), map[string]string{"Sp500": "maybe"}),
			},
			HeaderCount: 17,
			ParseErrors: []string{"R2: FieldMismatch TooManyFields Too many fields: expected 18 fields but parsed 19"},
		}
	}

	first := Generate(s, build())
	second := Generate(s, build())

	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over identical input produced different reports")
	}
}

func TestGenerate_ParseErrorsComeFirst(t *testing.T) {
	s := oesSchema(t)
	rep := Generate(s, Input{
		Rows:        []*Row{textRow(1, validFields(), map[string]string{"Sp500": "Q"})},
		HeaderCount: s.Len(),
		ParseErrors: []string{"R1: Quotes MissingQuotes Quoted field unterminated"},
	})

	if rep.DiagnosticCount() != 2 {
		t.Fatalf("diagnostics = %q, want 2", diagnosticTexts(rep.Diagnostics))
	}
	if rep.Diagnostics[0].Text != "R1: Quotes MissingQuotes Quoted field unterminated" {
		t.Errorf("first diagnostic = %q, want the parser message", rep.Diagnostics[0].Text)
	}
}
