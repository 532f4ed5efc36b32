package core

import (
	"fmt"
	"testing"

	"github.com/JonMunkholm/oesreport/internal/schema"
)

// benchRows builds n valid rows spread over months and order sizes, with a
// bad OrderType in every tenth row.
func benchRows(n int) []*Row {
	sizes := []string{"0", "250", "1000", "5000", "10000"}
	rows := make([]*Row, n)
	for i := range rows {
		overrides := map[string]string{
			"RptDate":   fmt.Sprintf("2025%02d", i%12+1),
			"OrderSize": sizes[i%len(sizes)],
			"Sp500":     []string{"Y", "N"}[i%2],
		}
		if i%10 == 9 {
			overrides["OrderType"] = "BAD"
		}
		rows[i] = textRow(i+1, validFields(), overrides)
	}
	return rows
}

func benchSchema(b *testing.B) *schema.Schema {
	b.Helper()
	doc, err := schema.Default()
	if err != nil {
		b.Fatal(err)
	}
	s, err := CompileSchema(doc)
	if err != nil {
		b.Fatal(err)
	}
	return s
}

// ============================================================================
// Validation Benchmarks
// ============================================================================

// BenchmarkValidateCell benchmarks single cell validation.
func BenchmarkValidateCell(b *testing.B) {
	s := benchSchema(b)
	cases := []struct {
		name   string
		column string
		value  Value
	}{
		{"enum_valid", "OrderType", String("MXXNN")},
		{"enum_invalid", "OrderType", String("BAD")},
		{"decimal_valid", "AvgOrderSize", String("1234.5")},
		{"decimal_number", "AvgOrderSize", Number(1234.5)},
		{"period", "RptDate", String("202501")},
		{"absent", "Sp500", Absent()},
	}

	for _, c := range cases {
		rule, _ := s.Column(c.column)
		b.Run(c.name, func(b *testing.B) {
			log := NewLog()
			for i := 0; i < b.N; i++ {
				ValidateCell(log, 1, 1, c.value, rule)
			}
		})
	}
}

// BenchmarkValidateDataset benchmarks full dataset validation including the
// duplicate key check.
func BenchmarkValidateDataset(b *testing.B) {
	s := benchSchema(b)
	for _, n := range []int{100, 10000} {
		rows := benchRows(n)
		b.Run(fmt.Sprintf("rows_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				ValidateDataset(s, rows, s.Len(), NewLog())
			}
		})
	}
}

// ============================================================================
// Formatting Benchmarks
// ============================================================================

// BenchmarkFormatValue benchmarks display formatting per format kind.
func BenchmarkFormatValue(b *testing.B) {
	s := benchSchema(b)
	cases := []struct {
		column string
		text   string
	}{
		{"AvgOrderSize", "1234567.891"},
		{"PctExctdAtQuotOrBetter", "0.95"},
		{"WghtdAvgPctPI", "0.0012"},
		{"OrderSize", "250"},
		{"RptDate", "202501"},
	}

	for _, c := range cases {
		rule, _ := s.Column(c.column)
		b.Run(c.column, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				FormatValue(c.text, rule.Display)
			}
		})
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

// BenchmarkPartitionRows benchmarks first-seen partitioning.
func BenchmarkPartitionRows(b *testing.B) {
	rows := benchRows(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		PartitionRows(rows, DefaultKeyColumns)
	}
}

// BenchmarkGenerate benchmarks a whole run over a mid-sized file.
func BenchmarkGenerate(b *testing.B) {
	s := benchSchema(b)
	rows := benchRows(5000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Generate(s, Input{Rows: rows, HeaderCount: s.Len()})
	}
}

// ============================================================================
// Parallel Benchmarks
// ============================================================================

// BenchmarkGenerateParallel runs independent reports concurrently, as the
// service does for simultaneous uploads.
func BenchmarkGenerateParallel(b *testing.B) {
	s := benchSchema(b)
	rows := benchRows(500)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			Generate(s, Input{Rows: rows, HeaderCount: s.Len()})
		}
	})
}

// BenchmarkFormatValueParallel benchmarks the shared number printer under
// concurrent use.
func BenchmarkFormatValueParallel(b *testing.B) {
	s := benchSchema(b)
	rule, _ := s.Column("AvgOrderSize")

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			FormatValue("1234567.891", rule.Display)
		}
	})
}
