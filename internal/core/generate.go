package core

import (
	"log/slog"

	"github.com/JonMunkholm/oesreport/internal/schema"
)

// Input is the parsed content of one data file.
type Input struct {
	Rows []*Row
	// HeaderCount is the number of header fields, or NoHeader.
	HeaderCount int
	// ParseErrors are parser messages, surfaced verbatim as diagnostics.
	ParseErrors []string
}

// Report is the result of one run.
type Report struct {
	Sections []Section `json:"sections"`
	// Diagnostics is the complete log in detection order.
	Diagnostics []Diagnostic `json:"diagnostics"`
	// Unattached lists diagnostics that belong to no section.
	Unattached []Diagnostic `json:"unattached,omitempty"`
	RowCount   int          `json:"row_count"`
}

// DiagnosticCount returns the number of diagnostics found in the run.
func (r *Report) DiagnosticCount() int {
	return len(r.Diagnostics)
}

// Generate runs the pipeline over in: parser messages are logged first, then
// every cell is validated, rows are partitioned and sections assembled.
//
// The run is sequential and deterministic. Identical input produces an
// identical Report.
func Generate(s *schema.Schema, in Input) *Report {
	log := NewLog()
	for _, msg := range in.ParseErrors {
		log.AppendExternal(msg)
	}

	ValidateDataset(s, in.Rows, in.HeaderCount, log)
	partitions := PartitionRows(in.Rows, DefaultKeyColumns)
	sections, unattached := AssembleSections(s, partitions, log)

	slog.Debug("report generated",
		"rows", len(in.Rows),
		"sections", len(sections),
		"diagnostics", log.Len(),
	)

	return &Report{
		Sections:    sections,
		Diagnostics: log.Entries(),
		Unattached:  unattached,
		RowCount:    len(in.Rows),
	}
}

// GenerateFromDocument compiles doc and runs Generate. A schema that fails to
// compile aborts the run before any row is looked at.
func GenerateFromDocument(doc *schema.Document, in Input) (*Report, error) {
	s, err := CompileSchema(doc)
	if err != nil {
		return nil, err
	}
	return Generate(s, in), nil
}
