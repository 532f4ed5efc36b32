package core

// sections.go assembles one report section per partition.
//
// A section carries everything a renderer needs and nothing it has to
// compute: title, key labels, optional disclaimer, the diagnostics addressed
// to its rows, and a table of already formatted cells.

import (
	"github.com/JonMunkholm/oesreport/internal/schema"
)

// FormattedCell is one rendered table cell.
type FormattedCell struct {
	Text        string `json:"text"`
	Align       Align  `json:"align"`
	FirstColumn bool   `json:"first_column,omitempty"`
	LastColumn  bool   `json:"last_column,omitempty"`
}

// TableColumn describes one table column for renderers.
type TableColumn struct {
	Name   string `json:"name"`
	Header string `json:"header"`
	Align  Align  `json:"align"`
	Width  int    `json:"width"`
	Format string `json:"format,omitempty"`
}

// TableRow is one formatted data row. Number is the original data row.
type TableRow struct {
	Number int             `json:"number"`
	Cells  []FormattedCell `json:"cells"`
}

// Table is a section's table body.
type Table struct {
	Columns []TableColumn   `json:"columns"`
	Header  []FormattedCell `json:"header"`
	Rows    []TableRow      `json:"rows"`
}

// Widths returns the declared column widths in points.
func (t Table) Widths() []int {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = c.Width
	}
	return widths
}

// Section is the assembled content for one partition.
type Section struct {
	Key                PartitionKey `json:"key"`
	Title              string       `json:"title"`
	Disclaimer         string       `json:"disclaimer,omitempty"`
	Labels             []string     `json:"labels"`
	DiagnosticsHeading string       `json:"diagnostics_heading,omitempty"`
	Diagnostics        []Diagnostic `json:"diagnostics,omitempty"`
	Table              Table        `json:"table"`
}

// ParticipantName returns the expanded participant name of the section.
func (s Section) ParticipantName() string {
	return ParticipantName(s.Key.Participant)
}

// Period returns the section's period as MM/YYYY.
func (s Section) Period() string {
	return FormatPeriod(s.Key.Period)
}

// AssembleSections builds one section per partition, in partition order.
//
// Each diagnostic addressed to a row is attached to the section holding that
// row, in log order. Diagnostics that match no section (file-level messages,
// parser errors for rows that were never produced) are returned separately so
// that none are lost.
func AssembleSections(s *schema.Schema, partitions []*Partition, log *Log) ([]Section, []Diagnostic) {
	owner := make(map[int]int)
	for pi, p := range partitions {
		for _, r := range p.Rows {
			owner[r.Number] = pi
		}
	}

	attached := make([][]Diagnostic, len(partitions))
	var unattached []Diagnostic
	for _, d := range log.Entries() {
		pi, ok := owner[d.Row]
		if !d.Addressed() || !ok {
			unattached = append(unattached, d)
			continue
		}
		attached[pi] = append(attached[pi], d)
	}

	rules := displayRules(s)
	sections := make([]Section, 0, len(partitions))

	for pi, p := range partitions {
		participant := ParticipantName(p.Key.Participant)
		entity := p.Key.Entity

		sec := Section{
			Key:   p.Key,
			Title: ReportTitle,
			Labels: []string{
				"Designated Participant: " + participant,
				"Reporting Entity: " + entity,
				"Month: " + FormatPeriod(p.Key.Period),
			},
			Table: buildTable(p, rules),
		}
		if isSampleData(participant, entity) {
			sec.Disclaimer = Disclaimer
		}
		if len(attached[pi]) > 0 {
			sec.DiagnosticsHeading = DiagnosticsHeading
			sec.Diagnostics = attached[pi]
		}

		sections = append(sections, sec)
	}

	return sections, unattached
}

// displayRules resolves each table column to its schema rule. A column the
// schema does not declare gets a rule carrying the table's own format.
func displayRules(s *schema.Schema) []*schema.ColumnRule {
	rules := make([]*schema.ColumnRule, len(Columns))
	for i, c := range Columns {
		if rule, ok := s.Column(c.Name); ok {
			rules[i] = rule
			continue
		}
		rules[i] = &schema.ColumnRule{Name: c.Name, Index: -1, Display: c.Format}
	}
	return rules
}

func buildTable(p *Partition, rules []*schema.ColumnRule) Table {
	last := len(Columns) - 1
	t := Table{
		Columns: make([]TableColumn, len(Columns)),
		Header:  make([]FormattedCell, len(Columns)),
		Rows:    make([]TableRow, 0, len(p.Rows)),
	}

	for j, c := range Columns {
		t.Columns[j] = TableColumn{
			Name:   c.Name,
			Header: c.Header,
			Align:  c.Align,
			Width:  c.Width,
			Format: rules[j].Display.String(),
		}
		t.Header[j] = FormattedCell{
			Text:        c.Header,
			Align:       AlignCenter,
			FirstColumn: j == 0,
			LastColumn:  j == last,
		}
	}

	for _, row := range p.Rows {
		cells := make([]FormattedCell, len(Columns))
		for j, c := range Columns {
			cells[j] = FormattedCell{
				Text:        FormatCell(row, rules[j]),
				Align:       c.Align,
				FirstColumn: j == 0,
				LastColumn:  j == last,
			}
		}
		t.Rows = append(t.Rows, TableRow{Number: row.Number, Cells: cells})
	}

	return t
}
