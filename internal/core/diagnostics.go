package core

// diagnostics.go implements the per-run diagnostic log.
//
// Every problem found while validating a dataset is recorded as a Diagnostic:
// a single human-readable line, addressed by 1-based row and (optionally)
// column. The log is append-only. Nothing is deduplicated, reordered or
// removed, so the order of the log is the order of detection.
//
// A Log is created per run and passed explicitly to the validators. It is not
// safe for concurrent writers; a run is single-threaded by construction.

import (
	"fmt"
	"regexp"
	"strconv"
)

// Diagnostic is one validation message.
type Diagnostic struct {
	// Row is the 1-based data row the message is addressed to, or 0 when the
	// message concerns the file as a whole.
	Row int `json:"row,omitempty"`
	// Column is the 1-based schema column, or 0 when not column specific.
	Column int `json:"column,omitempty"`
	// Text is the full rendered line, including its R/C address prefix.
	Text string `json:"text"`
}

func (d Diagnostic) String() string {
	return d.Text
}

// Addressed reports whether the diagnostic names a data row.
func (d Diagnostic) Addressed() bool {
	return d.Row > 0
}

// addressPattern extracts the row (and optional column) address from an
// externally produced message such as "R12: ..." or "R3C4, ...".
var addressPattern = regexp.MustCompile(`^R([0-9]+)(?:C([0-9]+))?[:,]`)

// Log is an ordered, append-only collection of diagnostics.
type Log struct {
	entries []Diagnostic
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Cellf records a message addressed to row i, column j (both 1-based).
func (l *Log) Cellf(i, j int, format string, args ...any) {
	l.entries = append(l.entries, Diagnostic{
		Row:    i,
		Column: j,
		Text:   fmt.Sprintf("R%dC%d: ", i, j) + fmt.Sprintf(format, args...),
	})
}

// Duplicate records a duplicate primary key found on row later, first held
// by row first. The message is addressed to the first row.
func (l *Log) Duplicate(first, later int, key string) {
	l.entries = append(l.entries, Diagnostic{
		Row:  first,
		Text: fmt.Sprintf("R%d, R%d: Duplicate primary key %s", first, later, key),
	})
}

// General records a message that is not addressed to any row.
func (l *Log) General(text string) {
	l.entries = append(l.entries, Diagnostic{Text: text})
}

// AppendExternal records a message produced outside the validators, such as
// a parser error. The row and column are recovered from an "R<row>" or
// "R<row>C<col>" prefix when present; otherwise the message is unaddressed.
func (l *Log) AppendExternal(text string) {
	d := Diagnostic{Text: text}
	if m := addressPattern.FindStringSubmatch(text); m != nil {
		d.Row, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			d.Column, _ = strconv.Atoi(m[2])
		}
	}
	l.entries = append(l.entries, d)
}

// Len returns the number of recorded diagnostics.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the recorded diagnostics in detection order.
func (l *Log) Entries() []Diagnostic {
	out := make([]Diagnostic, len(l.entries))
	copy(out, l.entries)
	return out
}

// Unaddressed returns the diagnostics that do not name a data row.
func (l *Log) Unaddressed() []Diagnostic {
	var out []Diagnostic
	for _, d := range l.entries {
		if !d.Addressed() {
			out = append(out, d)
		}
	}
	return out
}
