package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// readCSV parses delimited text with a header row. Blank lines are skipped.
// Stray quotes are kept as literal text. A line the parser still rejects is
// reported and skipped; its row number is consumed so later rows keep their
// file position.
func readCSV(r io.Reader, opts Options) (*Dataset, error) {
	cr := csv.NewReader(newTextReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	ds := &Dataset{Header: header}
	for number := 1; ; number++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, err
			}
			ds.ParseErrors = append(ds.ParseErrors, quoteError(number, pe))
			continue
		}

		if len(fields) != len(header) {
			ds.ParseErrors = append(ds.ParseErrors, fieldMismatch(number, len(header), len(fields)))
		}
		ds.Rows = append(ds.Rows, buildRow(number, header, fields, opts))
	}

	return ds, nil
}

func quoteError(row int, pe *csv.ParseError) string {
	switch {
	case errors.Is(pe.Err, csv.ErrQuote):
		return fmt.Sprintf("R%d: Quotes MissingQuotes Quoted field unterminated", row)
	case errors.Is(pe.Err, csv.ErrBareQuote):
		return fmt.Sprintf("R%d: Quotes InvalidQuotes Trailing quote on quoted field is malformed", row)
	default:
		return fmt.Sprintf("R%d: Delimiter UndetectableDelimiter %v", row, pe.Err)
	}
}
