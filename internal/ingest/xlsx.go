package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first worksheet. The first non-empty row is the header.
//
// Spreadsheets drop trailing empty cells, so a short row is padded with empty
// text rather than reported. Rows longer than the header are still reported.
func readXLSX(r io.Reader, opts Options) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", ErrInvalidWorkbook, err)
	}

	var ds *Dataset
	number := 0
	for _, fields := range records {
		if isBlank(fields) {
			continue
		}
		if ds == nil {
			ds = &Dataset{Header: fields}
			continue
		}

		number++
		if len(fields) > len(ds.Header) {
			ds.ParseErrors = append(ds.ParseErrors, fieldMismatch(number, len(ds.Header), len(fields)))
		}
		ds.Rows = append(ds.Rows, buildRow(number, ds.Header, pad(fields, len(ds.Header)), opts))
	}

	if ds == nil {
		return nil, ErrEmptyFile
	}
	return ds, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func pad(fields []string, n int) []string {
	if len(fields) >= n {
		return fields
	}
	out := make([]string, n)
	copy(out, fields)
	return out
}
