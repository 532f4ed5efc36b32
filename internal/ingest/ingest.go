// Package ingest turns uploaded data files into rows for the report pipeline.
//
// CSV, XLSX and JSON-rows files are supported. Every reader numbers data rows
// from 1 in file order and reports structural problems (short rows, bad
// quoting) as parser messages rather than failing, so a single broken line
// never hides the rest of the file.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/oesreport/internal/core"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no reader.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("empty file")
	// ErrInvalidWorkbook is returned when an .xlsx file cannot be opened.
	ErrInvalidWorkbook = errors.New("invalid workbook")
	// ErrInvalidJSONRows is returned when a .json file is not an array of objects.
	ErrInvalidJSONRows = errors.New("invalid json rows")
	// ErrFileTooLarge is returned when a file exceeds Options.MaxBytes.
	ErrFileTooLarge = errors.New("file too large")
)

// Options control how cell text becomes values.
type Options struct {
	// DynamicTyping turns numeric text into numbers and empty cells into nulls.
	DynamicTyping bool
	// MaxBytes caps the bytes read from the file. Zero means no limit.
	MaxBytes int64
}

// Dataset is a parsed data file.
type Dataset struct {
	// Header holds the header names, or nil when the format has no header row.
	Header      []string
	Rows        []*core.Row
	ParseErrors []string
}

// Input converts the dataset into pipeline input.
func (d *Dataset) Input() core.Input {
	headerCount := core.NoHeader
	if d.Header != nil {
		headerCount = len(d.Header)
	}
	return core.Input{
		Rows:        d.Rows,
		HeaderCount: headerCount,
		ParseErrors: d.ParseErrors,
	}
}

// Read parses r according to the extension of name.
func Read(name string, r io.Reader, opts Options) (*Dataset, error) {
	if opts.MaxBytes > 0 {
		r = newLimitReader(r, opts.MaxBytes)
	}

	var (
		ds  *Dataset
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv", ".txt":
		ds, err = readCSV(r, opts)
	case ".xlsx":
		ds, err = readXLSX(r, opts)
	case ".json":
		ds, err = readJSON(r)
	default:
		return nil, fmt.Errorf("read %s: %w %q", name, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return ds, nil
}

// Parser adapts Read to the service's parse hook.
func Parser(opts Options) core.ParseFunc {
	return func(name string, r io.Reader) (core.Input, error) {
		ds, err := Read(name, r, opts)
		if err != nil {
			return core.Input{}, err
		}
		return ds.Input(), nil
	}
}

// numericText matches the text dynamic typing treats as a number.
var numericText = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// maxSafeInteger is the largest integer a float64 holds exactly.
const maxSafeInteger = 1<<53 - 1

// cellValue converts one text cell.
func cellValue(text string, opts Options) core.Value {
	if !opts.DynamicTyping {
		return core.String(text)
	}
	if text == "" {
		return core.Null()
	}
	if numericText.MatchString(text) {
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err == nil && f > -maxSafeInteger && f < maxSafeInteger {
			return core.Number(f)
		}
	}
	return core.String(text)
}

// buildRow maps fields onto header names. Fields past the header are dropped;
// header names with no field stay absent.
func buildRow(number int, header, fields []string, opts Options) *core.Row {
	row := core.NewRow(number)
	for i, name := range header {
		if i >= len(fields) {
			break
		}
		row.Set(name, cellValue(fields[i], opts))
	}
	return row
}

func fieldMismatch(row, expected, parsed int) string {
	if parsed < expected {
		return fmt.Sprintf("R%d: FieldMismatch TooFewFields Too few fields: expected %d fields but parsed %d", row, expected, parsed)
	}
	return fmt.Sprintf("R%d: FieldMismatch TooManyFields Too many fields: expected %d fields but parsed %d", row, expected, parsed)
}
