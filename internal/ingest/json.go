package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/JonMunkholm/oesreport/internal/core"
)

// readJSON reads an array of row objects keyed by column name.
//
// Numbers become Number values and null becomes Null. A key that is missing
// from an object leaves that cell absent. JSON rows carry no header, so the
// header length check does not apply to them.
func readJSON(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var objects []map[string]any
	if err := dec.Decode(&objects); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSONRows, err)
	}

	ds := &Dataset{Rows: make([]*core.Row, 0, len(objects))}
	for i, obj := range objects {
		if obj == nil {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrInvalidJSONRows, i)
		}
		row := core.NewRow(i + 1)
		for name, raw := range obj {
			row.Set(name, jsonValue(raw))
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func jsonValue(raw any) core.Value {
	switch v := raw.(type) {
	case nil:
		return core.Null()
	case string:
		return core.String(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return core.Number(f)
		}
		return core.String(v.String())
	case bool:
		return core.String(strconv.FormatBool(v))
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return core.String(fmt.Sprint(v))
		}
		return core.String(string(b))
	}
}
