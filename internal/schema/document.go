// Package schema loads CSVW-style table schema documents and compiles them
// into executable per-column validation rules.
//
// A Document is the raw, declarative form as it appears on disk (JSON or
// YAML). Compile turns it into a Schema: an ordered list of ColumnRule values,
// each carrying a compiled Constraint and a resolved DisplayFormat. A Schema is
// built once per report run and never mutated afterwards.
package schema

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Document is the raw schema document.
// Only the first table is used; additional tables are ignored.
type Document struct {
	Context  string     `json:"@context,omitempty" yaml:"@context,omitempty"`
	Comments StringList `json:"rdfs:comment,omitempty" yaml:"rdfs:comment,omitempty"`
	Dialect  *Dialect   `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Tables   []Table    `json:"tables" yaml:"tables"`
}

// Dialect describes how the data file is laid out. It is informational only;
// ingestion always expects a single header row.
type Dialect struct {
	Header         bool   `json:"header" yaml:"header"`
	HeaderRowCount int    `json:"headerRowCount,omitempty" yaml:"headerRowCount,omitempty"`
	Delimiter      string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
}

// Table wraps a table schema.
type Table struct {
	TableSchema TableSchema `json:"tableSchema" yaml:"tableSchema"`
}

// TableSchema lists the columns and the optional primary key.
type TableSchema struct {
	PrimaryKey StringList `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	Columns    []Column   `json:"columns" yaml:"columns"`
}

// Column is one declared column.
type Column struct {
	Name        string     `json:"name" yaml:"name"`
	Type        string     `json:"type,omitempty" yaml:"type,omitempty"`
	Required    bool       `json:"required,omitempty" yaml:"required,omitempty"`
	Null        StringList `json:"null,omitempty" yaml:"null,omitempty"`
	Datatype    *Datatype  `json:"datatype,omitempty" yaml:"datatype,omitempty"`
	Titles      StringList `json:"titles,omitempty" yaml:"titles,omitempty"`
	Description string     `json:"dc:description,omitempty" yaml:"dc:description,omitempty"`
}

// Datatype carries the base type and format pattern of a column.
// Bounds are carried through for documentation but are not enforced.
type Datatype struct {
	Base             string   `json:"base,omitempty" yaml:"base,omitempty"`
	Format           string   `json:"format,omitempty" yaml:"format,omitempty"`
	Minimum          *float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty" yaml:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty" yaml:"exclusiveMaximum,omitempty"`
}

// Format returns the column's format pattern, or "" when none is declared.
func (c Column) Format() string {
	if c.Datatype == nil {
		return ""
	}
	return c.Datatype.Format
}

// TableSchema returns the first table's schema.
func (d *Document) TableSchema() (*TableSchema, error) {
	if d == nil || len(d.Tables) == 0 {
		return nil, fmt.Errorf("%w: document has no tables", ErrInvalidSchema)
	}
	return &d.Tables[0].TableSchema, nil
}

// StringList accepts either a single string or a list in the source document.
//
// A single string becomes a one-element list. A list is taken verbatim, with
// non-string elements kept as their literal text. Anything else (a number, a
// bool, an object) normalizes to an empty list.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*l = nil
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = StringList{s}
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(StringList, 0, len(raw))
		for _, item := range raw {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				out = append(out, s)
				continue
			}
			out = append(out, string(bytes.TrimSpace(item)))
		}
		*l = out
	default:
		*l = nil
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!str" {
			*l = StringList{node.Value}
		} else {
			*l = nil
		}
	case yaml.SequenceNode:
		out := make(StringList, 0, len(node.Content))
		for _, item := range node.Content {
			out = append(out, item.Value)
		}
		*l = out
	default:
		*l = nil
	}
	return nil
}
