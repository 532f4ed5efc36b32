package schema

import "fmt"

// ColumnRule is the compiled form of one schema column.
type ColumnRule struct {
	Name        string
	Index       int // 0-based position in the schema
	Required    bool
	NullTokens  []string
	Constraint  Constraint
	Display     DisplayFormat
	Titles      []string
	Description string
}

// HasNullTokens reports whether the column declares any null tokens.
func (r *ColumnRule) HasNullTokens() bool {
	return len(r.NullTokens) > 0
}

// Title returns the first declared title, falling back to the column name.
func (r *ColumnRule) Title() string {
	if len(r.Titles) > 0 && r.Titles[0] != "" {
		return r.Titles[0]
	}
	return r.Name
}

// Schema is an ordered, immutable set of column rules.
type Schema struct {
	Columns    []ColumnRule
	PrimaryKey []string

	byName map[string]int
}

// Column looks up a rule by column name.
func (s *Schema) Column(name string) (*ColumnRule, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return &s.Columns[i], true
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.Columns)
}

// Names returns the column names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i := range s.Columns {
		names[i] = s.Columns[i].Name
	}
	return names
}

// Compile builds a Schema from doc. display assigns a DisplayFormat to
// columns by name; columns not present in it are rendered plain.
//
// Any problem in the document (bad pattern, unknown or duplicated names) is
// returned as an error wrapping ErrInvalidSchema. No rows should be processed
// against a schema that failed to compile.
func Compile(doc *Document, display map[string]DisplayFormat) (*Schema, error) {
	ts, err := doc.TableSchema()
	if err != nil {
		return nil, err
	}
	if len(ts.Columns) == 0 {
		return nil, fmt.Errorf("%w: table has no columns", ErrInvalidSchema)
	}

	s := &Schema{
		Columns: make([]ColumnRule, 0, len(ts.Columns)),
		byName:  make(map[string]int, len(ts.Columns)),
	}

	for i, col := range ts.Columns {
		if col.Name == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrInvalidSchema, i+1)
		}
		if _, dup := s.byName[col.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, col.Name)
		}

		constraint, err := NewConstraint(col.Format())
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: invalid pattern %q: %v",
				ErrInvalidSchema, col.Name, col.Format(), err)
		}

		format, ok := display[col.Name]
		if !ok {
			format = Plain()
		}

		s.byName[col.Name] = len(s.Columns)
		s.Columns = append(s.Columns, ColumnRule{
			Name:        col.Name,
			Index:       i,
			Required:    col.Required,
			NullTokens:  []string(col.Null),
			Constraint:  constraint,
			Display:     format,
			Titles:      []string(col.Titles),
			Description: col.Description,
		})
	}

	for _, name := range ts.PrimaryKey {
		if _, ok := s.byName[name]; !ok {
			return nil, fmt.Errorf("%w: unknown primary key column %q", ErrInvalidSchema, name)
		}
	}
	s.PrimaryKey = []string(ts.PrimaryKey)

	return s, nil
}
