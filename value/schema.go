package value

import "fmt"

// Column describes one typed, named slot in a schema. Names compare
// case-insensitively in references; display preserves the stored case.
type Column struct {
	Name     string
	DataType DataType
}

// TableSchema is a non-empty, ordered, position-indexed sequence of
// columns.
type TableSchema struct {
	Columns []Column
}

// NewTableSchema builds a schema from columns. Callers that must honor the
// "non-empty" invariant (e.g. catalog.CreateTable) check Len() themselves;
// this constructor also backs the zero-column base schema a FROM-less
// SELECT evaluates its projection against.
func NewTableSchema(columns ...Column) TableSchema {
	return TableSchema{Columns: columns}
}

// Len returns the number of columns.
func (s TableSchema) Len() int {
	return len(s.Columns)
}

// MatchesAt reports whether column i has the given DataType. Returns false
// for an out-of-bounds index instead of panicking.
func (s TableSchema) MatchesAt(i int, t DataType) bool {
	if i < 0 || i >= len(s.Columns) {
		return false
	}
	return s.Columns[i].DataType == t
}

// ColumnIndex returns the index of the column whose name matches name
// case-insensitively, or -1 if none matches.
func (s TableSchema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if equalFoldASCII(c.Name, name) {
			return i
		}
	}
	return -1
}

// Join concatenates s and other into a new schema, s's columns first.
func (s TableSchema) Join(other TableSchema) TableSchema {
	joined := make([]Column, 0, len(s.Columns)+len(other.Columns))
	joined = append(joined, s.Columns...)
	joined = append(joined, other.Columns...)
	return TableSchema{Columns: joined}
}

// Clone returns a schema with an independent backing array.
func (s TableSchema) Clone() TableSchema {
	cloned := make([]Column, len(s.Columns))
	copy(cloned, s.Columns)
	return TableSchema{Columns: cloned}
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// DataRow is an ordered sequence of Value whose length matches its table's
// schema.
type DataRow struct {
	Values []Value
}

// NewDataRow builds a row from values.
func NewDataRow(values ...Value) DataRow {
	return DataRow{Values: values}
}

// Clone returns a row with an independent backing array.
func (r DataRow) Clone() DataRow {
	cloned := make([]Value, len(r.Values))
	copy(cloned, r.Values)
	return DataRow{Values: cloned}
}

// RelationTable pairs a schema with the rows that conform to it.
type RelationTable struct {
	Schema TableSchema
	Rows   []DataRow
}

// NewRelationTable returns an empty RelationTable for the given schema.
func NewRelationTable(schema TableSchema) *RelationTable {
	return &RelationTable{Schema: schema}
}

// RowConformityError is returned by PushRow when a row doesn't conform to
// the table's schema.
type RowConformityError struct {
	Reason string
}

func (e *RowConformityError) Error() string {
	return e.Reason
}

// PushRow appends row after checking it conforms to the table's schema:
// equal length, and every value's type matches the declared column type.
// Null values are rejected unless the column itself is declared Null,
// which the core grammar never produces — so in practice this rejects all
// null insertion, matching spec.md §3's RelationTable invariant.
func (t *RelationTable) PushRow(row DataRow) error {
	if len(row.Values) != t.Schema.Len() {
		return &RowConformityError{
			Reason: fmt.Sprintf("row has %d values but schema has %d columns", len(row.Values), t.Schema.Len()),
		}
	}
	for i, v := range row.Values {
		if v.Type() != t.Schema.Columns[i].DataType {
			return &RowConformityError{
				Reason: fmt.Sprintf("column %d (%s): expected %s, got %s",
					i, t.Schema.Columns[i].Name, t.Schema.Columns[i].DataType, v.Type()),
			}
		}
	}
	t.Rows = append(t.Rows, row)
	return nil
}
