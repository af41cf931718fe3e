// Package catalog implements microbat's in-memory table store: one
// RWMutex-guarded map of table name to table, locked for the duration of a
// single statement and released before the connection goroutine goes back
// to the network to read the next one.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mickamy/microbat/sql"
	"github.com/mickamy/microbat/value"
)

// NotFoundError is returned when a statement names a table the catalog
// doesn't have.
type NotFoundError struct {
	Table string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No such table: %s", e.Table)
}

// AlreadyExistsError is returned by CreateTable when the name is taken.
type AlreadyExistsError struct {
	Table string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("Table already exists: %s", e.Table)
}

// SchemaError is returned by CreateTable for a schema that can't back a
// table, e.g. an empty column list.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("catalog: %s", e.Reason)
}

// Catalog is microbat's entire persistence layer: tables live only in
// process memory and vanish on restart (spec Non-goals: no WAL, no
// on-disk storage).
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*value.RelationTable
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{tables: make(map[string]*value.RelationTable)}
}

// TableNames returns every table name, sorted.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateTable registers a new, empty table under name with the given
// schema. Fails if name is taken or schema has no columns.
func (c *Catalog) CreateTable(name string, schema value.TableSchema) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if schema.Len() == 0 {
		return &SchemaError{Reason: "a table must have at least one column"}
	}
	if _, ok := c.tables[name]; ok {
		return &AlreadyExistsError{Table: name}
	}
	c.tables[name] = value.NewRelationTable(schema)
	return nil
}

func (c *Catalog) lookup(name string) (*value.RelationTable, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, &NotFoundError{Table: name}
	}
	return t, nil
}

// Schema returns the schema of the named table.
func (c *Catalog) Schema(name string) (value.TableSchema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, err := c.lookup(name)
	if err != nil {
		return value.TableSchema{}, err
	}
	return t.Schema, nil
}

// Insert appends one row of already-evaluated values to table name. This
// is a direct catalog operation, not reachable through the SQL grammar
// (the core grammar has no INSERT statement) — it's how the process that
// owns a Catalog loads rows into it.
func (c *Catalog) Insert(name string, values ...value.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.lookup(name)
	if err != nil {
		return err
	}
	return t.PushRow(value.NewDataRow(values...))
}

// Fetch returns a deep clone of every row in table name, in insertion
// order.
func (c *Catalog) Fetch(name string) ([]value.DataRow, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, err := c.lookup(name)
	if err != nil {
		return nil, err
	}
	rows := make([]value.DataRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.Clone()
	}
	return rows, nil
}

// Query evaluates projection against every row of table name and returns
// the resulting RelationTable. The result schema is derived once, from
// each expression's SchemaColumn at its position in projection.
func (c *Catalog) Query(name string, projection []sql.Expression) (*value.RelationTable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, err := c.lookup(name)
	if err != nil {
		return nil, err
	}
	return evalProjection(t.Schema, t.Rows, projection)
}

func evalProjection(schema value.TableSchema, rows []value.DataRow, projection []sql.Expression) (*value.RelationTable, error) {
	resultColumns := make([]value.Column, len(projection))
	for i, expr := range projection {
		col, err := expr.SchemaColumn(schema, i)
		if err != nil {
			return nil, err
		}
		resultColumns[i] = col
	}
	result := value.NewRelationTable(value.NewTableSchema(resultColumns...))
	for _, row := range rows {
		values := make([]value.Value, len(projection))
		for i, expr := range projection {
			v, err := expr.Eval(schema, row)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		if err := result.PushRow(value.NewDataRow(values...)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Result is what executing a statement produces.
type Result struct {
	Columns []value.Column
	Rows    []value.DataRow
}

// crossJoin computes the cartesian product of each named table's schema
// and rows, in FROM-list order. The grammar allows a comma-separated FROM
// list but has no JOIN keyword, so listing more than one table always
// means a cross join of everything in it.
func (c *Catalog) crossJoin(names []string) (value.TableSchema, []value.DataRow, error) {
	schema, err := c.lookup(names[0])
	if err != nil {
		return value.TableSchema{}, nil, err
	}
	joinedSchema := schema.Schema
	joinedRows := make([]value.DataRow, len(schema.Rows))
	copy(joinedRows, schema.Rows)

	for _, name := range names[1:] {
		t, err := c.lookup(name)
		if err != nil {
			return value.TableSchema{}, nil, err
		}
		joinedSchema = joinedSchema.Join(t.Schema)
		var next []value.DataRow
		for _, left := range joinedRows {
			for _, right := range t.Rows {
				combined := make([]value.Value, 0, len(left.Values)+len(right.Values))
				combined = append(combined, left.Values...)
				combined = append(combined, right.Values...)
				next = append(next, value.NewDataRow(combined...))
			}
		}
		joinedRows = next
	}
	return joinedSchema, joinedRows, nil
}

// Execute runs one parsed statement to completion under a single read-lock
// acquisition (the grammar has no mutating statement, so Execute never
// needs the write lock itself — CreateTable and Insert take it directly).
func (c *Catalog) Execute(clause sql.Clause) (Result, error) {
	switch clause.Kind {
	case sql.ClauseShowTables:
		return c.execShowTables(), nil
	case sql.ClauseSelect:
		return c.execSelect(clause)
	default:
		return Result{}, fmt.Errorf("catalog: unsupported clause kind %v", clause.Kind)
	}
}

func (c *Catalog) execShowTables() Result {
	names := c.TableNames()
	rows := make([]value.DataRow, len(names))
	for i, n := range names {
		rows[i] = value.NewDataRow(value.NewVarchar(n))
	}
	return Result{
		Columns: []value.Column{{Name: "table", DataType: value.Varchar}},
		Rows:    rows,
	}
}

// execSelect handles every arity of FROM: none (the projection evaluates
// once against an empty schema and an empty row, e.g. "select 1+1"), one
// (delegates to Query), and many (cross join first).
func (c *Catalog) execSelect(clause sql.Clause) (Result, error) {
	var schema value.TableSchema
	var rows []value.DataRow

	switch len(clause.Tables) {
	case 0:
		schema = value.TableSchema{}
		rows = []value.DataRow{{}}
	case 1:
		c.mu.RLock()
		defer c.mu.RUnlock()
		t, err := c.lookup(clause.Tables[0])
		if err != nil {
			return Result{}, err
		}
		schema, rows = t.Schema, t.Rows
	default:
		c.mu.RLock()
		defer c.mu.RUnlock()
		var err error
		schema, rows, err = c.crossJoin(clause.Tables)
		if err != nil {
			return Result{}, err
		}
	}

	result, err := evalProjection(schema, rows, clause.Projections)
	if err != nil {
		return Result{}, err
	}
	return Result{Columns: result.Schema.Columns, Rows: result.Rows}, nil
}
