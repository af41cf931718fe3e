package sql

import (
	"fmt"
	"strings"

	"github.com/mickamy/microbat/value"
)

// EvalError reports a failure evaluating an expression against a row.
type EvalError struct {
	Reason string
}

func (e *EvalError) Error() string {
	return e.Reason
}

// Expression is a node in the expression tree produced by the parser.
// Every variant can evaluate itself against a row conforming to schema, and
// can describe the output column it would project at a given position in
// the projection list (used for the SELECT list's DataDescription).
type Expression interface {
	Eval(schema value.TableSchema, row value.DataRow) (value.Value, error)
	SchemaColumn(schema value.TableSchema, index int) (value.Column, error)
	String() string
}

// IntegerLeaf is an integer literal.
type IntegerLeaf struct {
	Value int32
}

func (e IntegerLeaf) Eval(value.TableSchema, value.DataRow) (value.Value, error) {
	return value.NewInteger(e.Value), nil
}

func (e IntegerLeaf) SchemaColumn(_ value.TableSchema, index int) (value.Column, error) {
	return value.Column{Name: fmt.Sprintf("column_%d", index), DataType: value.Integer}, nil
}

func (e IntegerLeaf) String() string { return fmt.Sprintf("%d", e.Value) }

// Reference is a column reference, resolved case-insensitively against the
// schema it is evaluated under.
type Reference struct {
	Name string
}

func (e Reference) resolve(schema value.TableSchema) (int, error) {
	idx := schema.ColumnIndex(e.Name)
	if idx < 0 {
		return -1, &EvalError{Reason: fmt.Sprintf("No such column %s", strings.ToUpper(e.Name))}
	}
	return idx, nil
}

func (e Reference) Eval(schema value.TableSchema, row value.DataRow) (value.Value, error) {
	idx, err := e.resolve(schema)
	if err != nil {
		return value.Value{}, err
	}
	return row.Values[idx], nil
}

func (e Reference) SchemaColumn(schema value.TableSchema, _ int) (value.Column, error) {
	idx, err := e.resolve(schema)
	if err != nil {
		return value.Column{}, err
	}
	return schema.Columns[idx], nil
}

func (e Reference) String() string { return e.Name }

// Negate is unary minus.
type Negate struct {
	Operand Expression
}

func (e Negate) Eval(schema value.TableSchema, row value.DataRow) (value.Value, error) {
	v, err := e.Operand.Eval(schema, row)
	if err != nil {
		return value.Value{}, err
	}
	return value.Negate(v)
}

// SchemaColumn delegates entirely to the operand; negation doesn't change
// the projected column's name or type.
func (e Negate) SchemaColumn(schema value.TableSchema, index int) (value.Column, error) {
	return e.Operand.SchemaColumn(schema, index)
}

func (e Negate) String() string { return "-" + e.Operand.String() }

// BinOp is a binary PLUS/MINUS expression; the grammar's RBP table gives no
// led to EQ/LT/GT/LTE/GTE, so comparisons never reach this node.
type BinOp struct {
	Op    TokenType
	Left  Expression
	Right Expression
}

func (e BinOp) symbol() string {
	switch e.Op {
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	default:
		return e.Op.String()
	}
}

func (e BinOp) Eval(schema value.TableSchema, row value.DataRow) (value.Value, error) {
	l, err := e.Left.Eval(schema, row)
	if err != nil {
		return value.Value{}, err
	}
	r, err := e.Right.Eval(schema, row)
	if err != nil {
		return value.Value{}, err
	}
	switch e.Op {
	case PLUS:
		return value.Add(l, r)
	case MINUS:
		return value.Sub(l, r)
	default:
		return value.Value{}, &EvalError{Reason: fmt.Sprintf("unsupported operator %s", e.Op)}
	}
}

// SchemaColumn infers the result type from both operands rather than
// assuming Integer unconditionally (the source this was distilled from
// returns Integer unconditionally for every BinOp; see §9's open question).
func (e BinOp) SchemaColumn(schema value.TableSchema, index int) (value.Column, error) {
	left, err := e.Left.SchemaColumn(schema, index)
	if err != nil {
		return value.Column{}, err
	}
	right, err := e.Right.SchemaColumn(schema, index)
	if err != nil {
		return value.Column{}, err
	}
	if left.DataType != value.Integer || right.DataType != value.Integer {
		return value.Column{}, &EvalError{Reason: fmt.Sprintf("operator %s requires Integer operands, got %s and %s", e.symbol(), left.DataType, right.DataType)}
	}
	return value.Column{Name: fmt.Sprintf("column_%d", index), DataType: value.Integer}, nil
}

func (e BinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.symbol(), e.Right)
}

// As renames Inner's projected column to Alias.
type As struct {
	Inner Expression
	Alias string
}

func (e As) Eval(schema value.TableSchema, row value.DataRow) (value.Value, error) {
	return e.Inner.Eval(schema, row)
}

func (e As) SchemaColumn(schema value.TableSchema, index int) (value.Column, error) {
	c, err := e.Inner.SchemaColumn(schema, index)
	if err != nil {
		return value.Column{}, err
	}
	c.Name = e.Alias
	return c, nil
}

func (e As) String() string { return fmt.Sprintf("%s AS %s", e.Inner, e.Alias) }
