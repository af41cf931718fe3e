// Package value implements microbat's tagged value model: the Null/Integer/
// Varchar union every row, column and expression result is built from.
package value

import "fmt"

// DataType is the unvalued counterpart of Value, used for schema
// type-checking where no concrete value is available yet.
type DataType int

const (
	Null DataType = iota
	Integer
	Varchar
)

func (t DataType) String() string {
	switch t {
	case Null:
		return "null"
	case Integer:
		return "integer"
	case Varchar:
		return "varchar"
	default:
		return fmt.Sprintf("unknown_type(%d)", int(t))
	}
}

// TypeTag is the single byte used on the wire to identify a Value's variant.
const (
	TypeTagNull    byte = 'n'
	TypeTagInteger byte = 'i'
	TypeTagVarchar byte = 'v'
)

// Value is a tagged union over microbat's three data variants. The zero
// Value is Null.
type Value struct {
	typ DataType
	i   int32
	s   string
}

// NewNull returns the Null value.
func NewNull() Value {
	return Value{typ: Null}
}

// NewInteger returns an Integer value wrapping v.
func NewInteger(v int32) Value {
	return Value{typ: Integer, i: v}
}

// NewVarchar returns a Varchar value wrapping s.
func NewVarchar(s string) Value {
	return Value{typ: Varchar, s: s}
}

// Type reports this value's DataType.
func (v Value) Type() DataType {
	return v.typ
}

// Int returns the wrapped int32. Only meaningful when Type() == Integer.
func (v Value) Int() int32 {
	return v.i
}

// Str returns the wrapped string. Only meaningful when Type() == Varchar.
func (v Value) Str() string {
	return v.s
}

// TypeTag returns this value's 1-byte wire type tag.
func (v Value) TypeTag() byte {
	switch v.typ {
	case Integer:
		return TypeTagInteger
	case Varchar:
		return TypeTagVarchar
	default:
		return TypeTagNull
	}
}

// String renders the value the way the client prints a cell; Null renders
// as "null" (4 characters, per spec.md §6).
func (v Value) String() string {
	switch v.typ {
	case Integer:
		return fmt.Sprintf("%d", v.i)
	case Varchar:
		return v.s
	default:
		return "null"
	}
}

// Equal reports whether v and other hold the same variant and payload.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case Integer:
		return v.i == other.i
	case Varchar:
		return v.s == other.s
	default:
		return true
	}
}

// ArithmeticError is returned by Add/Sub/Negate when the operand types
// don't support the requested operation.
type ArithmeticError struct {
	Op   string
	Left DataType
	Right DataType
}

func (e *ArithmeticError) Error() string {
	if e.Op == "negate" {
		return fmt.Sprintf("can't negate %s", e.Left)
	}
	return fmt.Sprintf("can't %s %s and %s", e.Op, e.Left, e.Right)
}

// Add implements Value + Value. Defined only on Integer ⊕ Integer.
func Add(l, r Value) (Value, error) {
	if l.typ != Integer || r.typ != Integer {
		return Value{}, &ArithmeticError{Op: "add", Left: l.typ, Right: r.typ}
	}
	return NewInteger(l.i + r.i), nil
}

// Sub implements Value - Value. Defined only on Integer ⊖ Integer.
func Sub(l, r Value) (Value, error) {
	if l.typ != Integer || r.typ != Integer {
		return Value{}, &ArithmeticError{Op: "subtract", Left: l.typ, Right: r.typ}
	}
	return NewInteger(l.i - r.i), nil
}

// Negate implements unary minus. Defined only on Integer.
func Negate(v Value) (Value, error) {
	if v.typ != Integer {
		return Value{}, &ArithmeticError{Op: "negate", Left: v.typ}
	}
	return NewInteger(-v.i), nil
}
