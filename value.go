package idl

import (
	"math/big"
)

// A Value is a decoded instance of a Candid value.
//
// Value is a closed union: the only implementations are the types in
// this package. Use a type switch to inspect a Value, and [Format] to
// render it in Candid text syntax.
type Value interface {
	isValue()
}

// Bool is a boolean.
type Bool bool

// Null is the unit value.
type Null struct{}

// None is an absent optional value.
type None struct{}

// Text is a unicode string.
type Text string

// Number is a numeric literal of unspecified type, as written in
// textual Candid. It holds the literal's text verbatim.
type Number string

// Float64 is a double precision float.
type Float64 float64

// Float32 is a single precision float.
type Float32 float32

// Nat8 is an 8-bit natural number.
type Nat8 uint8

// Nat16 is a 16-bit natural number.
type Nat16 uint16

// Nat32 is a 32-bit natural number.
type Nat32 uint32

// Nat64 is a 64-bit natural number.
type Nat64 uint64

// Int8 is an 8-bit integer.
type Int8 int8

// Int16 is a 16-bit integer.
type Int16 int16

// Int32 is a 32-bit integer.
type Int32 int32

// Int64 is a 64-bit integer.
type Int64 int64

// Nat is an arbitrary precision natural number.
type Nat struct {
	N *big.Int
}

// NatOf returns the Nat for u.
func NatOf(u uint64) Nat {
	return Nat{new(big.Int).SetUint64(u)}
}

// Int is an arbitrary precision integer.
type Int struct {
	N *big.Int
}

// IntOf returns the Int for i.
func IntOf(i int64) Int {
	return Int{big.NewInt(i)}
}

// Opt is a present optional value.
type Opt struct {
	Value Value
}

// Vec is a sequence of values.
type Vec []Value

// A Field is a labelled value within a Record or Variant.
type Field struct {
	Label Label
	Value Value
}

// Record is an ordered set of fields. Field IDs are unique within a
// record.
type Record []Field

// Variant is a value of a variant type: exactly one selected field.
type Variant struct {
	Field Field
	// Index is the position of Field within the variant's type, as
	// carried on the wire.
	Index uint32
}

// Service is a reference to a remote service.
type Service struct {
	Principal Principal
}

// Func is a reference to a method of a remote service.
type Func struct {
	Principal Principal
	Method    string
}

// Reserved is a placeholder value that carries no data.
type Reserved struct{}

func (Bool) isValue()      {}
func (Null) isValue()      {}
func (None) isValue()      {}
func (Text) isValue()      {}
func (Number) isValue()    {}
func (Float64) isValue()   {}
func (Float32) isValue()   {}
func (Nat8) isValue()      {}
func (Nat16) isValue()     {}
func (Nat32) isValue()     {}
func (Nat64) isValue()     {}
func (Int8) isValue()      {}
func (Int16) isValue()     {}
func (Int32) isValue()     {}
func (Int64) isValue()     {}
func (Nat) isValue()       {}
func (Int) isValue()       {}
func (Opt) isValue()       {}
func (Vec) isValue()       {}
func (Record) isValue()    {}
func (Variant) isValue()   {}
func (Principal) isValue() {}
func (Service) isValue()   {}
func (Func) isValue()      {}
func (Reserved) isValue()  {}

// Blob returns bs as a vector of Nat8.
func Blob(bs []byte) Vec {
	ret := make(Vec, len(bs))
	for i, b := range bs {
		ret[i] = Nat8(b)
	}
	return ret
}

// TupleRecord returns a record whose fields are vs, labelled by
// position.
func TupleRecord(vs ...Value) Record {
	ret := make(Record, len(vs))
	for i, v := range vs {
		ret[i] = Field{IDLabel(uint32(i)), v}
	}
	return ret
}

// bigString returns the decimal form of n, treating nil as zero.
func bigString(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}
