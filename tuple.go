package idl

import (
	"errors"
	"fmt"
	"strconv"
)

//go:generate go run ./internal/tuplegen/gentuples -out tuple_gen.go

// MaxArity is the largest number of values a [Tuple] can hold.
//
// Argument lists longer than MaxArity cannot be encoded for a call.
const MaxArity = 10

// A Tuple is a fixed-size list of 0 to [MaxArity] values.
//
// The concrete types Tuple0 through Tuple10 each hold exactly as many
// values as their name says. Use [ToTuple] to shape a runtime-length
// slice into the matching Tuple.
type Tuple[T any] interface {
	// Len returns the number of values in the tuple.
	Len() int
	// Values returns the tuple's values, in order.
	Values() []T
	sealedTuple()
}

// EmptyArgs is the policy for shaping an empty argument list.
type EmptyArgs int

const (
	// EmptyIsZeroArity shapes an empty list into a Tuple0.
	EmptyIsZeroArity EmptyArgs = iota
	// EmptyIsError rejects an empty list with ErrEmptyArguments.
	EmptyIsError
)

var emptyArgsNames = map[EmptyArgs]string{
	EmptyIsZeroArity: "zero",
	EmptyIsError:     "error",
}

func (e EmptyArgs) String() string {
	if s, ok := emptyArgsNames[e]; ok {
		return s
	}
	return "EmptyArgs(" + strconv.Itoa(int(e)) + ")"
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EmptyArgs) UnmarshalText(bs []byte) error {
	for k, v := range emptyArgsNames {
		if v == string(bs) {
			*e = k
			return nil
		}
	}
	return fmt.Errorf("unknown empty args policy %q, want zero or error", bs)
}

// ToTuple returns vs as the Tuple of matching size.
//
// ToTuple returns an [ArityError] if vs has more than [MaxArity]
// values, or if vs is empty and empty is EmptyIsError.
func ToTuple[T any](vs []T, empty EmptyArgs) (Tuple[T], error) {
	if len(vs) == 0 && empty == EmptyIsError {
		return nil, ArityError{0, ErrEmptyArguments}
	}
	if len(vs) > MaxArity {
		return nil, ArityError{len(vs), ErrTooManyArguments}
	}
	return tupleOf(vs), nil
}

// EncodeTuple returns the Candid binary encoding of t's values as an
// argument list.
func EncodeTuple(t Tuple[Value]) ([]byte, error) {
	if t == nil {
		return nil, errors.New("encoding nil tuple")
	}
	return Encode(t.Values())
}
