package idl

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"
)

// Annotate returns v with its untyped parts converted to the types
// declared by t: Number literals become the declared numeric kind,
// Float64 literals declared as float32 become Float32, null declared
// as an optional becomes None, and variants get the wire index of
// their field within the declared variant type. Named types in t are
// resolved through s.
//
// Annotate never fails. Parts of v that don't match t, or literals
// that the declared type cannot represent, are returned unchanged.
func Annotate(v Value, t Type, s Schema) Value {
	ret, _ := annotate(v, t, s, false)
	return ret
}

// annotate is Annotate, but if strict is true it reports an error
// for parts of v that don't match t instead of leaving them as is.
func annotate(v Value, t Type, s Schema, strict bool) (Value, error) {
	mismatch := func() (Value, error) {
		if strict {
			return nil, fmt.Errorf("%s does not have type %s", Format(v), t)
		}
		return v, nil
	}

	rt, ok := s.Resolve(t)
	if !ok {
		if strict {
			return nil, fmt.Errorf("unknown type %s", t)
		}
		return v, nil
	}
	t = rt

	switch t := t.(type) {
	case PrimT:
		switch v := v.(type) {
		case Number:
			if !numericPrims.Has(t) {
				return mismatch()
			}
			ret, err := numberAs(string(v), t)
			if err != nil {
				if strict {
					return nil, err
				}
				return v, nil
			}
			return ret, nil
		case Float64:
			switch t {
			case PrimFloat64:
				return v, nil
			case PrimFloat32:
				return Float32(v), nil
			}
			return mismatch()
		}
		if t == PrimReserved {
			return Reserved{}, nil
		}
		if p, ok := primOf(v); !ok || p != t {
			return mismatch()
		}
		return v, nil
	case OptT:
		switch v := v.(type) {
		case Null, None:
			return None{}, nil
		case Opt:
			elem, err := annotate(v.Value, t.Elem, s, strict)
			if err != nil {
				return nil, err
			}
			return Opt{elem}, nil
		}
		return mismatch()
	case VecT:
		vs, ok := v.(Vec)
		if !ok {
			return mismatch()
		}
		ret := make(Vec, len(vs))
		for i, e := range vs {
			a, err := annotate(e, t.Elem, s, strict)
			if err != nil {
				return nil, err
			}
			ret[i] = a
		}
		return ret, nil
	case RecordT:
		r, ok := v.(Record)
		if !ok {
			return mismatch()
		}
		ret := make(Record, len(r))
		for i, f := range r {
			ret[i] = f
			tf, ok := t.Field(f.Label.ID)
			if !ok {
				if strict {
					return nil, fmt.Errorf("field %s not in type %s", labelString(f.Label), t)
				}
				continue
			}
			a, err := annotate(f.Value, tf.Type, s, strict)
			if err != nil {
				return nil, err
			}
			ret[i].Value = a
		}
		return ret, nil
	case VariantT:
		vr, ok := v.(Variant)
		if !ok {
			return mismatch()
		}
		tf, ok := t.Field(vr.Field.Label.ID)
		if !ok {
			return mismatch()
		}
		a, err := annotate(vr.Field.Value, tf.Type, s, strict)
		if err != nil {
			return nil, err
		}
		return Variant{Field{vr.Field.Label, a}, variantIndex(t, tf.Label.ID)}, nil
	case ServiceT:
		if p, ok := v.(Principal); ok {
			return Service{p}, nil
		}
		if _, ok := v.(Service); !ok {
			return mismatch()
		}
		return v, nil
	case FuncT:
		if _, ok := v.(Func); !ok {
			return mismatch()
		}
		return v, nil
	}
	return mismatch()
}

// variantIndex returns the wire index of the field with the given ID
// in t. On the wire, variant fields are ordered by ID.
func variantIndex(t VariantT, id uint32) uint32 {
	ids := make([]uint32, len(t.Fields))
	for i, f := range t.Fields {
		ids[i] = f.Label.ID
	}
	slices.Sort(ids)
	idx, _ := slices.BinarySearch(ids, id)
	return uint32(idx)
}

// primOf returns the primitive type of v, if v is a primitive value
// with a definite type.
func primOf(v Value) (PrimT, bool) {
	switch v.(type) {
	case Null:
		return PrimNull, true
	case Bool:
		return PrimBool, true
	case Text:
		return PrimText, true
	case Nat:
		return PrimNat, true
	case Int:
		return PrimInt, true
	case Nat8:
		return PrimNat8, true
	case Nat16:
		return PrimNat16, true
	case Nat32:
		return PrimNat32, true
	case Nat64:
		return PrimNat64, true
	case Int8:
		return PrimInt8, true
	case Int16:
		return PrimInt16, true
	case Int32:
		return PrimInt32, true
	case Int64:
		return PrimInt64, true
	case Float32:
		return PrimFloat32, true
	case Float64:
		return PrimFloat64, true
	case Reserved:
		return PrimReserved, true
	case Principal:
		return PrimPrincipal, true
	}
	return 0, false
}

var errOutOfRange = errors.New("out of range")

// numberAs converts the numeric literal lit to the numeric type t.
func numberAs(lit string, t PrimT) (Value, error) {
	switch t {
	case PrimFloat32:
		f, err := strconv.ParseFloat(strings.ReplaceAll(lit, "_", ""), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid float32 %q: %w", lit, err)
		}
		return Float32(f), nil
	case PrimFloat64:
		f, err := strconv.ParseFloat(strings.ReplaceAll(lit, "_", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float64 %q: %w", lit, err)
		}
		return Float64(f), nil
	}

	n, ok := new(big.Int).SetString(lit, 0)
	if !ok {
		return nil, fmt.Errorf("invalid number %q", lit)
	}
	fail := func() (Value, error) {
		return nil, fmt.Errorf("%s as %s: %w", lit, t, errOutOfRange)
	}
	switch t {
	case PrimNat:
		if n.Sign() < 0 {
			return fail()
		}
		return Nat{n}, nil
	case PrimInt:
		return Int{n}, nil
	case PrimNat8, PrimNat16, PrimNat32, PrimNat64:
		if n.Sign() < 0 || !n.IsUint64() {
			return fail()
		}
		u := n.Uint64()
		switch t {
		case PrimNat8:
			if u > math.MaxUint8 {
				return fail()
			}
			return Nat8(u), nil
		case PrimNat16:
			if u > math.MaxUint16 {
				return fail()
			}
			return Nat16(u), nil
		case PrimNat32:
			if u > math.MaxUint32 {
				return fail()
			}
			return Nat32(u), nil
		}
		return Nat64(u), nil
	case PrimInt8, PrimInt16, PrimInt32, PrimInt64:
		if !n.IsInt64() {
			return fail()
		}
		i := n.Int64()
		switch t {
		case PrimInt8:
			if i < math.MinInt8 || i > math.MaxInt8 {
				return fail()
			}
			return Int8(i), nil
		case PrimInt16:
			if i < math.MinInt16 || i > math.MaxInt16 {
				return fail()
			}
			return Int16(i), nil
		case PrimInt32:
			if i < math.MinInt32 || i > math.MaxInt32 {
				return fail()
			}
			return Int32(i), nil
		}
		return Int64(i), nil
	}
	return nil, fmt.Errorf("%s is not a numeric type", t)
}
