package idl

import (
	"cmp"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"unicode/utf8"

	"github.com/danderson/idl/fragments"
)

// Encode returns the Candid binary encoding of args as an argument
// list.
//
// The wire types of args are inferred from the values: a Number
// encodes as an int, None as an opt empty, and the element type of a
// vector is the common type of its elements. Encode returns a
// [TypeError] if a value has no wire type, such as a vector whose
// elements disagree on type or a record with duplicate field IDs.
func Encode(args []Value) ([]byte, error) {
	types := make([]Type, len(args))
	for i, a := range args {
		t, err := typeOf(a)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}

	var tt typeTable
	refs := make([]int64, len(types))
	for i, t := range types {
		ref, err := tt.ref(t)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
	}

	e := fragments.Encoder{}
	e.Magic()
	e.Uleb(uint64(len(tt.entries)))
	for _, ent := range tt.entries {
		e.Write(ent)
	}
	e.Uleb(uint64(len(refs)))
	for _, ref := range refs {
		e.Sleb(ref)
	}
	for i, a := range args {
		if err := encodeValue(&e, a, types[i]); err != nil {
			return nil, err
		}
	}
	return e.Out, nil
}

// typeTable accumulates the composite types of a message.
type typeTable struct {
	entries [][]byte
	// index maps a type's text form to its position in entries.
	index map[string]int64
}

// ref returns the type reference for t, adding t and its components
// to the table as needed.
func (tt *typeTable) ref(t Type) (int64, error) {
	if p, ok := t.(PrimT); ok {
		op, ok := primToOpcode[p]
		if !ok {
			return 0, fmt.Errorf("unknown primitive type %d", p)
		}
		return op, nil
	}

	key := t.String()
	if idx, ok := tt.index[key]; ok {
		return idx, nil
	}

	var e fragments.Encoder
	switch t := t.(type) {
	case OptT:
		ref, err := tt.ref(t.Elem)
		if err != nil {
			return 0, err
		}
		e.Sleb(opOpt)
		e.Sleb(ref)
	case VecT:
		ref, err := tt.ref(t.Elem)
		if err != nil {
			return 0, err
		}
		e.Sleb(opVec)
		e.Sleb(ref)
	case RecordT:
		if err := tt.fields(&e, opRecord, t.Fields); err != nil {
			return 0, err
		}
	case VariantT:
		if err := tt.fields(&e, opVariant, t.Fields); err != nil {
			return 0, err
		}
	case FuncT:
		args, err := tt.refs(t.Args)
		if err != nil {
			return 0, err
		}
		rets, err := tt.refs(t.Rets)
		if err != nil {
			return 0, err
		}
		e.Sleb(opFunc)
		e.Uleb(uint64(len(args)))
		for _, r := range args {
			e.Sleb(r)
		}
		e.Uleb(uint64(len(rets)))
		for _, r := range rets {
			e.Sleb(r)
		}
		e.Uleb(uint64(len(t.Modes)))
		for _, m := range t.Modes {
			e.Uint8(uint8(m))
		}
	case ServiceT:
		ms := slices.SortedFunc(slices.Values(t.Methods), func(a, b Method) int {
			return cmp.Compare(a.Name, b.Name)
		})
		refs := make([]int64, len(ms))
		for i, m := range ms {
			if _, ok := m.Type.(FuncT); !ok {
				return 0, fmt.Errorf("method %q has non-function type %s", m.Name, m.Type)
			}
			ref, err := tt.ref(m.Type)
			if err != nil {
				return 0, err
			}
			refs[i] = ref
		}
		e.Sleb(opService)
		e.Uleb(uint64(len(ms)))
		for i, m := range ms {
			e.String(m.Name)
			e.Sleb(refs[i])
		}
	default:
		return 0, fmt.Errorf("type %s cannot be encoded", t)
	}

	if tt.index == nil {
		tt.index = map[string]int64{}
	}
	idx := int64(len(tt.entries))
	tt.entries = append(tt.entries, e.Out)
	tt.index[key] = idx
	return idx, nil
}

func (tt *typeTable) refs(ts []Type) ([]int64, error) {
	ret := make([]int64, len(ts))
	for i, t := range ts {
		ref, err := tt.ref(t)
		if err != nil {
			return nil, err
		}
		ret[i] = ref
	}
	return ret, nil
}

// fields writes a record or variant type entry. Fields are written in
// ascending ID order.
func (tt *typeTable) fields(e *fragments.Encoder, op int64, fs []TypeField) error {
	fs = sortedFields(fs)
	refs := make([]int64, len(fs))
	for i, f := range fs {
		if i > 0 && fs[i-1].Label.ID == f.Label.ID {
			return fmt.Errorf("duplicate field ID %d", f.Label.ID)
		}
		ref, err := tt.ref(f.Type)
		if err != nil {
			return err
		}
		refs[i] = ref
	}
	e.Sleb(op)
	e.Uleb(uint64(len(fs)))
	for i, f := range fs {
		e.Uleb(uint64(f.Label.ID))
		e.Sleb(refs[i])
	}
	return nil
}

func sortedFields(fs []TypeField) []TypeField {
	return slices.SortedStableFunc(slices.Values(fs), func(a, b TypeField) int {
		return cmp.Compare(a.Label.ID, b.Label.ID)
	})
}

// typeOf infers the wire type of v.
func typeOf(v Value) (Type, error) {
	if p, ok := primOf(v); ok {
		return p, nil
	}
	switch v := v.(type) {
	case Number:
		return PrimInt, nil
	case None:
		return OptT{PrimEmpty}, nil
	case Opt:
		elem, err := typeOf(v.Value)
		if err != nil {
			return nil, err
		}
		return OptT{elem}, nil
	case Vec:
		var elem Type = PrimEmpty
		for i, e := range v {
			et, err := typeOf(e)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				elem = et
				continue
			}
			u, ok := unify(elem, et)
			if !ok {
				return nil, typeErr(v, "vector elements have different types %s and %s", elem, et)
			}
			elem = u
		}
		return VecT{elem}, nil
	case Record:
		fs := make([]TypeField, len(v))
		for i, f := range v {
			ft, err := typeOf(f.Value)
			if err != nil {
				return nil, err
			}
			fs[i] = TypeField{f.Label, ft}
		}
		fs = sortedFields(fs)
		for i := 1; i < len(fs); i++ {
			if fs[i-1].Label.ID == fs[i].Label.ID {
				return nil, typeErr(v, "duplicate field ID %d", fs[i].Label.ID)
			}
		}
		return RecordT{fs}, nil
	case Variant:
		ft, err := typeOf(v.Field.Value)
		if err != nil {
			return nil, err
		}
		return VariantT{[]TypeField{{v.Field.Label, ft}}}, nil
	case Service:
		return ServiceT{}, nil
	case Func:
		return FuncT{Args: []Type{}, Rets: []Type{}}, nil
	case nil:
		return nil, TypeError{"<nil>", errors.New("nil value")}
	}
	return nil, typeErr(v, "unknown value type %T", v)
}

// unify returns the common type of a and b, if there is one. Types
// containing empty, from empty vectors and absent optionals, unify
// with any type of the same shape.
func unify(a, b Type) (Type, bool) {
	if a == PrimEmpty {
		return b, true
	}
	if b == PrimEmpty {
		return a, true
	}
	switch at := a.(type) {
	case OptT:
		if bt, ok := b.(OptT); ok {
			elem, ok := unify(at.Elem, bt.Elem)
			return OptT{elem}, ok
		}
	case VecT:
		if bt, ok := b.(VecT); ok {
			elem, ok := unify(at.Elem, bt.Elem)
			return VecT{elem}, ok
		}
	case RecordT:
		if bt, ok := b.(RecordT); ok && len(at.Fields) == len(bt.Fields) {
			fs := make([]TypeField, len(at.Fields))
			for i := range at.Fields {
				if at.Fields[i].Label.ID != bt.Fields[i].Label.ID {
					return nil, false
				}
				ft, ok := unify(at.Fields[i].Type, bt.Fields[i].Type)
				if !ok {
					return nil, false
				}
				fs[i] = TypeField{at.Fields[i].Label, ft}
			}
			return RecordT{fs}, true
		}
	case VariantT:
		// Variants of different fields in the same vector merge into
		// one variant type holding all of them.
		if bt, ok := b.(VariantT); ok {
			fs := slices.Clone(at.Fields)
			for _, f := range bt.Fields {
				idx := slices.IndexFunc(fs, func(g TypeField) bool { return g.Label.ID == f.Label.ID })
				if idx < 0 {
					fs = append(fs, f)
					continue
				}
				ft, ok := unify(fs[idx].Type, f.Type)
				if !ok {
					return nil, false
				}
				fs[idx].Type = ft
			}
			return VariantT{sortedFields(fs)}, true
		}
	}
	if a.String() == b.String() {
		return a, true
	}
	return nil, false
}

// encodeValue writes v with the wire type t. t must be the inferred
// type of v, or a unification of it.
func encodeValue(e *fragments.Encoder, v Value, t Type) error {
	switch t := t.(type) {
	case PrimT:
		return encodePrim(e, v, t)
	case OptT:
		switch v := v.(type) {
		case None:
			e.Uint8(0)
			return nil
		case Opt:
			e.Uint8(1)
			return encodeValue(e, v.Value, t.Elem)
		}
	case VecT:
		if vs, ok := v.(Vec); ok {
			e.Uleb(uint64(len(vs)))
			for _, elem := range vs {
				if err := encodeValue(e, elem, t.Elem); err != nil {
					return err
				}
			}
			return nil
		}
	case RecordT:
		if r, ok := v.(Record); ok {
			fs := slices.SortedStableFunc(slices.Values(r), func(a, b Field) int {
				return cmp.Compare(a.Label.ID, b.Label.ID)
			})
			if len(fs) != len(t.Fields) {
				break
			}
			for i, f := range fs {
				if err := encodeValue(e, f.Value, t.Fields[i].Type); err != nil {
					return err
				}
			}
			return nil
		}
	case VariantT:
		if vr, ok := v.(Variant); ok {
			idx := slices.IndexFunc(t.Fields, func(f TypeField) bool { return f.Label.ID == vr.Field.Label.ID })
			if idx < 0 {
				break
			}
			e.Uleb(uint64(idx))
			return encodeValue(e, vr.Field.Value, t.Fields[idx].Type)
		}
	case ServiceT:
		if s, ok := v.(Service); ok {
			return encodePrincipal(e, v, s.Principal)
		}
	case FuncT:
		if f, ok := v.(Func); ok {
			if !utf8.ValidString(f.Method) {
				return typeErr(v, "method name is not valid UTF-8")
			}
			e.Uint8(1)
			if err := encodePrincipal(e, v, f.Principal); err != nil {
				return err
			}
			e.String(f.Method)
			return nil
		}
	}
	return typeErr(v, "value does not have type %s", t)
}

func encodePrim(e *fragments.Encoder, v Value, t PrimT) error {
	switch v := v.(type) {
	case Null:
		if t == PrimNull {
			return nil
		}
	case Reserved:
		if t == PrimReserved {
			return nil
		}
	case Bool:
		e.Bool(bool(v))
		return nil
	case Text:
		if !utf8.ValidString(string(v)) {
			return typeErr(v, "text is not valid UTF-8")
		}
		e.String(string(v))
		return nil
	case Number:
		n, ok := new(big.Int).SetString(string(v), 0)
		if !ok {
			return typeErr(v, "invalid number literal")
		}
		e.BigSleb(n)
		return nil
	case Nat:
		if v.N == nil || v.N.Sign() < 0 {
			return typeErr(v, "nat must be non-negative")
		}
		e.BigUleb(v.N)
		return nil
	case Int:
		if v.N == nil {
			return typeErr(v, "nil int")
		}
		e.BigSleb(v.N)
		return nil
	case Nat8:
		e.Uint8(uint8(v))
		return nil
	case Nat16:
		e.Uint16(uint16(v))
		return nil
	case Nat32:
		e.Uint32(uint32(v))
		return nil
	case Nat64:
		e.Uint64(uint64(v))
		return nil
	case Int8:
		e.Uint8(uint8(v))
		return nil
	case Int16:
		e.Uint16(uint16(v))
		return nil
	case Int32:
		e.Uint32(uint32(v))
		return nil
	case Int64:
		e.Uint64(uint64(v))
		return nil
	case Float32:
		e.Float32(float32(v))
		return nil
	case Float64:
		e.Float64(float64(v))
		return nil
	case Principal:
		return encodePrincipal(e, v, v)
	}
	return typeErr(v, "value does not have type %s", t)
}

func encodePrincipal(e *fragments.Encoder, v Value, p Principal) error {
	if len(p) > MaxPrincipalLen {
		return typeErr(v, "principal longer than %d bytes", MaxPrincipalLen)
	}
	e.Uint8(1)
	e.Bytes(p)
	return nil
}
