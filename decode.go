package idl

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/danderson/idl/fragments"
)

// maxDecodeDepth bounds the nesting of decoded values.
const maxDecodeDepth = 256

// errBudget is the reason for a DecodeError when a message would take
// disproportionately long to decode.
var errBudget = errors.New("message exceeds decoding work budget")

// A tableEntry is one composite type from a message's type table.
// Component types are type references: a negative primitive opcode,
// or the index of another entry.
type tableEntry struct {
	op     int64
	elem   int64        // opt, vec
	fields []tableField // record, variant
	// func and service entries are decoded for validation, but only
	// their opcode matters to value decoding.
}

type tableField struct {
	id  uint32
	ref int64
}

// Decode decodes a Candid binary message into its argument values.
//
// Record and variant fields in the result are labelled by numeric ID
// only, since the wire format does not carry field names. Use
// [ToJSONWithType] with a schema to recover names.
func Decode(bs []byte) ([]Value, error) {
	d := &decoder{
		Decoder: fragments.Decoder{In: bs},
		budget:  1024 + 8*len(bs),
	}
	return d.message()
}

type decoder struct {
	fragments.Decoder
	table  []tableEntry
	budget int
	depth  int
}

func (d *decoder) fail(err error) error {
	var de DecodeError
	if errors.As(err, &de) {
		return err
	}
	return DecodeError{d.Offset(), err}
}

func (d *decoder) failf(msg string, args ...any) error {
	return d.fail(fmt.Errorf(msg, args...))
}

func (d *decoder) message() ([]Value, error) {
	if err := d.Magic(); err != nil {
		return nil, d.fail(err)
	}
	n, err := d.Len(1)
	if err != nil {
		return nil, d.fail(err)
	}
	d.table = make([]tableEntry, n)
	for i := range d.table {
		if d.table[i], err = d.entry(); err != nil {
			return nil, err
		}
	}
	for _, ent := range d.table {
		if err := d.checkEntry(ent); err != nil {
			return nil, err
		}
	}

	n, err = d.Len(1)
	if err != nil {
		return nil, d.fail(err)
	}
	refs := make([]int64, n)
	for i := range refs {
		if refs[i], err = d.Sleb(); err != nil {
			return nil, d.fail(err)
		}
		if err := d.checkRef(refs[i]); err != nil {
			return nil, err
		}
	}

	ret := make([]Value, n)
	for i, ref := range refs {
		if ret[i], err = d.value(ref); err != nil {
			return nil, err
		}
	}
	if d.Remaining() != 0 {
		return nil, d.failf("%d trailing bytes after message", d.Remaining())
	}
	return ret, nil
}

func (d *decoder) entry() (tableEntry, error) {
	op, err := d.Sleb()
	if err != nil {
		return tableEntry{}, d.fail(err)
	}
	ret := tableEntry{op: op}
	switch op {
	case opOpt, opVec:
		if ret.elem, err = d.Sleb(); err != nil {
			return tableEntry{}, d.fail(err)
		}
	case opRecord, opVariant:
		n, err := d.Len(2)
		if err != nil {
			return tableEntry{}, d.fail(err)
		}
		ret.fields = make([]tableField, n)
		for i := range ret.fields {
			id, err := d.Uleb()
			if err != nil {
				return tableEntry{}, d.fail(err)
			}
			if id > math.MaxUint32 {
				return tableEntry{}, d.failf("field ID %d out of range", id)
			}
			if i > 0 && uint32(id) <= ret.fields[i-1].id {
				return tableEntry{}, d.failf("field ID %d out of order", id)
			}
			ref, err := d.Sleb()
			if err != nil {
				return tableEntry{}, d.fail(err)
			}
			ret.fields[i] = tableField{uint32(id), ref}
		}
	case opFunc:
		for range 2 {
			n, err := d.Len(1)
			if err != nil {
				return tableEntry{}, d.fail(err)
			}
			for range n {
				ref, err := d.Sleb()
				if err != nil {
					return tableEntry{}, d.fail(err)
				}
				ret.fields = append(ret.fields, tableField{ref: ref})
			}
		}
		modes, err := d.Bytes()
		if err != nil {
			return tableEntry{}, d.fail(err)
		}
		for _, m := range modes {
			if _, ok := modeToStr[FuncMode(m)]; !ok {
				return tableEntry{}, d.failf("unknown function mode %d", m)
			}
		}
	case opService:
		n, err := d.Len(2)
		if err != nil {
			return tableEntry{}, d.fail(err)
		}
		prev := ""
		for i := range n {
			name, err := d.String()
			if err != nil {
				return tableEntry{}, d.fail(err)
			}
			if i > 0 && name <= prev {
				return tableEntry{}, d.failf("method %q out of order", name)
			}
			prev = name
			ref, err := d.Sleb()
			if err != nil {
				return tableEntry{}, d.fail(err)
			}
			ret.fields = append(ret.fields, tableField{ref: ref})
		}
	default:
		return tableEntry{}, d.failf("unknown type opcode %d", op)
	}
	return ret, nil
}

// checkEntry verifies that all the type references in ent are valid.
func (d *decoder) checkEntry(ent tableEntry) error {
	if ent.op == opOpt || ent.op == opVec {
		return d.checkRef(ent.elem)
	}
	for _, f := range ent.fields {
		if err := d.checkRef(f.ref); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) checkRef(ref int64) error {
	if ref >= 0 {
		if ref >= int64(len(d.table)) {
			return d.failf("type reference %d out of range", ref)
		}
		return nil
	}
	if _, ok := opcodeToPrim[ref]; !ok {
		return d.failf("unknown primitive type %d", ref)
	}
	return nil
}

func (d *decoder) value(ref int64) (Value, error) {
	d.budget--
	if d.budget < 0 {
		return nil, d.fail(errBudget)
	}
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > maxDecodeDepth {
		return nil, d.failf("values nested deeper than %d", maxDecodeDepth)
	}

	if ref < 0 {
		return d.prim(opcodeToPrim[ref])
	}

	ent := d.table[ref]
	switch ent.op {
	case opOpt:
		tag, err := d.Uint8()
		if err != nil {
			return nil, d.fail(err)
		}
		switch tag {
		case 0:
			return None{}, nil
		case 1:
			v, err := d.value(ent.elem)
			if err != nil {
				return nil, err
			}
			return Opt{v}, nil
		}
		return nil, d.failf("invalid opt tag %d", tag)
	case opVec:
		n, err := d.Len(0)
		if err != nil {
			return nil, d.fail(err)
		}
		if n > d.budget {
			return nil, d.fail(errBudget)
		}
		ret := make(Vec, 0, min(n, d.Remaining()))
		for range n {
			v, err := d.value(ent.elem)
			if err != nil {
				return nil, err
			}
			ret = append(ret, v)
		}
		return ret, nil
	case opRecord:
		ret := make(Record, len(ent.fields))
		for i, f := range ent.fields {
			v, err := d.value(f.ref)
			if err != nil {
				return nil, err
			}
			ret[i] = Field{IDLabel(f.id), v}
		}
		return ret, nil
	case opVariant:
		idx, err := d.Uleb()
		if err != nil {
			return nil, d.fail(err)
		}
		if idx >= uint64(len(ent.fields)) {
			return nil, d.failf("variant index %d out of range", idx)
		}
		f := ent.fields[idx]
		v, err := d.value(f.ref)
		if err != nil {
			return nil, err
		}
		return Variant{Field{IDLabel(f.id), v}, uint32(idx)}, nil
	case opFunc:
		if err := d.reference(); err != nil {
			return nil, err
		}
		p, err := d.principal()
		if err != nil {
			return nil, err
		}
		m, err := d.String()
		if err != nil {
			return nil, d.fail(err)
		}
		if !utf8.ValidString(m) {
			return nil, d.failf("method name is not valid UTF-8")
		}
		return Func{p, m}, nil
	case opService:
		p, err := d.principal()
		if err != nil {
			return nil, err
		}
		return Service{p}, nil
	}
	return nil, d.failf("unknown type opcode %d", ent.op)
}

func (d *decoder) prim(t PrimT) (Value, error) {
	var (
		ret Value
		err error
	)
	switch t {
	case PrimNull:
		return Null{}, nil
	case PrimReserved:
		return Reserved{}, nil
	case PrimEmpty:
		return nil, d.failf("cannot decode a value of type empty")
	case PrimBool:
		var b bool
		b, err = d.Bool()
		ret = Bool(b)
	case PrimNat:
		n, e := d.BigUleb()
		ret, err = Nat{n}, e
	case PrimInt:
		n, e := d.BigSleb()
		ret, err = Int{n}, e
	case PrimNat8:
		u, e := d.Uint8()
		ret, err = Nat8(u), e
	case PrimNat16:
		u, e := d.Uint16()
		ret, err = Nat16(u), e
	case PrimNat32:
		u, e := d.Uint32()
		ret, err = Nat32(u), e
	case PrimNat64:
		u, e := d.Uint64()
		ret, err = Nat64(u), e
	case PrimInt8:
		u, e := d.Uint8()
		ret, err = Int8(u), e
	case PrimInt16:
		u, e := d.Uint16()
		ret, err = Int16(u), e
	case PrimInt32:
		u, e := d.Uint32()
		ret, err = Int32(u), e
	case PrimInt64:
		u, e := d.Uint64()
		ret, err = Int64(u), e
	case PrimFloat32:
		f, e := d.Float32()
		ret, err = Float32(f), e
	case PrimFloat64:
		f, e := d.Float64()
		ret, err = Float64(f), e
	case PrimText:
		s, e := d.String()
		if e == nil && !utf8.ValidString(s) {
			return nil, d.failf("text is not valid UTF-8")
		}
		ret, err = Text(s), e
	case PrimPrincipal:
		return d.principal()
	default:
		return nil, d.failf("unknown primitive type %s", t)
	}
	if err != nil {
		return nil, d.fail(err)
	}
	return ret, nil
}

// reference reads the tag of a func, service or principal value. Only
// transparent references, which carry their principal, are supported.
func (d *decoder) reference() error {
	tag, err := d.Uint8()
	if err != nil {
		return d.fail(err)
	}
	switch tag {
	case 0:
		return d.failf("opaque references are not supported")
	case 1:
		return nil
	}
	return d.failf("invalid reference tag %d", tag)
}

func (d *decoder) principal() (Principal, error) {
	if err := d.reference(); err != nil {
		return nil, err
	}
	bs, err := d.Bytes()
	if err != nil {
		return nil, d.fail(err)
	}
	if len(bs) > MaxPrincipalLen {
		return nil, d.failf("principal longer than %d bytes", MaxPrincipalLen)
	}
	return Principal(append([]byte{}, bs...)), nil
}
