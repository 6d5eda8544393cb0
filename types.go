package idl

import (
	"slices"
	"strconv"
	"strings"

	"github.com/creachadair/mds/mapset"
)

// A Type describes the shape of a Candid value.
//
// Type is a closed union: the only implementations are the types in
// this package.
type Type interface {
	// String returns the type in Candid text syntax.
	String() string
	isType()
}

// PrimT is a primitive type.
type PrimT uint8

const (
	PrimNull PrimT = iota + 1
	PrimBool
	PrimNat
	PrimInt
	PrimNat8
	PrimNat16
	PrimNat32
	PrimNat64
	PrimInt8
	PrimInt16
	PrimInt32
	PrimInt64
	PrimFloat32
	PrimFloat64
	PrimText
	PrimReserved
	PrimEmpty
	PrimPrincipal
)

var (
	// primToStr maps a primitive type to its name in Candid text
	// syntax.
	primToStr = map[PrimT]string{
		PrimNull:      "null",
		PrimBool:      "bool",
		PrimNat:       "nat",
		PrimInt:       "int",
		PrimNat8:      "nat8",
		PrimNat16:     "nat16",
		PrimNat32:     "nat32",
		PrimNat64:     "nat64",
		PrimInt8:      "int8",
		PrimInt16:     "int16",
		PrimInt32:     "int32",
		PrimInt64:     "int64",
		PrimFloat32:   "float32",
		PrimFloat64:   "float64",
		PrimText:      "text",
		PrimReserved:  "reserved",
		PrimEmpty:     "empty",
		PrimPrincipal: "principal",
	}

	// strToPrim is the inverse of primToStr.
	strToPrim = invert(primToStr)

	// primToOpcode maps a primitive type to its type table opcode.
	primToOpcode = map[PrimT]int64{
		PrimNull:      -1,
		PrimBool:      -2,
		PrimNat:       -3,
		PrimInt:       -4,
		PrimNat8:      -5,
		PrimNat16:     -6,
		PrimNat32:     -7,
		PrimNat64:     -8,
		PrimInt8:      -9,
		PrimInt16:     -10,
		PrimInt32:     -11,
		PrimInt64:     -12,
		PrimFloat32:   -13,
		PrimFloat64:   -14,
		PrimText:      -15,
		PrimReserved:  -16,
		PrimEmpty:     -17,
		PrimPrincipal: -24,
	}

	// opcodeToPrim is the inverse of primToOpcode.
	opcodeToPrim = invert(primToOpcode)

	// numericPrims is the set of primitive types that an untyped
	// Number can be annotated as.
	numericPrims = mapset.New(
		PrimNat, PrimInt,
		PrimNat8, PrimNat16, PrimNat32, PrimNat64,
		PrimInt8, PrimInt16, PrimInt32, PrimInt64,
		PrimFloat32, PrimFloat64,
	)
)

// Composite type opcodes.
const (
	opOpt     = -18
	opVec     = -19
	opRecord  = -20
	opVariant = -21
	opFunc    = -22
	opService = -23
)

func invert[K, V comparable](m map[K]V) map[V]K {
	ret := make(map[V]K, len(m))
	for k, v := range m {
		ret[v] = k
	}
	return ret
}

func (p PrimT) String() string {
	if s, ok := primToStr[p]; ok {
		return s
	}
	return "prim(" + strconv.Itoa(int(p)) + ")"
}

// OptT is an optional type.
type OptT struct {
	Elem Type
}

func (o OptT) String() string { return "opt " + o.Elem.String() }

// VecT is a sequence type.
type VecT struct {
	Elem Type
}

func (v VecT) String() string { return "vec " + v.Elem.String() }

// A TypeField is a labelled field of a record or variant type.
type TypeField struct {
	Label Label
	Type  Type
}

// RecordT is a record type.
type RecordT struct {
	Fields []TypeField
}

// Field returns the field of r with the given ID.
func (r RecordT) Field(id uint32) (TypeField, bool) {
	return findField(r.Fields, id)
}

func (r RecordT) String() string {
	if isTuple(r.Fields) {
		ts := make([]string, len(r.Fields))
		for i, f := range r.Fields {
			ts[i] = f.Type.String()
		}
		return "record { " + strings.Join(ts, "; ") + " }"
	}
	return "record " + fieldsString(r.Fields, false)
}

// VariantT is a variant type.
type VariantT struct {
	Fields []TypeField
}

// Field returns the field of v with the given ID.
func (v VariantT) Field(id uint32) (TypeField, bool) {
	return findField(v.Fields, id)
}

func (v VariantT) String() string {
	return "variant " + fieldsString(v.Fields, true)
}

// VarT is a reference to a named type declared in a [Document].
type VarT struct {
	Name string
}

func (v VarT) String() string { return v.Name }

// FuncMode is an annotation on a function type.
type FuncMode uint8

const (
	ModeQuery FuncMode = iota + 1
	ModeOneway
	ModeCompositeQuery
)

var modeToStr = map[FuncMode]string{
	ModeQuery:          "query",
	ModeOneway:         "oneway",
	ModeCompositeQuery: "composite_query",
}

var strToMode = invert(modeToStr)

func (m FuncMode) String() string { return modeToStr[m] }

// FuncT is a function type.
type FuncT struct {
	Args  []Type
	Rets  []Type
	Modes []FuncMode
}

func (f FuncT) String() string { return "func " + f.signature() }

func (f FuncT) signature() string {
	var ret strings.Builder
	ret.WriteString(typeList(f.Args))
	ret.WriteString(" -> ")
	ret.WriteString(typeList(f.Rets))
	for _, m := range f.Modes {
		ret.WriteByte(' ')
		ret.WriteString(m.String())
	}
	return ret.String()
}

// A Method is a named method of a service type. Its type is either a
// FuncT or a VarT that names one.
type Method struct {
	Name string
	Type Type
}

// ServiceT is a service type.
type ServiceT struct {
	Methods []Method
}

// Method returns the type of the named method.
func (s ServiceT) Method(name string) (Type, bool) {
	idx := slices.IndexFunc(s.Methods, func(m Method) bool { return m.Name == name })
	if idx < 0 {
		return nil, false
	}
	return s.Methods[idx].Type, true
}

func (s ServiceT) String() string { return "service " + s.body() }

// body returns the method list of s in Candid text syntax.
func (s ServiceT) body() string {
	if len(s.Methods) == 0 {
		return "{}"
	}
	var ret strings.Builder
	ret.WriteString("{ ")
	for _, m := range s.Methods {
		ret.WriteString(quoteLabel(m.Name))
		ret.WriteString(" : ")
		if f, ok := m.Type.(FuncT); ok {
			ret.WriteString(f.signature())
		} else {
			ret.WriteString(m.Type.String())
		}
		ret.WriteString("; ")
	}
	ret.WriteString("}")
	return ret.String()
}

// ClassT is the type of a service that takes initialization
// arguments. It is only used to describe those arguments.
type ClassT struct {
	Args    []Type
	Service Type
}

func (c ClassT) String() string {
	return typeList(c.Args) + " -> " + c.Service.String()
}

func (PrimT) isType()    {}
func (OptT) isType()     {}
func (VecT) isType()     {}
func (RecordT) isType()  {}
func (VariantT) isType() {}
func (VarT) isType()     {}
func (FuncT) isType()    {}
func (ServiceT) isType() {}
func (ClassT) isType()   {}

func findField(fs []TypeField, id uint32) (TypeField, bool) {
	for _, f := range fs {
		if f.Label.ID == id {
			return f, true
		}
	}
	return TypeField{}, false
}

// isTuple reports whether fs are unnamed fields labelled 0..n-1.
func isTuple(fs []TypeField) bool {
	if len(fs) == 0 {
		return false
	}
	for i, f := range fs {
		if f.Label.Name != "" || f.Label.ID != uint32(i) {
			return false
		}
	}
	return true
}

func fieldsString(fs []TypeField, isVariant bool) string {
	if len(fs) == 0 {
		return "{}"
	}
	var ret strings.Builder
	ret.WriteString("{ ")
	for i, f := range fs {
		if i > 0 {
			ret.WriteString("; ")
		}
		ret.WriteString(labelString(f.Label))
		if isVariant && f.Type == PrimNull {
			continue
		}
		ret.WriteString(" : ")
		ret.WriteString(f.Type.String())
	}
	ret.WriteString(" }")
	return ret.String()
}

func typeList(ts []Type) string {
	ss := make([]string, len(ts))
	for i, t := range ts {
		ss[i] = t.String()
	}
	return "(" + strings.Join(ss, ", ") + ")"
}

// labelString returns l in Candid text syntax.
func labelString(l Label) string {
	if l.Name == "" {
		return strconv.FormatUint(uint64(l.ID), 10)
	}
	return quoteLabel(l.Name)
}

// quoteLabel returns name as a bare identifier if possible, or as a
// quoted string otherwise.
func quoteLabel(name string) string {
	if isIdent(name) && !keywords.Has(name) {
		return name
	}
	return quoteText(name)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && '0' <= c && c <= '9':
		default:
			return false
		}
	}
	return true
}
