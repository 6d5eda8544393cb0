package idl

import (
	"math"
	"strconv"
)

// ToJSON converts v to a JSON tree, without type information.
//
// The returned tree is made of nil, bool, string, int64, float64,
// []any and [Object] values, and can be rendered with [Marshal] or
// encoding/json. Integers of 64 bits and wider are rendered as
// decimal strings, since JSON numbers cannot represent them exactly.
// Non-finite floats are rendered as the string "NaN". Record keys
// are the fields' labels, or their numeric IDs for unnamed fields.
//
// ToJSON never fails: every value has a JSON rendering.
func ToJSON(v Value, opts *Options) any {
	switch v := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(v)
	case None:
		return []any{}
	case Text:
		return string(v)
	case Number:
		return string(v)
	case Float64:
		return jsonFloat(float64(v))
	case Float32:
		return jsonFloat(float64(v))
	case Nat8:
		return int64(v)
	case Nat16:
		return int64(v)
	case Nat32:
		return int64(v)
	case Int8:
		return int64(v)
	case Int16:
		return int64(v)
	case Int32:
		return int64(v)
	case Nat64:
		return strconv.FormatUint(uint64(v), 10)
	case Int64:
		return strconv.FormatInt(int64(v), 10)
	case Nat:
		return bigString(v.N)
	case Int:
		return bigString(v.N)
	case Opt:
		return []any{ToJSON(v.Value, opts)}
	case Vec:
		if ret, ok := formatBytes(v, opts); ok {
			return ret
		}
		ret := make([]any, len(v))
		for i, e := range v {
			ret[i] = ToJSON(e, opts)
		}
		return ret
	case Record:
		ret := make(Object, len(v))
		for i, f := range v {
			ret[i] = Member{f.Label.String(), ToJSON(f.Value, opts)}
		}
		return ret
	case Variant:
		return Object{{v.Field.Label.String(), ToJSON(v.Field.Value, opts)}}
	case Principal:
		return v.String()
	case Service:
		return v.Principal.String()
	case Func:
		return Object{
			{"principal", v.Principal.String()},
			{"code", v.Method},
		}
	case Reserved:
		return "reserved"
	default:
		// Unreachable for the Value types of this package.
		return Format(v)
	}
}

// ToJSONWithType converts v to a JSON tree like [ToJSON], using t to
// name record and variant fields.
//
// Named types in t are resolved through opts.Schema. Where v and t
// disagree on shape, or a named type cannot be resolved, the
// affected subtree is converted as by ToJSON. The type only renames
// keys: the output always holds exactly the fields of v, in v's
// order.
func ToJSONWithType(v Value, t Type, opts *Options) any {
	if t == nil {
		return ToJSON(v, opts)
	}
	t, ok := opts.schema().Resolve(t)
	if !ok {
		return ToJSON(v, opts)
	}

	// Byte blobs take precedence over any declared type.
	if vs, ok := v.(Vec); ok {
		if ret, ok := formatBytes(vs, opts); ok {
			return ret
		}
	}

	switch v := v.(type) {
	case Opt:
		if ot, ok := t.(OptT); ok {
			return []any{ToJSONWithType(v.Value, ot.Elem, opts)}
		}
	case Vec:
		if vt, ok := t.(VecT); ok {
			ret := make([]any, len(v))
			for i, e := range v {
				ret[i] = ToJSONWithType(e, vt.Elem, opts)
			}
			return ret
		}
	case Record:
		if rt, ok := t.(RecordT); ok {
			ret := make(Object, len(v))
			for i, f := range v {
				ret[i] = fieldJSON(f, rt.Fields, opts)
			}
			return ret
		}
	case Variant:
		if vt, ok := t.(VariantT); ok {
			return Object{fieldJSON(v.Field, vt.Fields, opts)}
		}
	}
	return ToJSON(v, opts)
}

// fieldJSON converts f, named and typed by the matching field of fs
// if there is one.
func fieldJSON(f Field, fs []TypeField, opts *Options) Member {
	tf, ok := findField(fs, f.Label.ID)
	if !ok {
		return Member{f.Label.String(), ToJSON(f.Value, opts)}
	}
	return Member{tf.Label.String(), ToJSONWithType(f.Value, tf.Type, opts)}
}

// ArgsToJSON converts an argument list to a JSON array.
func ArgsToJSON(args []Value, opts *Options) []any {
	return ArgsToJSONWithTypes(args, nil, opts)
}

// ArgsToJSONWithTypes converts an argument list to a JSON array,
// using types[i] as the type of args[i]. Arguments beyond the end of
// types are converted without type information.
func ArgsToJSONWithTypes(args []Value, types []Type, opts *Options) []any {
	ret := make([]any, len(args))
	for i, a := range args {
		if i < len(types) {
			ret[i] = ToJSONWithType(a, types[i], opts)
		} else {
			ret[i] = ToJSON(a, opts)
		}
	}
	return ret
}

func jsonFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "NaN"
	}
	return f
}
