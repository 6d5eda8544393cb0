package idl

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Format returns v in Candid text syntax. For finite numbers, the
// output of Format can be read back with [ParseValue].
func Format(v Value) string {
	var ret strings.Builder
	format(&ret, v)
	return ret.String()
}

// FormatArgs returns vs as a Candid argument list.
func FormatArgs(vs []Value) string {
	var ret strings.Builder
	ret.WriteByte('(')
	for i, v := range vs {
		if i > 0 {
			ret.WriteString(", ")
		}
		format(&ret, v)
	}
	ret.WriteByte(')')
	return ret.String()
}

func format(out *strings.Builder, v Value) {
	switch v := v.(type) {
	case Bool:
		out.WriteString(strconv.FormatBool(bool(v)))
	case Null:
		out.WriteString("null")
	case None:
		out.WriteString("none")
	case Text:
		out.WriteString(quoteText(string(v)))
	case Number:
		out.WriteString(string(v))
	case Float64:
		s := strconv.FormatFloat(float64(v), 'g', -1, 64)
		out.WriteString(s)
		if !strings.ContainsAny(s, ".eN") {
			out.WriteString(" : float64")
		}
	case Float32:
		fmt.Fprintf(out, "%s : float32", strconv.FormatFloat(float64(v), 'g', -1, 32))
	case Nat8:
		fmt.Fprintf(out, "%d : nat8", v)
	case Nat16:
		fmt.Fprintf(out, "%d : nat16", v)
	case Nat32:
		fmt.Fprintf(out, "%d : nat32", v)
	case Nat64:
		fmt.Fprintf(out, "%d : nat64", v)
	case Int8:
		fmt.Fprintf(out, "%d : int8", v)
	case Int16:
		fmt.Fprintf(out, "%d : int16", v)
	case Int32:
		fmt.Fprintf(out, "%d : int32", v)
	case Int64:
		fmt.Fprintf(out, "%d : int64", v)
	case Nat:
		fmt.Fprintf(out, "%s : nat", bigString(v.N))
	case Int:
		fmt.Fprintf(out, "%s : int", bigString(v.N))
	case Opt:
		out.WriteString("opt ")
		format(out, v.Value)
	case Vec:
		if len(v) == 0 {
			out.WriteString("vec {}")
			return
		}
		out.WriteString("vec { ")
		for i, e := range v {
			if i > 0 {
				out.WriteString("; ")
			}
			format(out, e)
		}
		out.WriteString(" }")
	case Record:
		if len(v) == 0 {
			out.WriteString("record {}")
			return
		}
		out.WriteString("record { ")
		for i, f := range v {
			if i > 0 {
				out.WriteString("; ")
			}
			out.WriteString(labelString(f.Label))
			out.WriteString(" = ")
			format(out, f.Value)
		}
		out.WriteString(" }")
	case Variant:
		out.WriteString("variant { ")
		out.WriteString(labelString(v.Field.Label))
		if _, isNull := v.Field.Value.(Null); !isNull {
			out.WriteString(" = ")
			format(out, v.Field.Value)
		}
		out.WriteString(" }")
	case Principal:
		fmt.Fprintf(out, "principal %q", v.String())
	case Service:
		fmt.Fprintf(out, "service %q", v.Principal.String())
	case Func:
		fmt.Fprintf(out, "func %q.%s", v.Principal.String(), quoteLabel(v.Method))
	case Reserved:
		out.WriteString("reserved")
	case nil:
		out.WriteString("<nil>")
	default:
		panic(fmt.Sprintf("unknown Value type %T", v))
	}
}

// quoteText returns s as a quoted Candid text literal.
func quoteText(s string) string {
	var ret strings.Builder
	ret.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			ret.WriteString(`\"`)
		case '\\':
			ret.WriteString(`\\`)
		case '\n':
			ret.WriteString(`\n`)
		case '\r':
			ret.WriteString(`\r`)
		case '\t':
			ret.WriteString(`\t`)
		default:
			if unicode.IsPrint(r) {
				ret.WriteRune(r)
			} else {
				fmt.Fprintf(&ret, `\u{%x}`, r)
			}
		}
	}
	ret.WriteByte('"')
	return ret.String()
}
