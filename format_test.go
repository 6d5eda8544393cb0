package idl

import (
	"math"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{Bool(true), "true"},
		{Null{}, "null"},
		{None{}, "none"},
		{Text("a\"b\\c\n\x01"), `"a\"b\\c\n\u{1}"`},
		{Number("1_000"), "1_000"},
		{Nat8(7), "7 : nat8"},
		{Int16(-3), "-3 : int16"},
		{NatOf(5), "5 : nat"},
		{Float64(1.5), "1.5"},
		{Float64(3), "3 : float64"},
		{Float32(0.25), "0.25 : float32"},
		{Opt{Nat8(1)}, "opt 1 : nat8"},
		{Vec{}, "vec {}"},
		{Vec{Text("a"), Text("b")}, `vec { "a"; "b" }`},
		{Record{}, "record {}"},
		{
			Record{{NamedLabel("name"), Text("x")}, {IDLabel(3), Null{}}},
			`record { name = "x"; 3 = null }`,
		},
		{Record{{NamedLabel("type"), Bool(false)}}, `record { "type" = false }`},
		{Variant{Field: Field{NamedLabel("ok"), Number("5")}}, "variant { ok = 5 }"},
		{Variant{Field: Field{NamedLabel("err"), Null{}}}, "variant { err }"},
		{AnonymousPrincipal, `principal "2vxsx-fae"`},
		{Service{Principal{}}, `service "aaaaa-aa"`},
		{Func{AnonymousPrincipal, "greet"}, `func "2vxsx-fae".greet`},
		{Reserved{}, "reserved"},
	}
	for _, tc := range tests {
		if got := Format(tc.in); got != tc.want {
			t.Errorf("Format(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if got, want := FormatArgs([]Value{Bool(true), Nat8(1)}), "(true, 1 : nat8)"; got != want {
		t.Errorf("FormatArgs() = %q, want %q", got, want)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	big100 := new(big.Int).Lsh(big.NewInt(1), 100)
	tests := []Value{
		Bool(false),
		Null{},
		None{},
		Text("a\"b\\c\n\t\r\x01é"),
		Number("42"),
		Nat8(math.MaxUint8),
		Nat16(math.MaxUint16),
		Nat32(math.MaxUint32),
		Nat64(math.MaxUint64),
		Int8(math.MinInt8),
		Int16(math.MinInt16),
		Int32(math.MinInt32),
		Int64(math.MinInt64),
		Nat{big100},
		Int{new(big.Int).Neg(big100)},
		Float64(1.5),
		Float64(3),
		Float64(1e21),
		Float64(-2.5e-10),
		Float32(0.25),
		Opt{Nat8(1)},
		Opt{None{}},
		Vec{},
		Blob([]byte{1, 2, 3}),
		Vec{Vec{Text("nested")}},
		Record{},
		Record{
			{NamedLabel("type"), Text("x")},
			{IDLabel(3), Null{}},
			{NamedLabel("two words"), Opt{Bool(true)}},
		},
		TupleRecord(Text("a"), Nat16(2)),
		Variant{Field: Field{NamedLabel("ok"), Number("5")}},
		Variant{Field: Field{IDLabel(7), Null{}}},
		AnonymousPrincipal,
		Service{Principal{}},
		Func{AnonymousPrincipal, "greet"},
		Func{AnonymousPrincipal, "two words"},
		Reserved{},
	}
	for _, v := range tests {
		text := Format(v)
		got, err := ParseValue(text)
		if err != nil {
			t.Errorf("ParseValue(Format(%#v)) = %q: %v", v, text, err)
			continue
		}
		if diff := cmp.Diff(got, v, cmpBig); diff != "" {
			t.Errorf("Format round trip of %q changed value (-got+want):\n%s", text, diff)
		}
	}
}
