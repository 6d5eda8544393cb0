package idl

import (
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeBytes(t *testing.T) {
	tests := []struct {
		name string
		in   []Value
		want string
	}{
		{"no args", nil, "DIDL\x00\x00"},
		{"bool", []Value{Bool(true)}, "DIDL\x00\x01\x7e\x01"},
		{"nat8", []Value{Nat8(10)}, "DIDL\x00\x01\x7b\x0a"},
		{"number as int", []Value{Number("-1")}, "DIDL\x00\x01\x7c\x7f"},
		{"text", []Value{Text("hi")}, "DIDL\x00\x01\x71\x02hi"},
		{"nat16 little endian", []Value{Nat16(0x0102)}, "DIDL\x00\x01\x7a\x02\x01"},
		{"blob", []Value{Blob([]byte{0x0a, 0xff})}, "DIDL\x01\x6d\x7b\x01\x00\x02\x0a\xff"},
		{
			"record",
			[]Value{Record{{IDLabel(1), Text("x")}}},
			"DIDL\x01\x6c\x01\x01\x71\x01\x00\x01x",
		},
		{
			"record fields sorted by id",
			[]Value{Record{{IDLabel(2), Bool(false)}, {IDLabel(1), Bool(true)}}},
			"DIDL\x01\x6c\x02\x01\x7e\x02\x7e\x01\x00\x01\x00",
		},
		{
			"shared type table entry",
			[]Value{Opt{Bool(true)}, None{}, Opt{Bool(false)}},
			"DIDL\x02\x6e\x7e\x6e\x6f\x03\x00\x01\x00\x01\x01\x00\x01\x00",
		},
		{"principal", []Value{AnonymousPrincipal}, "DIDL\x00\x01\x68\x01\x01\x04"},
		{"reserved", []Value{Reserved{}}, "DIDL\x00\x01\x70"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("Encode wrong output:\ngot:  %q\nwant: %q", got, tc.want)
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	big100 := new(big.Int).Lsh(big.NewInt(1), 100)
	tests := []struct {
		name string
		in   Value
		// want is the decoded value, if different from in.
		want Value
	}{
		{name: "bool", in: Bool(true)},
		{name: "null", in: Null{}},
		{name: "text", in: Text("héllo")},
		{name: "empty text", in: Text("")},
		{name: "nat8", in: Nat8(math.MaxUint8)},
		{name: "nat16", in: Nat16(math.MaxUint16)},
		{name: "nat32", in: Nat32(math.MaxUint32)},
		{name: "nat64", in: Nat64(math.MaxUint64)},
		{name: "int8", in: Int8(math.MinInt8)},
		{name: "int16", in: Int16(math.MinInt16)},
		{name: "int32", in: Int32(math.MinInt32)},
		{name: "int64", in: Int64(math.MinInt64)},
		{name: "float32", in: Float32(1.5)},
		{name: "float64", in: Float64(-0.1)},
		{name: "float64 inf", in: Float64(math.Inf(1))},
		{name: "nat", in: Nat{big100}},
		{name: "int", in: Int{new(big.Int).Neg(big100)}},
		{name: "number", in: Number("0x10"), want: IntOf(16)},
		{name: "opt", in: Opt{Text("x")}},
		{name: "none", in: None{}},
		{name: "opt none", in: Opt{None{}}},
		{name: "empty vec", in: Vec{}},
		{name: "blob", in: Blob([]byte{0, 1, 255})},
		{name: "vec of vec", in: Vec{Vec{Nat16(1)}, Vec{}, Vec{Nat16(2), Nat16(3)}}},
		{name: "vec of opts", in: Vec{None{}, Opt{Nat8(1)}, None{}}},
		{name: "empty record", in: Record{}},
		{name: "tuple", in: TupleRecord(Text("a"), Bool(false))},
		{
			name: "named record",
			in:   Record{{NamedLabel("name"), Text("x")}, {NamedLabel("age"), Nat8(3)}},
			want: Record{{IDLabel(Hash("age")), Nat8(3)}, {IDLabel(Hash("name")), Text("x")}},
		},
		{name: "variant", in: Variant{Field: Field{IDLabel(3), Text("x")}}},
		{
			name: "vec of variants",
			in: Vec{
				Variant{Field: Field{NamedLabel("ok"), Nat8(1)}},
				Variant{Field: Field{NamedLabel("err"), Text("x")}},
			},
			want: Vec{
				Variant{Field{IDLabel(Hash("ok")), Nat8(1)}, 0},
				Variant{Field{IDLabel(Hash("err")), Text("x")}, 1},
			},
		},
		{
			name: "vec of records with opts",
			in: Vec{
				Record{{IDLabel(0), None{}}},
				Record{{IDLabel(0), Opt{Text("x")}}},
			},
		},
		{name: "principal", in: AnonymousPrincipal},
		{name: "empty principal", in: Principal{}},
		{name: "service", in: Service{Principal{1, 2, 3}}},
		{name: "func", in: Func{AnonymousPrincipal, "greet"}},
		{name: "reserved", in: Reserved{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bs, err := Encode([]Value{tc.in})
			if err != nil {
				t.Fatalf("Encode(%s): %v", Format(tc.in), err)
			}
			got, err := Decode(bs)
			if err != nil {
				t.Fatalf("Decode(%q): %v", bs, err)
			}
			want := tc.want
			if want == nil {
				want = tc.in
			}
			if diff := cmp.Diff(got, []Value{want}, cmpBig); diff != "" {
				t.Errorf("round trip of %s wrong (-got+want):\n%s", Format(tc.in), diff)
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   Value
	}{
		{"nil", nil},
		{"mixed vec", Vec{Nat8(1), Text("x")}},
		{"mixed vec of opts", Vec{Opt{Nat8(1)}, Opt{Text("x")}}},
		{"duplicate fields", Record{{NamedLabel("a"), Bool(true)}, {IDLabel(97), Bool(false)}}},
		{"invalid text", Text("\xff")},
		{"negative nat", Nat{big.NewInt(-1)}},
		{"long principal", Principal(make([]byte, MaxPrincipalLen+1))},
		{"bad number", Number("1.5")},
		{"nested", Opt{Vec{Nat8(1), Nat16(1)}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode([]Value{tc.in})
			if err == nil {
				t.Fatalf("Encode() = %q, want error", got)
			}
			var te TypeError
			if !errors.As(err, &te) {
				t.Errorf("Encode() error %v is not a TypeError", err)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"bad magic", "DIDM\x00\x00"},
		{"trailing bytes", "DIDL\x00\x00\x00"},
		{"missing value", "DIDL\x00\x01\x7e"},
		{"invalid bool", "DIDL\x00\x01\x7e\x02"},
		{"unknown opcode", "DIDL\x01\x50\x00\x01\x00"},
		{"unknown primitive", "DIDL\x00\x01\x50"},
		{"type ref out of range", "DIDL\x00\x01\x05"},
		{"element ref out of range", "DIDL\x01\x6d\x01\x01\x00\x00"},
		{"empty value", "DIDL\x00\x01\x6f"},
		{"invalid utf8", "DIDL\x00\x01\x71\x02\xff\xfe"},
		{"opaque principal", "DIDL\x00\x01\x68\x00"},
		{"long principal", "DIDL\x00\x01\x68\x01\x1e" + string(make([]byte, 30))},
		{"invalid opt tag", "DIDL\x01\x6e\x7e\x01\x00\x02"},
		{"variant index", "DIDL\x01\x6b\x01\x00\x7f\x01\x00\x01"},
		{"duplicate field", "DIDL\x01\x6c\x02\x01\x7f\x01\x7f\x01\x00"},
		{"fields out of order", "DIDL\x01\x6c\x02\x02\x7f\x01\x7f\x01\x00"},
		{"huge vec", "DIDL\x01\x6d\x7f\x01\x00\xff\xff\xff\x7f"},
		{"infinite record", "DIDL\x01\x6c\x01\x00\x00\x01\x00"},
		{"truncated text", "DIDL\x00\x01\x71\x05hi"},
		{"unknown func mode", "DIDL\x01\x6a\x00\x00\x01\x09\x00"},
		{"service methods out of order", "DIDL\x02\x6a\x00\x00\x00\x69\x02\x01b\x00\x01a\x00\x00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode([]byte(tc.in))
			if err == nil {
				t.Fatalf("Decode(%q) = %s, want error", tc.in, FormatArgs(got))
			}
			var de DecodeError
			if !errors.As(err, &de) {
				t.Errorf("Decode(%q) error %v is not a DecodeError", tc.in, err)
			}
		})
	}
}

func TestDecodeHugeInt(t *testing.T) {
	const n = 1 << 20
	msg := "DIDL\x00\x01\x7c" + strings.Repeat("\xff", n) + "\x00"

	start := time.Now()
	vals, err := Decode([]byte(msg))
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("decoding a %d byte int took %v", n, elapsed)
	}
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(vals) != 1 {
		t.Fatalf("got %d values, want 1", len(vals))
	}
	i, ok := vals[0].(Int)
	if !ok {
		t.Fatalf("decoded %T, want Int", vals[0])
	}
	if got, want := i.N.BitLen(), 7*n; got != want || i.N.Sign() < 0 {
		t.Errorf("decoded int has %d bits (sign %d), want %d positive", got, i.N.Sign(), want)
	}
}
