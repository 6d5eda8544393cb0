package idl

import (
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// cmpBig compares *big.Int by value, with nil equal to zero.
var cmpBig = cmp.Comparer(func(a, b *big.Int) bool {
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	return a.Cmp(b) == 0
})

func mustPrincipal(t *testing.T, s string) Principal {
	t.Helper()
	ret, err := ParsePrincipal(s)
	if err != nil {
		t.Fatalf("ParsePrincipal(%q): %v", s, err)
	}
	return ret
}

func mustDocument(t *testing.T, s string) *Document {
	t.Helper()
	ret, err := ParseDocument(s)
	if err != nil {
		t.Fatalf("ParseDocument(%q): %v", s, err)
	}
	return ret
}

func mustType(t *testing.T, s string) Type {
	t.Helper()
	ret, err := ParseType(s)
	if err != nil {
		t.Fatalf("ParseType(%q): %v", s, err)
	}
	return ret
}

func bigFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	ret, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("invalid big int %q", s)
	}
	return ret
}
