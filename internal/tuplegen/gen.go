// Package tuplegen generates the fixed-size tuple types of package
// idl.
package tuplegen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"strings"
)

type generator struct {
	out bytes.Buffer
}

// Tuples returns the Go source of Tuple0 through TupleN, for
// n=maxArity, and of the tupleOf constructor that picks between them,
// as members of package pkg.
func Tuples(pkg string, maxArity int) (string, error) {
	if pkg == "" {
		return "", errors.New("no package name provided")
	}
	if maxArity < 0 {
		return "", fmt.Errorf("invalid max arity %d", maxArity)
	}
	var g generator
	g.f("// Code generated by gentuples. DO NOT EDIT.\n\npackage %s\n", pkg)
	for n := range maxArity + 1 {
		g.tuple(n)
	}
	g.constructor(maxArity)

	ret, err := format.Source(g.out.Bytes())
	if err != nil {
		return g.out.String(), err
	}
	return string(ret), nil
}

func (g *generator) s(s string) {
	g.out.WriteString(s)
}

func (g *generator) f(msg string, args ...any) {
	fmt.Fprintf(&g.out, msg, args...)
}

func (g *generator) tuple(n int) {
	name := fmt.Sprintf("Tuple%d", n)
	g.f("\n// %s is a Tuple of %d values.\n", name, n)
	if n == 0 {
		g.f("type %s[T any] struct{}\n", name)
	} else {
		g.f("type %s[T any] struct {\n\t%s T\n}\n", name, fields("V", n))
	}
	g.f("\nfunc (%s[T]) Len() int { return %d }\n", name, n)
	if n == 0 {
		g.f("\nfunc (%s[T]) Values() []T { return []T{} }\n", name)
	} else {
		g.f("\nfunc (t %s[T]) Values() []T { return []T{%s} }\n", name, fields("t.V", n))
	}
	g.f("\nfunc (%s[T]) sealedTuple() {}\n", name)
}

func (g *generator) constructor(maxArity int) {
	g.s(`
// tupleOf returns vs as the Tuple of matching size, or nil if vs
// is too long.
func tupleOf[T any](vs []T) Tuple[T] {
	switch len(vs) {
`)
	for n := range maxArity + 1 {
		g.f("case %d:\n\treturn Tuple%d[T]{", n, n)
		for i := range n {
			if i > 0 {
				g.s(", ")
			}
			g.f("vs[%d]", i)
		}
		g.s("}\n")
	}
	g.s("}\nreturn nil\n}\n")
}

// fields returns "pfx0, pfx1, ..." for n fields.
func fields(pfx string, n int) string {
	ret := make([]string, n)
	for i := range ret {
		ret[i] = fmt.Sprintf("%s%d", pfx, i)
	}
	return strings.Join(ret, ", ")
}
