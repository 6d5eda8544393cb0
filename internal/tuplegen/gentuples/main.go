// Command gentuples writes the tuple types of package idl.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/creachadair/flax"
	"github.com/danderson/idl/internal/tuplegen"
)

var args struct {
	Out      string `flag:"out,Output file (default stdout)"`
	Package  string `flag:"package,default=idl,Package name of the generated file"`
	MaxArity int    `flag:"max-arity,default=10,Largest tuple to generate"`
}

func main() {
	flax.MustBind(flag.CommandLine, &args)
	flag.Parse()

	src, err := tuplegen.Tuples(args.Package, args.MaxArity)
	if err != nil {
		log.Fatalf("generating tuples: %v", err)
	}
	if args.Out == "" {
		os.Stdout.WriteString(src)
		return
	}
	if err := os.WriteFile(args.Out, []byte(src), 0644); err != nil {
		log.Fatalf("writing output: %v", err)
	}
}
