package idl

import (
	"strings"

	"github.com/creachadair/mds/mapset"
)

// A Decl is a named type declaration in a [Document].
type Decl struct {
	Name string
	Type Type
}

// A Document is a parsed schema document: a set of named type
// declarations, and optionally the type of the service it describes.
type Document struct {
	// Imports are the paths of documents imported by this one. They
	// are recorded but not loaded.
	Imports []string
	// Decls are the document's type declarations, in declaration
	// order.
	Decls []Decl
	// ServiceName is the optional name given to the service
	// declaration.
	ServiceName string
	// Service is the type of the described service: a ServiceT, a
	// VarT naming one, or a ClassT if the service takes
	// initialization arguments. Service is nil if the document does
	// not declare a service.
	Service Type
}

// Type returns the type declared with the given name.
func (d *Document) Type(name string) (Type, bool) {
	for _, decl := range d.Decls {
		if decl.Name == name {
			return decl.Type, true
		}
	}
	return nil, false
}

// InitArgs returns the initialization argument types of the
// document's service, if it declares any.
func (d *Document) InitArgs() ([]Type, bool) {
	if c, ok := d.Service.(ClassT); ok {
		return c.Args, true
	}
	return nil, false
}

// String returns the document in Candid text syntax.
func (d *Document) String() string {
	var ret strings.Builder
	for _, imp := range d.Imports {
		ret.WriteString("import ")
		ret.WriteString(quoteText(imp))
		ret.WriteString(";\n")
	}
	for _, decl := range d.Decls {
		ret.WriteString("type ")
		ret.WriteString(decl.Name)
		ret.WriteString(" = ")
		ret.WriteString(decl.Type.String())
		ret.WriteString(";\n")
	}
	if d.Service != nil {
		ret.WriteString("service ")
		if d.ServiceName != "" {
			ret.WriteString(d.ServiceName)
			ret.WriteByte(' ')
		}
		ret.WriteString(": ")
		ret.WriteString(serviceDecl(d.Service))
		ret.WriteString(";\n")
	}
	return ret.String()
}

// serviceDecl returns t as the right hand side of a service
// declaration.
func serviceDecl(t Type) string {
	switch t := t.(type) {
	case ServiceT:
		return t.body()
	case ClassT:
		return typeList(t.Args) + " -> " + serviceDecl(t.Service)
	}
	return t.String()
}

// A Schema is an ordered list of documents, queried by name.
//
// When several documents declare the same name, the first one wins.
type Schema []*Document

// Lookup returns the type declared with the given name in the first
// document that declares it.
func (s Schema) Lookup(name string) (Type, bool) {
	for _, d := range s {
		if d == nil {
			continue
		}
		if t, ok := d.Type(name); ok {
			return t, true
		}
	}
	return nil, false
}

// Resolve follows named type references until it reaches a type that
// is not a VarT. It returns false if a name is not declared, or if
// the declarations form a cycle that never reaches a concrete type.
func (s Schema) Resolve(t Type) (Type, bool) {
	seen := mapset.New[string]()
	for {
		v, ok := t.(VarT)
		if !ok {
			return t, t != nil
		}
		if seen.Has(v.Name) {
			return nil, false
		}
		seen.Add(v.Name)
		if t, ok = s.Lookup(v.Name); !ok {
			return nil, false
		}
	}
}

// Method returns the type of the named method of the service
// described by the first document that declares a service with such
// a method.
func (s Schema) Method(name string) (FuncT, bool) {
	for _, d := range s {
		if d == nil || d.Service == nil {
			continue
		}
		svc := d.Service
		if c, ok := svc.(ClassT); ok {
			svc = c.Service
		}
		resolved, ok := s.Resolve(svc)
		if !ok {
			continue
		}
		st, ok := resolved.(ServiceT)
		if !ok {
			continue
		}
		mt, ok := st.Method(name)
		if !ok {
			continue
		}
		if mt, ok = s.Resolve(mt); !ok {
			return FuncT{}, false
		}
		f, ok := mt.(FuncT)
		return f, ok
	}
	return FuncT{}, false
}
