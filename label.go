package idl

import (
	"strconv"
)

// A Label identifies a field of a record or variant.
//
// On the wire, fields are identified only by a 32-bit ID. Labels
// parsed from a schema or from textual values additionally carry the
// human-readable name the ID was derived from.
type Label struct {
	// ID is the field's wire identifier.
	ID uint32
	// Name is the field's declared name, or empty for numeric and
	// positional fields.
	Name string
}

// NamedLabel returns the Label for the given field name.
func NamedLabel(name string) Label {
	return Label{Hash(name), name}
}

// IDLabel returns a Label with a numeric ID and no name.
func IDLabel(id uint32) Label {
	return Label{ID: id}
}

// String returns the label's name if it has one, or its decimal ID
// otherwise.
func (l Label) String() string {
	if l.Name != "" {
		return l.Name
	}
	return strconv.FormatUint(uint64(l.ID), 10)
}

// Hash returns the wire ID of a named field.
func Hash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*223 + uint32(name[i])
	}
	return h
}
