package idl

import (
	"bytes"
	"encoding/json"
)

// A Member is one key/value pair of an [Object].
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object that preserves the order of its members.
type Object []Member

// Get returns the value of the first member with the given key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys of o's members, in order.
func (o Object) Keys() []string {
	ret := make([]string, len(o))
	for i, m := range o {
		ret[i] = m.Key
	}
	return ret
}

// MarshalJSON implements json.Marshaler.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encode terminates every value with a newline, which must be
	// trimmed to splice values together.
	encode := func(v any) error {
		if err := enc.Encode(v); err != nil {
			return err
		}
		buf.Truncate(buf.Len() - 1)
		return nil
	}

	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(m.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encode(m.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Marshal returns the JSON encoding of j, a value produced by
// [ToJSON] or one of its variants. The output is indented by two
// spaces per level, unless opts.Compact is set.
func Marshal(j any, opts *Options) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if opts == nil || !opts.Compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(j); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
