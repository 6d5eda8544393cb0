package idl

import (
	"fmt"
	"strconv"
	"strings"
)

// BytesFormat selects how byte blobs are rendered in JSON.
type BytesFormat int

const (
	// BytesNumbers renders blobs as an array of numbers: [1,34,0].
	BytesNumbers BytesFormat = iota
	// BytesHex renders blobs as a lowercase hex string: "012200".
	BytesHex
	// BytesSHA256 renders blobs as a string carrying the hex SHA-256
	// digest of the blob, for payloads too large to be useful
	// verbatim.
	BytesSHA256
)

var bytesFormatNames = map[BytesFormat]string{
	BytesNumbers: "numbers",
	BytesHex:     "hex",
	BytesSHA256:  "sha256",
}

func (f BytesFormat) String() string {
	if s, ok := bytesFormatNames[f]; ok {
		return s
	}
	return "BytesFormat(" + strconv.Itoa(int(f)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (f BytesFormat) MarshalText() ([]byte, error) {
	if _, ok := bytesFormatNames[f]; !ok {
		return nil, fmt.Errorf("unknown bytes format %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *BytesFormat) UnmarshalText(bs []byte) error {
	for k, v := range bytesFormatNames {
		if v == strings.ToLower(string(bs)) {
			*f = k
			return nil
		}
	}
	return fmt.Errorf("unknown bytes format %q", bs)
}

// LongBytes overrides the rendering of byte blobs of at least MinLen
// bytes.
type LongBytes struct {
	MinLen int
	Format BytesFormat
}

// ParseLongBytes parses a LongBytes in the form "N:format", for
// example "64:hex".
func ParseLongBytes(s string) (*LongBytes, error) {
	n, f, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("invalid long bytes setting %q, want N:format", s)
	}
	ln, err := strconv.Atoi(n)
	if err != nil || ln < 0 {
		return nil, fmt.Errorf("invalid long bytes length %q", n)
	}
	ret := &LongBytes{MinLen: ln}
	if err := ret.Format.UnmarshalText([]byte(f)); err != nil {
		return nil, err
	}
	return ret, nil
}

// Options configures conversion of values to JSON.
//
// A nil *Options is valid, and uses the default for every setting.
type Options struct {
	// BytesAs is how byte blobs are rendered.
	BytesAs BytesFormat
	// LongBytes, if non-nil, overrides BytesAs for long blobs.
	LongBytes *LongBytes
	// Schema provides type definitions to resolve named type
	// references.
	//
	// Typically either no Document is available, or one Document
	// describing the remote service that produced the data. If
	// several Documents declare the same name, the first one wins.
	// It is the caller's responsibility to avoid conflicting
	// definitions.
	Schema Schema
	// Compact, if true, produces JSON without formatting
	// whitespace. It only affects [Marshal].
	Compact bool
}

// bytesFormat returns the format to use for a blob of length n.
func (o *Options) bytesFormat(n int) BytesFormat {
	if o == nil {
		return BytesNumbers
	}
	if o.LongBytes != nil && n >= o.LongBytes.MinLen {
		return o.LongBytes.Format
	}
	return o.BytesAs
}

func (o *Options) schema() Schema {
	if o == nil {
		return nil
	}
	return o.Schema
}
