package idl

import (
	"crypto/sha256"
	"encoding/hex"
)

// FormatBytes renders vals as a byte blob in the given format.
//
// If any element of vals is not a Nat8, vals is not a byte blob and
// FormatBytes returns ok=false.
func FormatBytes(vals []Value, f BytesFormat) (json any, ok bool) {
	bs, ok := blobBytes(vals)
	if !ok {
		return nil, false
	}
	switch f {
	case BytesHex:
		return hex.EncodeToString(bs), true
	case BytesSHA256:
		sum := sha256.Sum256(bs)
		return "Bytes with sha256: " + hex.EncodeToString(sum[:]), true
	default:
		ret := make([]any, len(bs))
		for i, b := range bs {
			ret[i] = int64(b)
		}
		return ret, true
	}
}

// formatBytes is FormatBytes with the format selected by opts.
func formatBytes(vals []Value, opts *Options) (any, bool) {
	return FormatBytes(vals, opts.bytesFormat(len(vals)))
}

// blobBytes returns vals as a byte slice, if every element is a Nat8.
func blobBytes(vals []Value) ([]byte, bool) {
	ret := make([]byte, len(vals))
	for i, v := range vals {
		b, ok := v.(Nat8)
		if !ok {
			return nil, false
		}
		ret[i] = byte(b)
	}
	return ret, true
}
