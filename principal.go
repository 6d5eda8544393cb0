package idl

import (
	"bytes"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

// MaxPrincipalLen is the maximum length in bytes of a principal.
const MaxPrincipalLen = 29

// A Principal is an opaque identity reference, such as the address
// of a remote service or of a caller.
type Principal []byte

// AnonymousPrincipal is the principal of unauthenticated callers.
var AnonymousPrincipal = Principal{0x04}

var principalEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// String returns the textual form of the principal: the base32
// encoding of its CRC-32 checksum followed by its bytes, in lower
// case, with a dash every 5 characters.
func (p Principal) String() string {
	raw := make([]byte, 4, 4+len(p))
	binary.BigEndian.PutUint32(raw, crc32.ChecksumIEEE(p))
	raw = append(raw, p...)
	enc := strings.ToLower(principalEncoding.EncodeToString(raw))

	var ret strings.Builder
	for i := 0; i < len(enc); i += 5 {
		if i > 0 {
			ret.WriteByte('-')
		}
		ret.WriteString(enc[i:min(i+5, len(enc))])
	}
	return ret.String()
}

// IsAnonymous reports whether p is the anonymous principal.
func (p Principal) IsAnonymous() bool {
	return bytes.Equal(p, AnonymousPrincipal)
}

// Equal reports whether p and o are the same principal.
func (p Principal) Equal(o Principal) bool {
	return bytes.Equal(p, o)
}

// ParsePrincipal parses the textual form of a principal.
func ParsePrincipal(s string) (Principal, error) {
	raw, err := principalEncoding.DecodeString(strings.ToUpper(strings.ReplaceAll(s, "-", "")))
	if err != nil {
		return nil, fmt.Errorf("invalid principal %q: %w", s, err)
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("invalid principal %q: too short", s)
	}
	ret := Principal(raw[4:])
	if len(ret) > MaxPrincipalLen {
		return nil, fmt.Errorf("invalid principal %q: longer than %d bytes", s, MaxPrincipalLen)
	}
	if binary.BigEndian.Uint32(raw) != crc32.ChecksumIEEE(ret) {
		return nil, fmt.Errorf("invalid principal %q: %w", s, errors.New("checksum mismatch"))
	}
	// Reject non-canonical spellings, such as misplaced dashes.
	if ret.String() != s {
		return nil, fmt.Errorf("invalid principal %q: not in canonical form, want %q", s, ret.String())
	}
	return ret, nil
}
