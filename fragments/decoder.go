package fragments

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
)

// ErrOverflow is returned when a LEB128 number does not fit in the
// requested width.
var ErrOverflow = errors.New("LEB128 value overflows")

// A Decoder provides utilities to read a Candid wire format message
// from a byte slice.
type Decoder struct {
	// In is the input to read.
	In []byte

	// offset is the number of bytes consumed off the front of In so
	// far.
	offset int
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.offset
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.In) - d.offset
}

// Read reads n bytes, with no framing. The returned slice aliases the
// decoder's input.
func (d *Decoder) Read(n int) ([]byte, error) {
	if n < 0 || n > d.Remaining() {
		return nil, io.ErrUnexpectedEOF
	}
	ret := d.In[d.offset : d.offset+n]
	d.offset += n
	return ret, nil
}

// Magic reads and checks the Candid message prefix.
func (d *Decoder) Magic() error {
	bs, err := d.Read(len(Magic))
	if err != nil {
		return fmt.Errorf("reading magic: %w", err)
	}
	if string(bs) != Magic {
		return fmt.Errorf("wrong magic %q, want %q", bs, Magic)
	}
	return nil
}

// Bool reads a single-byte boolean.
func (d *Decoder) Bool() (bool, error) {
	u8, err := d.Uint8()
	if err != nil {
		return false, err
	}
	switch u8 {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("invalid boolean byte 0x%02x", u8)
	}
}

// Uint8 reads a uint8.
func (d *Decoder) Uint8() (uint8, error) {
	bs, err := d.Read(1)
	if err != nil {
		return 0, err
	}
	return bs[0], nil
}

// Uint16 reads a uint16.
func (d *Decoder) Uint16() (uint16, error) {
	bs, err := d.Read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(bs), nil
}

// Uint32 reads a uint32.
func (d *Decoder) Uint32() (uint32, error) {
	bs, err := d.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(bs), nil
}

// Uint64 reads a uint64.
func (d *Decoder) Uint64() (uint64, error) {
	bs, err := d.Read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(bs), nil
}

// Float32 reads an IEEE 754 single precision float.
func (d *Decoder) Float32() (float32, error) {
	u, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

// Float64 reads an IEEE 754 double precision float.
func (d *Decoder) Float64() (float64, error) {
	u, err := d.Uint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// Uleb reads an unsigned LEB128 number that fits in a uint64.
func (d *Decoder) Uleb() (uint64, error) {
	var (
		ret   uint64
		shift uint
	)
	for {
		b, err := d.Uint8()
		if err != nil {
			return 0, err
		}
		if shift == 63 && b > 1 {
			return 0, ErrOverflow
		}
		ret |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return ret, nil
		}
		shift += 7
		if shift > 63 {
			return 0, ErrOverflow
		}
	}
}

// Sleb reads a signed LEB128 number that fits in an int64.
func (d *Decoder) Sleb() (int64, error) {
	n, err := d.BigSleb()
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() {
		return 0, ErrOverflow
	}
	return n.Int64(), nil
}

// BigUleb reads an unsigned LEB128 number of arbitrary size.
func (d *Decoder) BigUleb() (*big.Int, error) {
	bs, err := d.lebBytes()
	if err != nil {
		return nil, err
	}
	return lebValue(bs), nil
}

// BigSleb reads a signed LEB128 number of arbitrary size.
func (d *Decoder) BigSleb() (*big.Int, error) {
	bs, err := d.lebBytes()
	if err != nil {
		return nil, err
	}
	ret := lebValue(bs)
	if bs[len(bs)-1]&0x40 != 0 {
		// Sign extend.
		ret.Sub(ret, new(big.Int).Lsh(big.NewInt(1), uint(7*len(bs))))
	}
	return ret, nil
}

// lebBytes reads the bytes of one LEB128 number, up to and including
// the first byte without the continuation bit.
func (d *Decoder) lebBytes() ([]byte, error) {
	for i, b := range d.In[d.offset:] {
		if b&0x80 == 0 {
			return d.Read(i + 1)
		}
	}
	return nil, io.ErrUnexpectedEOF
}

// lebValue assembles the 7-bit groups of a LEB128 number into an
// unsigned integer. It runs in time linear in len(groups).
func lebValue(groups []byte) *big.Int {
	buf := make([]byte, (7*len(groups)+7)/8)
	var (
		acc   uint
		nbits uint
		i     = len(buf) - 1
	)
	for _, g := range groups {
		acc |= uint(g&0x7f) << nbits
		nbits += 7
		for nbits >= 8 {
			buf[i] = byte(acc)
			i--
			acc >>= 8
			nbits -= 8
		}
	}
	if nbits > 0 {
		buf[i] = byte(acc)
	}
	return new(big.Int).SetBytes(buf)
}

// Len reads a LEB128 length prefix, and checks that it is no larger
// than the remaining input when each counted item occupies at least
// minItemSize bytes.
func (d *Decoder) Len(minItemSize int) (int, error) {
	n, err := d.Uleb()
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("length %d too large", n)
	}
	if minItemSize > 0 && int(n) > d.Remaining()/minItemSize {
		return 0, fmt.Errorf("length %d exceeds remaining input: %w", n, io.ErrUnexpectedEOF)
	}
	return int(n), nil
}

// Bytes reads a length-prefixed byte string. The returned slice
// aliases the decoder's input.
func (d *Decoder) Bytes() ([]byte, error) {
	ln, err := d.Len(1)
	if err != nil {
		return nil, err
	}
	return d.Read(ln)
}

// String reads a length-prefixed string.
func (d *Decoder) String() (string, error) {
	bs, err := d.Bytes()
	if err != nil {
		return "", err
	}
	return string(bs), nil
}
