package fragments

import (
	"encoding/binary"
	"math"
	"math/big"
)

// Magic is the prefix of every Candid message.
const Magic = "DIDL"

// An Encoder provides utilities to write a Candid wire format message
// to a byte slice.
//
// The zero value is ready to use.
type Encoder struct {
	// Out is the encoded output.
	Out []byte
}

// Write writes bs as-is to the output. It is the caller's
// responsibility to ensure correct framing.
func (e *Encoder) Write(bs []byte) {
	e.Out = append(e.Out, bs...)
}

// Magic writes the Candid message prefix.
func (e *Encoder) Magic() {
	e.Out = append(e.Out, Magic...)
}

// Bool writes a boolean as a single byte.
func (e *Encoder) Bool(b bool) {
	if b {
		e.Out = append(e.Out, 1)
	} else {
		e.Out = append(e.Out, 0)
	}
}

// Uint8 writes a uint8.
func (e *Encoder) Uint8(u8 uint8) {
	e.Out = append(e.Out, u8)
}

// Uint16 writes uint16.
func (e *Encoder) Uint16(u16 uint16) {
	e.Out = binary.LittleEndian.AppendUint16(e.Out, u16)
}

// Uint32 writes uint32.
func (e *Encoder) Uint32(u32 uint32) {
	e.Out = binary.LittleEndian.AppendUint32(e.Out, u32)
}

// Uint64 writes uint64.
func (e *Encoder) Uint64(u64 uint64) {
	e.Out = binary.LittleEndian.AppendUint64(e.Out, u64)
}

// Float32 writes an IEEE 754 single precision float.
func (e *Encoder) Float32(f float32) {
	e.Uint32(math.Float32bits(f))
}

// Float64 writes an IEEE 754 double precision float.
func (e *Encoder) Float64(f float64) {
	e.Uint64(math.Float64bits(f))
}

// Uleb writes u as an unsigned LEB128 number.
func (e *Encoder) Uleb(u uint64) {
	// Unsigned LEB128 and Go's uvarint are the same encoding.
	e.Out = binary.AppendUvarint(e.Out, u)
}

// Sleb writes i as a signed LEB128 number.
func (e *Encoder) Sleb(i int64) {
	for {
		b := byte(i & 0x7f)
		i >>= 7
		if (i == 0 && b&0x40 == 0) || (i == -1 && b&0x40 != 0) {
			e.Out = append(e.Out, b)
			return
		}
		e.Out = append(e.Out, b|0x80)
	}
}

// BigUleb writes a non-negative arbitrary precision integer as an
// unsigned LEB128 number. Negative values are written as zero.
func (e *Encoder) BigUleb(n *big.Int) {
	if n.Sign() <= 0 {
		e.Out = append(e.Out, 0)
		return
	}
	if n.IsUint64() {
		e.Uleb(n.Uint64())
		return
	}
	var (
		v    = new(big.Int).Set(n)
		low  = new(big.Int)
		mask = big.NewInt(0x7f)
	)
	for {
		b := byte(low.And(v, mask).Uint64())
		v.Rsh(v, 7)
		if v.Sign() == 0 {
			e.Out = append(e.Out, b)
			return
		}
		e.Out = append(e.Out, b|0x80)
	}
}

// BigSleb writes an arbitrary precision integer as a signed LEB128
// number.
func (e *Encoder) BigSleb(n *big.Int) {
	if n.IsInt64() {
		e.Sleb(n.Int64())
		return
	}
	var (
		v    = new(big.Int).Set(n)
		low  = new(big.Int)
		mask = big.NewInt(0x7f)
	)
	for {
		// big.Int.And on negative values uses two's complement
		// semantics, and Rsh rounds towards negative infinity, which
		// is exactly the arithmetic shift SLEB128 wants.
		b := byte(low.And(v, mask).Uint64())
		v.Rsh(v, 7)
		done := (v.Sign() == 0 && b&0x40 == 0) || (v.Cmp(bigMinusOne) == 0 && b&0x40 != 0)
		if done {
			e.Out = append(e.Out, b)
			return
		}
		e.Out = append(e.Out, b|0x80)
	}
}

var bigMinusOne = big.NewInt(-1)

// Bytes writes bs to the output, prefixed by its length.
func (e *Encoder) Bytes(bs []byte) {
	e.Uleb(uint64(len(bs)))
	e.Out = append(e.Out, bs...)
}

// String writes s to the output, prefixed by its length.
func (e *Encoder) String(s string) {
	e.Uleb(uint64(len(s)))
	e.Out = append(e.Out, s...)
}
