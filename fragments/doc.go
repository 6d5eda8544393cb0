// package fragments provides low-level encoding and decoding helpers
// to construct and parse Candid messages.
//
// The provided encoder and decoder are very low level, and do not
// encode any Candid semantics beyond the shape of individual
// primitives. It is the caller's responsibility to produce valid
// messages using these tools: type tables, argument lists and value
// framing are the job of the idl package.
//
// All multi-byte fixed-width values are little-endian, and all
// variable-length integers are LEB128 encoded, as required by the
// Candid binary format.
package fragments
