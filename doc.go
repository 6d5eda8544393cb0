// Package idl converts Candid values to JSON.
//
// Candid is the self-describing binary format used to exchange
// arguments and results with remote services. [Decode] turns a binary
// message into a list of [Value]s, and [ToJSON] converts each value to
// a JSON tree, which [Marshal] renders.
//
// The wire format carries the structure of values but not the names
// of their fields: records and variants decode with numeric field IDs
// only. To recover names, parse a schema document describing the
// remote service with [ParseDocument], and convert values with
// [ToJSONWithType] or [ArgsToJSONWithTypes]. Schema-directed
// conversion is best effort: wherever the schema and the value
// disagree, or the schema refers to a type it doesn't declare, the
// value is converted as if no schema were provided. Conversion never
// drops or invents data, and never fails.
//
// Values convert to JSON as follows:
//
// bool, text and null convert to JSON booleans, strings and null.
//
// nat8, nat16, nat32, int8, int16 and int32 convert to JSON numbers.
// nat64, int64, nat and int convert to strings holding the decimal
// value, since JSON numbers cannot represent them exactly.
//
// float32 and float64 convert to JSON numbers, or to the string "NaN"
// if the value is not finite.
//
// A present optional value converts to a one-element array, and an
// absent one to an empty array.
//
// A vector of nat8 is a byte blob, and converts according to
// [Options.BytesAs] and [Options.LongBytes]: an array of numbers, a
// hex string, or a string holding the blob's SHA-256 digest. Other
// vectors convert to arrays.
//
// Records convert to objects with one key per field, in the order the
// fields were decoded. Variants convert to objects with a single key.
//
// Principals and service references convert to the textual form of
// the principal. Function references convert to an object with
// "principal" and "code" keys, holding the principal and the method
// name.
//
// Untyped numbers, from parsed Candid text, convert to their literal
// text.
//
// To make calls, the argument list is shaped into a [Tuple] with
// [ToTuple], which holds between 0 and [MaxArity] values, and encoded
// with [EncodeTuple]. Longer argument lists are rejected with an
// [ArityError].
package idl
