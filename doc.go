// Package cbor implements a CBOR (RFC 8949) codec over a closed Value model.
//
// Encoding is canonical: every head uses the shortest form, containers are
// always definite-length, and floats shrink to single precision whenever that
// is exact. Decoding is permissive and accepts indefinite-length strings,
// arrays and maps.
//
// Tags 1 through 4 are interpreted by the codec and never surface as Tagged:
//
//	1  epoch timestamp     <-> Timestamp
//	2  positive bignum     <-> BigInt
//	3  negative bignum     <-> BigInt
//	4  decimal fraction    <-> Decimal
//
// Any other tag decodes to Tagged and encodes back unchanged.
//
// For one-shot use:
//
//	data := cbor.Encode(cbor.Map{{Key: cbor.Text("count"), Value: cbor.Int(42)}})
//	v, err := cbor.Decode(data)
//
// Go values that are not Values can be converted with ValueOf or encoded
// directly with Marshal. For several values sharing one buffer use Encoder
// and Decoder.
package cbor
