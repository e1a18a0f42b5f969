package cbor

import (
	"bytes"
	"math"
	"math/big"
	"testing"
	"time"
)

// TestRoundTrip tests that decode(encode(v)) is v for every variant
func TestRoundTrip(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	negHuge := new(big.Int).Neg(huge)
	d, err := ParseDecimal("-0.000123450")
	if err != nil {
		t.Fatal(err)
	}
	testCases := []struct {
		name  string
		value Value
	}{
		{"int", Int(42)},
		{"negative int", Int(-42)},
		{"max int64", Int(math.MaxInt64)},
		{"min int64", Int(math.MinInt64)},
		{"uint64 beyond int64", NewBigInt(new(big.Int).SetUint64(math.MaxUint64))},
		{"bignum", NewBigInt(huge)},
		{"negative bignum", NewBigInt(negHuge)},
		{"single", Float(0.5)},
		{"double", Float(math.Pi)},
		{"infinity", Float(math.Inf(1))},
		{"NaN", Float(math.NaN())},
		{"bytes", Bytes{0, 1, 2, 0xff}},
		{"text", Text("水")},
		{"array", Array{Int(1), Text("two"), Array{Null{}, Undefined{}}}},
		{"map", Map{
			{Key: Int(1), Value: Text("int key")},
			{Key: Array{Int(1)}, Value: Text("array key")},
			{Key: Text("x"), Value: Map{{Key: Bool(true), Value: Float(2.5)}}},
		}},
		{"duplicate keys", Map{{Key: Text("k"), Value: Int(1)}, {Key: Text("k"), Value: Int(2)}}},
		{"tagged", Tagged{Tag: 55799, Value: Array{Bytes{1}}}},
		{"nested tags", Tagged{Tag: 100, Value: Tagged{Tag: 200, Value: Int(1)}}},
		{"timestamp", NewTimestamp(time.Unix(1700000000, 500000000))},
		{"timestamp before epoch", NewTimestamp(time.Unix(-1000, 0))},
		{"decimal", d},
		{"decimal zero", NewDecimal(big.NewInt(0), 7)},
		{"decimal bignum", NewDecimal(huge, -40)},
		{"decimal max exponent", NewDecimal(big.NewInt(10), math.MaxInt32)},
		{"decimal max exponent zeros", NewDecimal(big.NewInt(100), math.MaxInt32)},
		{"decimal min exponent", NewDecimal(big.NewInt(7), math.MinInt32+1)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := Encode(tc.value)
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode(%x) failed: %v", data, err)
			}
			if !Equal(got, tc.value) {
				t.Errorf("round trip mismatch: expected %#v, got %#v", tc.value, got)
			}
			if again := Encode(got); !bytes.Equal(again, data) {
				t.Errorf("re-encode mismatch: %x vs %x", data, again)
			}
		})
	}
}

// TestDecimalSpecialDecodesAsFloat tests that NaN and infinite decimals
// come back as floats, since they carry no tag on the wire
func TestDecimalSpecialDecodesAsFloat(t *testing.T) {
	got, err := Decode(Encode(DecimalNaN()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if f, ok := got.(Float); !ok || !math.IsNaN(float64(f)) {
		t.Errorf("expected NaN float, got %#v", got)
	}
}

// TestTimestampPrecision tests that fractional seconds survive within
// float64 precision
func TestTimestampPrecision(t *testing.T) {
	in := time.Date(2024, 2, 29, 12, 30, 15, 250000000, time.FixedZone("X", 3600))
	got, err := Decode(Encode(NewTimestamp(in)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	ts := got.(Timestamp)
	if !ts.Equal(in) {
		t.Errorf("expected %v, got %v", in, ts.Time)
	}
	if ts.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", ts.Location())
	}
}
