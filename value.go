package cbor

import (
	"bytes"
	"math"
	"math/big"
	"time"
)

// Value is a CBOR data item. The set of implementations is closed:
//
//   - Null, Undefined, Bool
//   - Int, BigInt
//   - Float
//   - Bytes, Text
//   - Array, Map
//   - Tagged, Timestamp, Decimal
//
// A nil Value is encoded as Null.
type Value interface {
	// Major reports the major type of the item's encoded head.
	Major() Major
	isValue()
}

var (
	_ Value = Null{}
	_ Value = Undefined{}
	_ Value = Bool(false)
	_ Value = Int(0)
	_ Value = BigInt{}
	_ Value = Float(0)
	_ Value = Bytes(nil)
	_ Value = Text("")
	_ Value = Array(nil)
	_ Value = Map(nil)
	_ Value = Tagged{}
	_ Value = Timestamp{}
	_ Value = Decimal{}
)

// Null is the null literal (simple value 22).
type Null struct{}

// Undefined is the undefined literal (simple value 23).
type Undefined struct{}

// Bool is a boolean (simple values 20 and 21).
type Bool bool

// Int is an integer in the int64 range (major types 0 and 1).
type Int int64

// BigInt is an integer outside the int64 range. It encodes as a plain
// integer when it fits in 64 bits and as a bignum (tag 2 or 3) otherwise.
// The zero BigInt is 0.
type BigInt struct {
	i *big.Int
}

// Float is a floating-point number. Half and single precision inputs
// widen to Float on decode.
type Float float64

// Bytes is a byte string (major type 2).
type Bytes []byte

// Text is a UTF-8 text string (major type 3).
type Text string

// Array is a sequence of values (major type 4).
type Array []Value

// Pair is one key/value entry of a Map.
type Pair struct {
	Key   Value
	Value Value
}

// Map is an ordered list of key/value pairs (major type 5). Keys may be
// any Value and are not required to be unique; encode order is slice order.
type Map []Pair

// Tagged is a tag number wrapping one value (major type 6) for every tag
// the codec does not interpret itself. Encode writes a Tagged as is, so a
// Tagged carrying tags 1 to 4 decodes as Timestamp, BigInt or Decimal, or
// fails when its payload does not fit the tag. Resolve performs that
// interpretation up front.
type Tagged struct {
	Tag   uint64
	Value Value
}

// Resolve returns the value the decoder would produce for t: tags 1 to 4
// become Timestamp, an integer or Decimal, and other tags return t.
func (t Tagged) Resolve() (Value, error) {
	switch t.Tag {
	case TagEpoch:
		return epochTime(0, t.Value)
	case TagBignum, TagNegBignum:
		return bignum(0, t.Tag, t.Value)
	case TagDecimal:
		return decimalFraction(0, t.Value)
	}
	return t, nil
}

// Timestamp is an instant encoded as tag 1 with float seconds since the epoch.
type Timestamp struct {
	time.Time
}

func (Null) Major() Major      { return MajorSimple }
func (Undefined) Major() Major { return MajorSimple }
func (Bool) Major() Major      { return MajorSimple }
func (Float) Major() Major     { return MajorSimple }
func (Bytes) Major() Major     { return MajorBytes }
func (Text) Major() Major      { return MajorText }
func (Array) Major() Major     { return MajorArray }
func (Map) Major() Major       { return MajorMap }
func (Tagged) Major() Major    { return MajorTag }
func (Timestamp) Major() Major { return MajorTag }
func (i Int) Major() Major {
	if i < 0 {
		return MajorNegative
	}
	return MajorUnsigned
}
func (b BigInt) Major() Major {
	i := b.Big()
	switch {
	case i.Sign() >= 0 && i.IsUint64():
		return MajorUnsigned
	case i.Sign() < 0 && negMagnitude(i).IsUint64():
		return MajorNegative
	default:
		return MajorTag
	}
}

func (Null) isValue()      {}
func (Undefined) isValue() {}
func (Bool) isValue()      {}
func (Int) isValue()       {}
func (BigInt) isValue()    {}
func (Float) isValue()     {}
func (Bytes) isValue()     {}
func (Text) isValue()      {}
func (Array) isValue()     {}
func (Map) isValue()       {}
func (Tagged) isValue()    {}
func (Timestamp) isValue() {}
func (Decimal) isValue()   {}

// NewBigInt returns a BigInt holding a copy of i. A nil i is 0.
func NewBigInt(i *big.Int) BigInt {
	if i == nil {
		return BigInt{}
	}
	return BigInt{i: new(big.Int).Set(i)}
}

// Big returns a copy of the integer.
func (b BigInt) Big() *big.Int {
	if b.i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.i)
}

func (b BigInt) String() string {
	return b.Big().String()
}

// NewInteger returns i as an Int when it fits in int64 and as a BigInt
// otherwise. The decoder always produces integers in this form.
func NewInteger(i *big.Int) Value {
	if i == nil {
		return Int(0)
	}
	if i.IsInt64() {
		return Int(i.Int64())
	}
	return NewBigInt(i)
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// Get returns the value of the first pair whose key is Equal to key.
func (m Map) Get(key Value) (Value, bool) {
	for _, p := range m {
		if Equal(p.Key, key) {
			return p.Value, true
		}
	}
	return nil, false
}

// negMagnitude returns -1 - i, the value carried by a negative integer head
// or a tag 3 bignum.
func negMagnitude(i *big.Int) *big.Int {
	n := new(big.Int).Neg(i)
	return n.Sub(n, bigOne)
}

var bigOne = big.NewInt(1)

func integerOf(v Value) (*big.Int, bool) {
	switch v := v.(type) {
	case Int:
		return big.NewInt(int64(v)), true
	case BigInt:
		return v.Big(), true
	default:
		return nil, false
	}
}

// Equal reports whether a and b describe the same CBOR data. Integers are
// compared by numeric value regardless of representation, floats by bit
// pattern with every NaN equal to every other NaN, decimals numerically,
// and timestamps by instant. A nil Value equals Null.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	if ai, ok := integerOf(a); ok {
		bi, ok := integerOf(b)
		return ok && ai.Cmp(bi) == 0
	}
	switch a := a.(type) {
	case Null, Undefined, Bool, Text:
		return a == b
	case Float:
		b, ok := b.(Float)
		if !ok {
			return false
		}
		if math.IsNaN(float64(a)) && math.IsNaN(float64(b)) {
			return true
		}
		return math.Float64bits(float64(a)) == math.Float64bits(float64(b))
	case Bytes:
		b, ok := b.(Bytes)
		return ok && bytes.Equal(a, b)
	case Array:
		b, ok := b.(Array)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	case Map:
		b, ok := b.(Map)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i].Key, b[i].Key) || !Equal(a[i].Value, b[i].Value) {
				return false
			}
		}
		return true
	case Tagged:
		b, ok := b.(Tagged)
		return ok && a.Tag == b.Tag && Equal(a.Value, b.Value)
	case Timestamp:
		b, ok := b.(Timestamp)
		return ok && a.Time.Equal(b.Time)
	case Decimal:
		b, ok := b.(Decimal)
		return ok && a.Equal(b)
	}
	return false
}
