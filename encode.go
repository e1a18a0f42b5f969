package cbor

import (
	"math"
	"math/big"
	"slices"
	"time"

	"sutext.github.io/cbor/coder"
)

// Encode returns the canonical encoding of v. It never emits
// indefinite-length items and always picks the shortest head.
func Encode(v Value) []byte {
	w := coder.NewWriter(defaultOptions().BufferSize)
	encodeValue(w, v)
	return w.Bytes()
}

// Marshal converts x with ValueOf and encodes the result.
func Marshal(x any) ([]byte, error) {
	v, err := ValueOf(x)
	if err != nil {
		return nil, err
	}
	return Encode(v), nil
}

// Encoder appends encoded values to one growing buffer.
// An Encoder is not safe for concurrent use.
type Encoder struct {
	w *coder.Writer
}

func NewEncoder(opts ...Option) *Encoder {
	return &Encoder{w: coder.NewWriter(optionsOf(opts).BufferSize)}
}

// Add appends the encoding of v and returns e for chaining.
func (e *Encoder) Add(v Value) *Encoder {
	encodeValue(e.w, v)
	return e
}

// Write converts x with ValueOf and appends its encoding. Nothing is
// appended when the conversion fails.
func (e *Encoder) Write(x any) error {
	v, err := ValueOf(x)
	if err != nil {
		return err
	}
	encodeValue(e.w, v)
	return nil
}

// Bytes returns a copy of everything encoded so far.
func (e *Encoder) Bytes() []byte {
	return slices.Clone(e.w.Bytes())
}
func (e *Encoder) Len() int {
	return e.w.Len()
}
func (e *Encoder) Reset() {
	e.w.Reset()
}

func writeHead(w *coder.Writer, major Major, v uint64) {
	switch {
	case v <= aiDirect:
		w.WriteUInt8(byte(major) | byte(v))
	case v <= math.MaxUint8:
		w.WriteUInt8(byte(major) | aiUint8)
		w.WriteUInt8(uint8(v))
	case v <= math.MaxUint16:
		w.WriteUInt8(byte(major) | aiUint16)
		w.WriteUInt16(uint16(v))
	case v <= math.MaxUint32:
		w.WriteUInt8(byte(major) | aiUint32)
		w.WriteUInt32(uint32(v))
	default:
		w.WriteUInt8(byte(major) | aiUint64)
		w.WriteUInt64(v)
	}
}

func encodeValue(w *coder.Writer, v Value) {
	switch v := v.(type) {
	case nil, Null:
		w.WriteUInt8(byte(MajorSimple) | simpleNull)
	case Undefined:
		w.WriteUInt8(byte(MajorSimple) | simpleUndefined)
	case Bool:
		if v {
			w.WriteUInt8(byte(MajorSimple) | simpleTrue)
		} else {
			w.WriteUInt8(byte(MajorSimple) | simpleFalse)
		}
	case Int:
		encodeInt(w, int64(v))
	case BigInt:
		encodeBig(w, v.i)
	case Float:
		encodeFloat(w, float64(v))
	case Bytes:
		writeHead(w, MajorBytes, uint64(len(v)))
		w.WriteBytes(v)
	case Text:
		writeHead(w, MajorText, uint64(len(v)))
		w.WriteString(string(v))
	case Array:
		writeHead(w, MajorArray, uint64(len(v)))
		for _, item := range v {
			encodeValue(w, item)
		}
	case Map:
		writeHead(w, MajorMap, uint64(len(v)))
		for _, p := range v {
			encodeValue(w, p.Key)
			encodeValue(w, p.Value)
		}
	case Tagged:
		writeHead(w, MajorTag, v.Tag)
		encodeValue(w, v.Value)
	case Timestamp:
		writeHead(w, MajorTag, TagEpoch)
		w.WriteUInt8(markerFloat64)
		w.WriteFloat64(epochSeconds(v.Time))
	case Decimal:
		encodeDecimal(w, v)
	}
}

func encodeInt(w *coder.Writer, i int64) {
	if i < 0 {
		writeHead(w, MajorNegative, uint64(-1-i))
		return
	}
	writeHead(w, MajorUnsigned, uint64(i))
}

func encodeBig(w *coder.Writer, i *big.Int) {
	switch {
	case i == nil:
		encodeInt(w, 0)
	case i.IsInt64():
		encodeInt(w, i.Int64())
	case i.Sign() > 0:
		if i.IsUint64() {
			writeHead(w, MajorUnsigned, i.Uint64())
			return
		}
		writeHead(w, MajorTag, TagBignum)
		encodeMagnitude(w, i)
	default:
		n := negMagnitude(i)
		if n.IsUint64() {
			writeHead(w, MajorNegative, n.Uint64())
			return
		}
		writeHead(w, MajorTag, TagNegBignum)
		encodeMagnitude(w, n)
	}
}

func encodeMagnitude(w *coder.Writer, n *big.Int) {
	mag := n.Bytes()
	writeHead(w, MajorBytes, uint64(len(mag)))
	w.WriteBytes(mag)
}

// encodeFloat uses single precision when the value survives the round
// trip through float32 exactly. NaN always takes the double form.
func encodeFloat(w *coder.Writer, f float64) {
	if !math.IsNaN(f) {
		if single := float32(f); float64(single) == f {
			w.WriteUInt8(markerFloat32)
			w.WriteFloat32(single)
			return
		}
	}
	w.WriteUInt8(markerFloat64)
	w.WriteFloat64(f)
}

func encodeDecimal(w *coder.Writer, d Decimal) {
	if d.form != finite {
		encodeFloat(w, d.Float64())
		return
	}
	exponent, mantissa := d.Parts()
	writeHead(w, MajorTag, TagDecimal)
	writeHead(w, MajorArray, 2)
	encodeInt(w, exponent)
	encodeBig(w, mantissa)
}

func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
