package cbor

import (
	"errors"
	"io"
	"math"
	"math/big"
	"time"
	"unicode/utf8"

	"github.com/x448/float16"
	"sutext.github.io/cbor/coder"
)

// Decode decodes exactly one value from data. Trailing bytes after the
// value fail with ErrExtraBytes.
func Decode(data []byte, opts ...Option) (Value, error) {
	v, n, err := DecodeFirst(data, opts...)
	if err != nil {
		return nil, err
	}
	if n < len(data) {
		return nil, extraBytes(n, len(data)-n)
	}
	return v, nil
}

// DecodeFirst decodes the first value in data and reports how many bytes
// it consumed. Bytes after the value are left alone.
func DecodeFirst(data []byte, opts ...Option) (Value, int, error) {
	d := newDecodeState(data, optionsOf(opts))
	v, err := d.value()
	if err != nil {
		return nil, 0, err
	}
	return v, d.r.Pos(), nil
}

// Decoder decodes successive top-level values from one buffer.
// The buffer must not be modified while the Decoder is in use.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	d *decodeState
}

func NewDecoder(data []byte, opts ...Option) *Decoder {
	return &Decoder{d: newDecodeState(data, optionsOf(opts))}
}

// Decode decodes the next value and advances past it. It returns io.EOF
// when the buffer is exhausted. On failure the cursor stays where the
// failed value started.
func (dec *Decoder) Decode() (Value, error) {
	if dec.d.r.Len() == 0 {
		return nil, io.EOF
	}
	start := dec.d.r.Pos()
	v, err := dec.d.value()
	if err != nil {
		dec.d.r.Seek(start)
		dec.d.depth = 0
		return nil, err
	}
	return v, nil
}

// More reports whether undecoded bytes remain.
func (dec *Decoder) More() bool {
	return dec.d.r.Len() > 0
}

// Remaining returns the number of undecoded bytes.
func (dec *Decoder) Remaining() int {
	return dec.d.r.Len()
}

// Offset returns the position of the next value in the buffer.
func (dec *Decoder) Offset() int {
	return dec.d.r.Pos()
}

// Finish fails with ErrExtraBytes when undecoded bytes remain.
func (dec *Decoder) Finish() error {
	if n := dec.d.r.Len(); n > 0 {
		return extraBytes(dec.d.r.Pos(), n)
	}
	return nil
}

type decodeState struct {
	r        *coder.Reader
	depth    int
	maxDepth int
}

func newDecodeState(data []byte, options *Options) *decodeState {
	return &decodeState{r: coder.NewReader(data), maxDepth: options.MaxDepth}
}

func (d *decodeState) value() (Value, error) {
	ib, err := d.r.PeekUInt8()
	if err != nil {
		return nil, d.wrap(err)
	}
	ai := infoOf(ib)
	switch majorOf(ib) {
	case MajorUnsigned:
		if ai <= aiDirect {
			d.r.Skip(1)
			return Int(ai), nil
		}
		return d.integer()
	case MajorNegative:
		if ai <= aiDirect {
			d.r.Skip(1)
			return Int(-1 - int64(ai)), nil
		}
		return d.integer()
	case MajorBytes:
		if ai == aiIndefinite {
			return d.indefiniteString(MajorBytes)
		}
		return d.bytes()
	case MajorText:
		if ai == aiIndefinite {
			return d.indefiniteString(MajorText)
		}
		if ai <= aiDirect && d.r.Len() > int(ai) {
			return d.shortText(ai)
		}
		return d.text()
	case MajorArray:
		if ai == aiIndefinite {
			return d.indefiniteArray()
		}
		return d.array()
	case MajorMap:
		if ai == aiIndefinite {
			return d.indefiniteMap()
		}
		return d.mapping()
	case MajorTag:
		return d.tag()
	default:
		return d.simple()
	}
}

// head consumes a head byte and its argument.
func (d *decodeState) head() (Major, uint64, error) {
	ib, err := d.r.ReadUInt8()
	if err != nil {
		return 0, 0, d.wrap(err)
	}
	n, err := d.count(infoOf(ib))
	if err != nil {
		return 0, 0, err
	}
	return majorOf(ib), n, nil
}

// count reads the argument selected by ai. The head byte must already be
// consumed.
func (d *decodeState) count(ai byte) (uint64, error) {
	switch ai {
	case aiUint8:
		n, err := d.r.ReadUInt8()
		return uint64(n), d.wrap(err)
	case aiUint16:
		n, err := d.r.ReadUInt16()
		return uint64(n), d.wrap(err)
	case aiUint32:
		n, err := d.r.ReadUInt32()
		return uint64(n), d.wrap(err)
	case aiUint64:
		n, err := d.r.ReadUInt64()
		return n, d.wrap(err)
	}
	if ai <= aiDirect {
		return uint64(ai), nil
	}
	return 0, unexpectedInfo(d.r.Pos()-1, ai)
}

func (d *decodeState) wrap(err error) error {
	if err == nil {
		return nil
	}
	var short *coder.ShortBufferError
	if errors.As(err, &short) {
		return outOfBytes(short.Offset, short.Requested, short.Available)
	}
	return err
}

func (d *decodeState) enter(offset int) error {
	d.depth++
	if d.depth > d.maxDepth {
		return malformed(offset, "exceeded max nesting depth %d", d.maxDepth)
	}
	return nil
}
func (d *decodeState) leave() {
	d.depth--
}

// capacity bounds a preallocation by what the input could still hold,
// given that every item takes at least perItem bytes.
func (d *decodeState) capacity(n uint64, perItem int) int {
	return int(min(n, uint64(d.r.Len()/perItem)))
}

func (d *decodeState) integer() (Value, error) {
	major, n, err := d.head()
	if err != nil {
		return nil, err
	}
	if major == MajorUnsigned {
		if n <= math.MaxInt64 {
			return Int(n), nil
		}
		return BigInt{i: new(big.Int).SetUint64(n)}, nil
	}
	if n <= math.MaxInt64 {
		return Int(-1 - int64(n)), nil
	}
	return BigInt{i: negMagnitude(new(big.Int).SetUint64(n))}, nil
}

func (d *decodeState) bytes() (Value, error) {
	_, n, err := d.head()
	if err != nil {
		return nil, err
	}
	p, err := d.r.ReadBytes(n)
	if err != nil {
		return nil, d.wrap(err)
	}
	return Bytes(append([]byte{}, p...)), nil
}

func (d *decodeState) shortText(ai byte) (Value, error) {
	start := d.r.Pos()
	d.r.Skip(1)
	p, _ := d.r.ReadBytes(uint64(ai))
	if !utf8.Valid(p) {
		return nil, malformed(start, "invalid UTF-8 in text string")
	}
	return Text(p), nil
}

func (d *decodeState) text() (Value, error) {
	start := d.r.Pos()
	_, n, err := d.head()
	if err != nil {
		return nil, err
	}
	p, err := d.r.ReadBytes(n)
	if err != nil {
		return nil, d.wrap(err)
	}
	if !utf8.Valid(p) {
		return nil, malformed(start, "invalid UTF-8 in text string")
	}
	return Text(p), nil
}

// indefiniteString concatenates definite-length chunks of the same major
// type until a break code.
func (d *decodeState) indefiniteString(major Major) (Value, error) {
	start := d.r.Pos()
	d.r.Skip(1)
	buf := []byte{}
	for {
		ib, err := d.r.PeekUInt8()
		if err != nil {
			return nil, d.wrap(err)
		}
		if ib == breakCode {
			d.r.Skip(1)
			break
		}
		if majorOf(ib) != major || infoOf(ib) == aiIndefinite {
			return nil, malformed(d.r.Pos(), "invalid chunk 0x%02x in indefinite-length %s", ib, major)
		}
		_, n, err := d.head()
		if err != nil {
			return nil, err
		}
		p, err := d.r.ReadBytes(n)
		if err != nil {
			return nil, d.wrap(err)
		}
		buf = append(buf, p...)
	}
	if major == MajorBytes {
		return Bytes(buf), nil
	}
	if !utf8.Valid(buf) {
		return nil, malformed(start, "invalid UTF-8 in text string")
	}
	return Text(buf), nil
}

func (d *decodeState) array() (Value, error) {
	start := d.r.Pos()
	_, n, err := d.head()
	if err != nil {
		return nil, err
	}
	if err := d.enter(start); err != nil {
		return nil, err
	}
	defer d.leave()
	arr := make(Array, 0, d.capacity(n, 1))
	for i := uint64(0); i < n; i++ {
		item, err := d.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, item)
	}
	return arr, nil
}

func (d *decodeState) indefiniteArray() (Value, error) {
	start := d.r.Pos()
	d.r.Skip(1)
	if err := d.enter(start); err != nil {
		return nil, err
	}
	defer d.leave()
	arr := Array{}
	for {
		ib, err := d.r.PeekUInt8()
		if err != nil {
			return nil, d.wrap(err)
		}
		if ib == breakCode {
			d.r.Skip(1)
			return arr, nil
		}
		item, err := d.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, item)
	}
}

func (d *decodeState) mapping() (Value, error) {
	start := d.r.Pos()
	_, n, err := d.head()
	if err != nil {
		return nil, err
	}
	if err := d.enter(start); err != nil {
		return nil, err
	}
	defer d.leave()
	m := make(Map, 0, d.capacity(n, 2))
	for i := uint64(0); i < n; i++ {
		p, err := d.pair()
		if err != nil {
			return nil, err
		}
		m = append(m, p)
	}
	return m, nil
}

func (d *decodeState) indefiniteMap() (Value, error) {
	start := d.r.Pos()
	d.r.Skip(1)
	if err := d.enter(start); err != nil {
		return nil, err
	}
	defer d.leave()
	m := Map{}
	for {
		ib, err := d.r.PeekUInt8()
		if err != nil {
			return nil, d.wrap(err)
		}
		if ib == breakCode {
			d.r.Skip(1)
			return m, nil
		}
		p, err := d.pair()
		if err != nil {
			return nil, err
		}
		m = append(m, p)
	}
}

func (d *decodeState) pair() (Pair, error) {
	key, err := d.value()
	if err != nil {
		return Pair{}, err
	}
	val, err := d.value()
	if err != nil {
		return Pair{}, err
	}
	return Pair{Key: key, Value: val}, nil
}

func (d *decodeState) tag() (Value, error) {
	start := d.r.Pos()
	_, tag, err := d.head()
	if err != nil {
		return nil, err
	}
	if err := d.enter(start); err != nil {
		return nil, err
	}
	defer d.leave()
	inner, err := d.value()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagEpoch:
		return epochTime(start, inner)
	case TagBignum, TagNegBignum:
		return bignum(start, tag, inner)
	case TagDecimal:
		return decimalFraction(start, inner)
	default:
		return Tagged{Tag: tag, Value: inner}, nil
	}
}

func epochTime(offset int, inner Value) (Value, error) {
	switch v := inner.(type) {
	case Int:
		return Timestamp{Time: time.Unix(int64(v), 0).UTC()}, nil
	case Float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= 1<<63 {
			return nil, malformed(offset, "epoch timestamp %v out of range", f)
		}
		sec, frac := math.Modf(f)
		return Timestamp{Time: time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()}, nil
	default:
		return nil, malformed(offset, "epoch timestamp must be numeric, got %s", majorName(inner))
	}
}

func bignum(offset int, tag uint64, inner Value) (Value, error) {
	mag, ok := inner.(Bytes)
	if !ok {
		return nil, malformed(offset, "bignum tag %d must wrap a byte string, got %s", tag, majorName(inner))
	}
	n := new(big.Int).SetBytes(mag)
	if tag == TagNegBignum {
		n = negMagnitude(n)
	}
	return NewInteger(n), nil
}

func decimalFraction(offset int, inner Value) (Value, error) {
	arr, ok := inner.(Array)
	if !ok {
		return nil, malformed(offset, "decimal fraction must wrap an array, got %s", majorName(inner))
	}
	if len(arr) != 2 {
		return nil, malformed(offset, "expected decimal fraction array of length 2 but length is %d", len(arr))
	}
	mantissa, ok := integerOf(arr[1])
	if !ok {
		return nil, malformed(offset, "decimal fraction mantissa must be an integer, got %s", majorName(arr[1]))
	}
	switch exponent := arr[0].(type) {
	case Int:
		d, ok := newDecimal(mantissa, int64(exponent))
		if !ok {
			return nil, malformed(offset, "decimal fraction exponent %d out of range", int64(exponent))
		}
		return d, nil
	case BigInt:
		return nil, malformed(offset, "decimal fraction exponent %s out of range", exponent)
	default:
		return nil, malformed(offset, "decimal fraction exponent must be an integer, got %s", majorName(arr[0]))
	}
}

func (d *decodeState) simple() (Value, error) {
	start := d.r.Pos()
	ib, err := d.r.ReadUInt8()
	if err != nil {
		return nil, d.wrap(err)
	}
	switch ai := infoOf(ib); ai {
	case simpleFalse:
		return Bool(false), nil
	case simpleTrue:
		return Bool(true), nil
	case simpleNull:
		return Null{}, nil
	case simpleUndefined:
		return Undefined{}, nil
	case simpleFloat16:
		bits, err := d.r.ReadUInt16()
		if err != nil {
			return nil, d.wrap(err)
		}
		return Float(float16.Frombits(bits).Float32()), nil
	case simpleFloat32:
		f, err := d.r.ReadFloat32()
		if err != nil {
			return nil, d.wrap(err)
		}
		return Float(f), nil
	case simpleFloat64:
		f, err := d.r.ReadFloat64()
		if err != nil {
			return nil, d.wrap(err)
		}
		return Float(f), nil
	case aiIndefinite:
		d.r.Seek(start)
		return nil, unexpectedBreak(start)
	case 28, 29, 30:
		return nil, unexpectedInfo(start, ai)
	default:
		return nil, malformed(start, "undefined reserved additional information %d", ai)
	}
}

func majorName(v Value) string {
	if v == nil {
		return MajorSimple.String()
	}
	return v.Major().String()
}
