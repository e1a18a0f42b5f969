package cbor

// Major is a CBOR major type, stored in the top three bits of a head byte.
type Major byte

const (
	MajorUnsigned Major = iota << 5
	MajorNegative
	MajorBytes
	MajorText
	MajorArray
	MajorMap
	MajorTag
	MajorSimple
)

func (m Major) String() string {
	switch m {
	case MajorUnsigned:
		return "unsigned integer"
	case MajorNegative:
		return "negative integer"
	case MajorBytes:
		return "byte string"
	case MajorText:
		return "text string"
	case MajorArray:
		return "array"
	case MajorMap:
		return "map"
	case MajorTag:
		return "tag"
	case MajorSimple:
		return "simple"
	default:
		return "unknown"
	}
}

// Additional information, the low five bits of a head byte.
const (
	aiDirect     = 23 // max literal value
	aiUint8      = 24
	aiUint16     = 25
	aiUint32     = 26
	aiUint64     = 27
	aiIndefinite = 31
)

// Simple values in major type 7.
const (
	simpleFalse     = 20
	simpleTrue      = 21
	simpleNull      = 22
	simpleUndefined = 23
	simpleFloat16   = 25
	simpleFloat32   = 26
	simpleFloat64   = 27
)

const (
	markerFloat32 = byte(MajorSimple) | simpleFloat32 // 0xfa
	markerFloat64 = byte(MajorSimple) | simpleFloat64 // 0xfb
	breakCode     = byte(MajorSimple) | aiIndefinite  // 0xff
)

// Tags interpreted by the codec.
const (
	TagEpoch     uint64 = 1
	TagBignum    uint64 = 2
	TagNegBignum uint64 = 3
	TagDecimal   uint64 = 4
)

func majorOf(ib byte) Major {
	return Major(ib & 0xe0)
}
func infoOf(ib byte) byte {
	return ib & 0x1f
}
