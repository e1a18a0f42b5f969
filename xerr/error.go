package xerr

// Error is a failure raised by the transports and converters built on the
// codec. Codec failures themselves are cbor.CodecError.
type Error uint16

const (
	FrameTooLarge Error = iota
	UnknownFrameKind
	InvalidMessageType
	UnsupportedPayload
	NonTextKey
	IntegerOutOfRange
	NotRepresentable
	InvalidTimestamp
	InvalidInput
)

var errorMap = map[Error]string{
	FrameTooLarge:      "frame too large",
	UnknownFrameKind:   "unknown frame kind",
	InvalidMessageType: "invalid message type",
	UnsupportedPayload: "unsupported payload type",
	NonTextKey:         "map key is not a text string",
	IntegerOutOfRange:  "integer out of range",
	NotRepresentable:   "value not representable",
	InvalidTimestamp:   "invalid timestamp",
	InvalidInput:       "invalid input",
}

func (e Error) Error() string {
	return errorMap[e]
}
func (e Error) String() string {
	return errorMap[e]
}
