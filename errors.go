package cbor

import "fmt"

// Error is the kind of a codec failure. Every error returned by the codec
// is a *CodecError that matches its kind with errors.Is, and also matches
// ErrCodec.
type Error uint8

const (
	ErrCodec Error = iota
	ErrOutOfBytes
	ErrExtraBytes
	ErrUnknownType
	ErrUnexpectedAdditionalInformation
	ErrUnexpectedBreakCode
)

func (e Error) Error() string {
	switch e {
	case ErrCodec:
		return "cbor error"
	case ErrOutOfBytes:
		return "out of bytes"
	case ErrExtraBytes:
		return "extra bytes"
	case ErrUnknownType:
		return "unknown type"
	case ErrUnexpectedAdditionalInformation:
		return "unexpected additional information"
	case ErrUnexpectedBreakCode:
		return "unexpected break code"
	default:
		return "unknown error"
	}
}

// CodecError describes one failed encode or decode call.
type CodecError struct {
	Kind Error
	// Offset is the input position of the offending item. Zero for
	// encode-side errors.
	Offset int
	// Requested and Available are set for ErrOutOfBytes.
	Requested uint64
	Available int
	// Remaining is set for ErrExtraBytes.
	Remaining int
	// TypeName is set for ErrUnknownType.
	TypeName string
	msg      string
}

func (e *CodecError) Error() string {
	return "cbor: " + e.msg
}
func (e *CodecError) Unwrap() error {
	return e.Kind
}
func (e *CodecError) Is(target error) bool {
	return target == ErrCodec
}

func outOfBytes(offset int, requested uint64, available int) error {
	return &CodecError{
		Kind:      ErrOutOfBytes,
		Offset:    offset,
		Requested: requested,
		Available: available,
		msg:       fmt.Sprintf("out of bytes at offset %d: requested %d, available %d", offset, requested, available),
	}
}
func extraBytes(offset, remaining int) error {
	return &CodecError{
		Kind:      ErrExtraBytes,
		Offset:    offset,
		Remaining: remaining,
		msg:       fmt.Sprintf("extra bytes: %d bytes remaining after decode", remaining),
	}
}
func unknownType(name string) error {
	return &CodecError{
		Kind:     ErrUnknownType,
		TypeName: name,
		msg:      "unable to encode " + name,
	}
}
func unexpectedInfo(offset int, ai byte) error {
	return &CodecError{
		Kind:   ErrUnexpectedAdditionalInformation,
		Offset: offset,
		msg:    fmt.Sprintf("unexpected additional information %d at offset %d", ai, offset),
	}
}
func unexpectedBreak(offset int) error {
	return &CodecError{
		Kind:   ErrUnexpectedBreakCode,
		Offset: offset,
		msg:    fmt.Sprintf("unexpected break stop code at offset %d", offset),
	}
}
func malformed(offset int, format string, args ...any) error {
	return &CodecError{
		Kind:   ErrCodec,
		Offset: offset,
		msg:    fmt.Sprintf(format, args...) + fmt.Sprintf(" at offset %d", offset),
	}
}
