package coder

import "fmt"

type Error uint8

const (
	ErrBufferTooShort Error = 1
)

func (e Error) Error() string {
	switch e {
	case ErrBufferTooShort:
		return "buffer too short"
	default:
		return "unknown error"
	}
}

// ShortBufferError reports a read past the end of a Reader's buffer.
// It matches ErrBufferTooShort with errors.Is.
type ShortBufferError struct {
	Offset    int
	Requested uint64
	Available int
}

func (e *ShortBufferError) Error() string {
	return fmt.Sprintf("buffer too short at offset %d: requested %d, available %d", e.Offset, e.Requested, e.Available)
}
func (e *ShortBufferError) Unwrap() error {
	return ErrBufferTooShort
}
