package coder

import (
	"encoding/binary"
	"math"
)

// Writer is a growable big-endian output buffer.
type Writer struct {
	buf []byte
}

// Reader is a bounds-checked cursor over an input buffer.
// Every read either consumes exactly the requested bytes or fails
// with a *ShortBufferError and leaves the cursor untouched.
type Reader struct {
	pos int
	buf []byte
}

func NewWriter(cap ...int) *Writer {
	if len(cap) > 0 && cap[0] > 0 {
		return &Writer{buf: make([]byte, 0, cap[0])}
	}
	return &Writer{buf: make([]byte, 0, 256)}
}
func NewReader(bytes []byte) *Reader {
	return &Reader{pos: 0, buf: bytes}
}

// Bytes returns the written bytes. The slice aliases the buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}
func (w *Writer) Len() int {
	return len(w.buf)
}
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// Write bytes directly
func (w *Writer) WriteBytes(p []byte) {
	w.buf = append(w.buf, p...)
}
func (w *Writer) WriteString(s string) {
	w.buf = append(w.buf, s...)
}

// Write UInt 8/16/32/64
func (w *Writer) WriteUInt8(i uint8) {
	w.buf = append(w.buf, i)
}
func (w *Writer) WriteUInt16(i uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, i)
}
func (w *Writer) WriteUInt32(i uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, i)
}
func (w *Writer) WriteUInt64(i uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, i)
}

// Write Float 32/64 as IEEE-754 bits
func (w *Writer) WriteFloat32(f float32) {
	w.WriteUInt32(math.Float32bits(f))
}
func (w *Writer) WriteFloat64(f float64) {
	w.WriteUInt64(math.Float64bits(f))
}

// Pos returns the cursor offset from the start of the buffer.
func (r *Reader) Pos() int {
	return r.pos
}

// Seek moves the cursor to an absolute offset within the buffer.
func (r *Reader) Seek(pos int) {
	r.pos = min(max(pos, 0), len(r.buf))
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

// Read bytes directly. The returned slice aliases the input buffer.
func (r *Reader) ReadBytes(l uint64) ([]byte, error) {
	if l == 0 {
		return nil, nil
	}
	if l > uint64(r.Len()) {
		return nil, r.short(l)
	}
	p := r.buf[r.pos : r.pos+int(l)]
	r.pos += int(l)
	return p, nil
}

// PeekUInt8 returns the next byte without consuming it.
func (r *Reader) PeekUInt8() (uint8, error) {
	if r.Len() < 1 {
		return 0, r.short(1)
	}
	return r.buf[r.pos], nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if n > r.Len() {
		return r.short(uint64(n))
	}
	r.pos += n
	return nil
}

// Read UInt 8/16/32/64
func (r *Reader) ReadUInt8() (uint8, error) {
	if r.Len() < 1 {
		return 0, r.short(1)
	}
	i := r.buf[r.pos]
	r.pos++
	return i, nil
}
func (r *Reader) ReadUInt16() (uint16, error) {
	bytes, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(bytes), nil
}
func (r *Reader) ReadUInt32() (uint32, error) {
	bytes, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(bytes), nil
}
func (r *Reader) ReadUInt64() (uint64, error) {
	bytes, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(bytes), nil
}

// Read Float 32/64 from IEEE-754 bits
func (r *Reader) ReadFloat32() (float32, error) {
	u, err := r.ReadUInt32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}
func (r *Reader) ReadFloat64() (float64, error) {
	u, err := r.ReadUInt64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

func (r *Reader) short(requested uint64) error {
	return &ShortBufferError{
		Offset:    r.pos,
		Requested: requested,
		Available: r.Len(),
	}
}
