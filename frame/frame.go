// Package frame carries CBOR over byte streams. Each frame is a compact
// header holding the kind and payload length followed by the payload.
package frame

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"

	"sutext.github.io/cbor"
	"sutext.github.io/cbor/xerr"
	"sutext.github.io/cbor/xlog"
)

const (
	MIN_LEN int = 0
	MID_LEN int = 0x7ff        // 2047
	MAX_LEN int = 0x7ff_ffffff // 32GB
	// DEFAULT_MAX_LEN bounds frames when no WithMaxFrameSize is given.
	DEFAULT_MAX_LEN int = 16 << 20 // 16MB
)

// Kind is the payload layout of a frame. It occupies the top three bits
// of the header.
type Kind uint8

const (
	VALUE    Kind = iota // exactly one value
	SEQUENCE             // zero or more concatenated values
)

func (k Kind) String() string {
	switch k {
	case VALUE:
		return "VALUE"
	case SEQUENCE:
		return "SEQUENCE"
	default:
		return "UNKNOWN"
	}
}

type Frame struct {
	Kind   Kind
	Values []cbor.Value
}

func NewValue(v cbor.Value) *Frame {
	return &Frame{Kind: VALUE, Values: []cbor.Value{v}}
}
func NewSequence(values ...cbor.Value) *Frame {
	return &Frame{Kind: SEQUENCE, Values: values}
}

// Value returns the single value of a VALUE frame, or the first value of a
// sequence. It returns nil for an empty sequence.
func (f *Frame) Value() cbor.Value {
	if len(f.Values) == 0 {
		return nil
	}
	return f.Values[0]
}
func (f *Frame) String() string {
	parts := make([]string, len(f.Values))
	for i, v := range f.Values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%s[%s]", f.Kind, strings.Join(parts, ", "))
}
func (f *Frame) Equal(other *Frame) bool {
	if other == nil {
		return false
	}
	return f.Kind == other.Kind && slices.EqualFunc(f.Values, other.Values, cbor.Equal)
}

// Payload returns the encoded body of f.
func (f *Frame) Payload() ([]byte, error) {
	switch f.Kind {
	case VALUE:
		if len(f.Values) != 1 {
			return nil, fmt.Errorf("VALUE frame holds %d values: %w", len(f.Values), xerr.InvalidInput)
		}
		return cbor.Encode(f.Values[0]), nil
	case SEQUENCE:
		enc := cbor.NewEncoder()
		for _, v := range f.Values {
			enc.Add(v)
		}
		return enc.Bytes(), nil
	default:
		return nil, xerr.UnknownFrameKind
	}
}

type Option struct {
	f func(*Options)
}
type Options struct {
	MaxFrameSize int
	Codec        []cbor.Option
}

func NewOptions(opts ...Option) *Options {
	var options = &Options{
		MaxFrameSize: DEFAULT_MAX_LEN,
	}
	for _, o := range opts {
		o.f(options)
	}
	return options
}

// WithMaxFrameSize bounds the payload length accepted by ReadFrom and
// produced by WriteTo. It may be raised up to MAX_LEN.
func WithMaxFrameSize(size int) Option {
	return Option{f: func(o *Options) {
		if size > 0 && size <= MAX_LEN {
			o.MaxFrameSize = size
		}
	}}
}

// WithCodecOptions passes decoder options through to payload decoding.
func WithCodecOptions(opts ...cbor.Option) Option {
	return Option{f: func(o *Options) {
		o.Codec = append(o.Codec, opts...)
	}}
}

func ReadFrom(r io.Reader, opts ...Option) (*Frame, error) {
	options := NewOptions(opts...)
	// read header
	header := make([]byte, 2)
	_, err := io.ReadFull(r, header)
	if err != nil {
		return nil, err
	}
	kind := Kind(header[0] >> 5)
	//read length
	byteCount := (header[0] >> 3) & 0x03
	length := uint64(header[0]&0x07)<<8 | uint64(header[1])
	if byteCount > 0 {
		bs := make([]byte, byteCount)
		if _, err := io.ReadFull(r, bs); err != nil {
			return nil, err
		}
		for _, b := range bs {
			length = length<<8 | uint64(b)
		}
	}
	if length > uint64(options.MaxFrameSize) {
		return nil, fmt.Errorf("frame of %d bytes: %w", length, xerr.FrameTooLarge)
	}
	if kind != VALUE && kind != SEQUENCE {
		return nil, fmt.Errorf("frame kind %d: %w", kind, xerr.UnknownFrameKind)
	}
	// read data
	data := make([]byte, length)
	_, err = io.ReadFull(r, data)
	if err != nil {
		return nil, err
	}
	xlog.Debug("frame read", xlog.Kind(kind), xlog.Size(len(data)))
	switch kind {
	case VALUE:
		v, err := cbor.Decode(data, options.Codec...)
		if err != nil {
			return nil, err
		}
		return NewValue(v), nil
	default:
		dec := cbor.NewDecoder(data, options.Codec...)
		values := []cbor.Value{}
		for {
			v, err := dec.Decode()
			if err == io.EOF {
				return NewSequence(values...), nil
			}
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
	}
}

func WriteTo(w io.Writer, f *Frame, opts ...Option) error {
	options := NewOptions(opts...)
	bw := bufio.NewWriter(w)
	data, err := f.Payload()
	if err != nil {
		return err
	}
	length := len(data)
	if length > options.MaxFrameSize {
		return fmt.Errorf("frame of %d bytes: %w", length, xerr.FrameTooLarge)
	}
	var header []byte
	if length > MID_LEN {
		bs := make([]byte, 0, 5)
		for length > 0 {
			bs = append(bs, byte(length&0xff))
			length >>= 8
		}
		slices.Reverse(bs)
		if bs[0] > 7 {
			header = make([]byte, len(bs)+1)
			copy(header[1:], bs)
		} else {
			header = bs
		}
		header[0] = byte(f.Kind<<5) | byte(len(header)-2)<<3 | header[0]
	} else {
		header = make([]byte, 2)
		header[0] = byte(f.Kind<<5) | byte(length>>8)
		header[1] = byte(length)
	}
	_, err = bw.Write(header)
	if err != nil {
		return err
	}
	_, err = bw.Write(data)
	if err != nil {
		return err
	}
	xlog.Debug("frame written", xlog.Kind(f.Kind), xlog.Size(len(data)))
	return bw.Flush()
}
