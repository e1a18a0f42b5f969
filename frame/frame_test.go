package frame

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"sutext.github.io/cbor"
	"sutext.github.io/cbor/xerr"
)

func TestFrame(t *testing.T) {
	testf(t, SmallValue())
	testf(t, BigValue())
	testf(t, NewSequence())
	testf(t, NewSequence(cbor.Int(1), cbor.Text("two"), cbor.Array{cbor.Null{}}))
	testf(t, NewSequence(cbor.Bytes(make([]byte, 0x10000)), cbor.Bool(true)))
}
func SmallValue() *Frame {
	return NewValue(cbor.Map{{Key: cbor.Text("hello"), Value: cbor.Text("world")}})
}
func BigValue() *Frame {
	data := make([]byte, 0xfff)
	return NewValue(cbor.Bytes(data))
}
func testf(t *testing.T, f *Frame) {
	rw := &ReadWriter{}
	err := WriteTo(rw, f)
	if err != nil {
		t.Error(err)
	}
	newf, err := ReadFrom(rw)
	if err != nil {
		t.Error(err)
	}
	if !f.Equal(newf) {
		fmt.Printf("old frame: %v\n", f)
		fmt.Printf("new frame: %v\n", newf)
		t.Error("frame not equal")
	}
}

func TestHeaderLength(t *testing.T) {
	testCases := []struct {
		name   string
		size   int
		header int
	}{
		{"short", 100, 2},
		{"mid", MID_LEN, 2},
		{"one extra byte", 0x800, 3},
		{"fits high bits", 0x70000, 3},
		{"two extra bytes", 0x80000, 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// byte string head: 1 byte below 24, then 2, 3 or 5 bytes
			payload := make([]byte, tc.size-headSize(tc.size))
			f := NewValue(cbor.Bytes(payload))
			body, err := f.Payload()
			if err != nil {
				t.Fatal(err)
			}
			if len(body) != tc.size {
				t.Fatalf("payload size %d, want %d", len(body), tc.size)
			}
			rw := &ReadWriter{}
			if err := WriteTo(rw, f); err != nil {
				t.Fatal(err)
			}
			if got := len(rw.data) - tc.size; got != tc.header {
				t.Errorf("header of %d bytes, want %d", got, tc.header)
			}
			newf, err := ReadFrom(rw)
			if err != nil {
				t.Fatal(err)
			}
			if !f.Equal(newf) {
				t.Error("frame not equal")
			}
		})
	}
}

func headSize(n int) int {
	switch {
	case n < 24+1:
		return 1
	case n < 0x100+2:
		return 2
	case n < 0x10000+3:
		return 3
	default:
		return 5
	}
}

func TestPipe(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	frames := []*Frame{SmallValue(), BigValue(), NewSequence(cbor.Int(-1), cbor.Float(1.5))}
	errc := make(chan error, 1)
	go func() {
		for _, f := range frames {
			if err := WriteTo(client, f); err != nil {
				errc <- err
				return
			}
		}
		errc <- nil
	}()
	for i, f := range frames {
		got, err := ReadFrom(server)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !f.Equal(got) {
			t.Errorf("frame %d: expected %v, got %v", i, f, got)
		}
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}

func TestFrameErrors(t *testing.T) {
	t.Run("too large to write", func(t *testing.T) {
		err := WriteTo(&ReadWriter{}, BigValue(), WithMaxFrameSize(1024))
		if !errors.Is(err, xerr.FrameTooLarge) {
			t.Errorf("expected FrameTooLarge, got %v", err)
		}
	})
	t.Run("too large to read", func(t *testing.T) {
		rw := &ReadWriter{}
		if err := WriteTo(rw, BigValue()); err != nil {
			t.Fatal(err)
		}
		_, err := ReadFrom(rw, WithMaxFrameSize(1024))
		if !errors.Is(err, xerr.FrameTooLarge) {
			t.Errorf("expected FrameTooLarge, got %v", err)
		}
	})
	t.Run("huge header", func(t *testing.T) {
		// VALUE frame claiming MAX_LEN bytes, with no payload behind it
		header := []byte{0x1f, 0xff, 0xff, 0xff, 0xff}
		_, err := ReadFrom(bytes.NewReader(header))
		if !errors.Is(err, xerr.FrameTooLarge) {
			t.Errorf("expected FrameTooLarge, got %v", err)
		}
		err = WriteTo(&ReadWriter{}, NewValue(cbor.Bytes(make([]byte, DEFAULT_MAX_LEN))))
		if !errors.Is(err, xerr.FrameTooLarge) {
			t.Errorf("expected FrameTooLarge, got %v", err)
		}
	})
	t.Run("unknown kind", func(t *testing.T) {
		_, err := ReadFrom(bytes.NewReader([]byte{0x40, 0x01, 0x00}))
		if !errors.Is(err, xerr.UnknownFrameKind) {
			t.Errorf("expected UnknownFrameKind, got %v", err)
		}
		if _, err := (&Frame{Kind: 5}).Payload(); !errors.Is(err, xerr.UnknownFrameKind) {
			t.Errorf("expected UnknownFrameKind, got %v", err)
		}
	})
	t.Run("VALUE with many values", func(t *testing.T) {
		err := WriteTo(&ReadWriter{}, &Frame{Kind: VALUE, Values: []cbor.Value{cbor.Int(1), cbor.Int(2)}})
		if !errors.Is(err, xerr.InvalidInput) {
			t.Errorf("expected InvalidInput, got %v", err)
		}
	})
	t.Run("truncated", func(t *testing.T) {
		_, err := ReadFrom(bytes.NewReader([]byte{0x08}))
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("expected ErrUnexpectedEOF, got %v", err)
		}
		_, err = ReadFrom(bytes.NewReader([]byte{0x08, 0x00}))
		if !errors.Is(err, io.EOF) {
			t.Errorf("expected EOF, got %v", err)
		}
	})
	t.Run("trailing bytes in VALUE", func(t *testing.T) {
		_, err := ReadFrom(bytes.NewReader([]byte{0x00, 0x02, 0x01, 0x02}))
		if !errors.Is(err, cbor.ErrExtraBytes) {
			t.Errorf("expected ErrExtraBytes, got %v", err)
		}
	})
	t.Run("bad SEQUENCE item", func(t *testing.T) {
		_, err := ReadFrom(bytes.NewReader([]byte{0x20, 0x02, 0x01, 0x19}))
		if !errors.Is(err, cbor.ErrOutOfBytes) {
			t.Errorf("expected ErrOutOfBytes, got %v", err)
		}
	})
	t.Run("depth limit", func(t *testing.T) {
		_, err := ReadFrom(bytes.NewReader([]byte{0x00, 0x03, 0x81, 0x81, 0x00}), WithCodecOptions(cbor.WithMaxDepth(1)))
		if !errors.Is(err, cbor.ErrCodec) {
			t.Errorf("expected codec error, got %v", err)
		}
	})
}

type ReadWriter struct {
	data []byte
}

func (w *ReadWriter) Write(p []byte) (n int, err error) {
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *ReadWriter) Read(p []byte) (n int, err error) {
	l := len(p)
	if l == 0 {
		return 0, nil
	}
	if len(w.data) == 0 {
		return 0, io.EOF
	}
	if l < len(w.data) {
		n = copy(p, w.data[:l])
		w.data = w.data[n:]
		return n, nil
	} else {
		n = copy(p, w.data)
		w.data = nil
		return n, nil
	}
}
