package coder

import (
	"errors"
	"math"
	"testing"
)

// TestFixedWidth tests writing and reading big-endian integers
func TestFixedWidth(t *testing.T) {
	t.Run("UInt8", func(t *testing.T) {
		writer := NewWriter()
		original := uint8(42)
		writer.WriteUInt8(original)

		reader := NewReader(writer.Bytes())
		decoded, err := reader.ReadUInt8()
		if err != nil {
			t.Fatalf("ReadUInt8 failed: %v", err)
		}
		if decoded != original {
			t.Errorf("UInt8 mismatch: expected %v, got %v", original, decoded)
		}
	})

	t.Run("UInt16", func(t *testing.T) {
		writer := NewWriter()
		writer.WriteUInt16(0x0102)
		if got := writer.Bytes(); len(got) != 2 || got[0] != 0x01 || got[1] != 0x02 {
			t.Fatalf("UInt16 not big-endian: %x", got)
		}
		reader := NewReader(writer.Bytes())
		decoded, err := reader.ReadUInt16()
		if err != nil {
			t.Fatalf("ReadUInt16 failed: %v", err)
		}
		if decoded != 0x0102 {
			t.Errorf("UInt16 mismatch: expected %v, got %v", 0x0102, decoded)
		}
	})

	t.Run("UInt32", func(t *testing.T) {
		writer := NewWriter()
		original := uint32(123456789)
		writer.WriteUInt32(original)

		reader := NewReader(writer.Bytes())
		decoded, err := reader.ReadUInt32()
		if err != nil {
			t.Fatalf("ReadUInt32 failed: %v", err)
		}
		if decoded != original {
			t.Errorf("UInt32 mismatch: expected %v, got %v", original, decoded)
		}
	})

	t.Run("UInt64", func(t *testing.T) {
		writer := NewWriter()
		original := uint64(math.MaxUint64)
		writer.WriteUInt64(original)

		reader := NewReader(writer.Bytes())
		decoded, err := reader.ReadUInt64()
		if err != nil {
			t.Fatalf("ReadUInt64 failed: %v", err)
		}
		if decoded != original {
			t.Errorf("UInt64 mismatch: expected %v, got %v", original, decoded)
		}
	})

	t.Run("Float", func(t *testing.T) {
		writer := NewWriter()
		writer.WriteFloat32(1.5)
		writer.WriteFloat64(1.1)

		reader := NewReader(writer.Bytes())
		f32, err := reader.ReadFloat32()
		if err != nil || f32 != 1.5 {
			t.Errorf("Expected Float32 1.5, got %v (err: %v)", f32, err)
		}
		f64, err := reader.ReadFloat64()
		if err != nil || f64 != 1.1 {
			t.Errorf("Expected Float64 1.1, got %v (err: %v)", f64, err)
		}
	})
}

// TestBytes tests WriteBytes and ReadBytes
func TestBytes(t *testing.T) {
	testCases := [][]byte{nil, {}, {1, 2, 3}, {100, 200, 255}}
	for _, original := range testCases {
		writer := NewWriter()
		writer.WriteBytes(original)

		reader := NewReader(writer.Bytes())
		decoded, err := reader.ReadBytes(uint64(len(original)))
		if err != nil {
			t.Fatalf("ReadBytes failed for %v: %v", original, err)
		}
		if string(decoded) != string(original) {
			t.Errorf("Bytes mismatch: expected %v, got %v", original, decoded)
		}
		if reader.Len() != 0 {
			t.Errorf("expected reader to be drained, %d bytes left", reader.Len())
		}
	}
}

// TestShortBuffer tests that overruns fail without moving the cursor
func TestShortBuffer(t *testing.T) {
	reader := NewReader([]byte{0x01})

	_, err := reader.ReadUInt16()
	if !errors.Is(err, ErrBufferTooShort) {
		t.Fatalf("expected ErrBufferTooShort, got %v", err)
	}
	var short *ShortBufferError
	if !errors.As(err, &short) {
		t.Fatalf("expected *ShortBufferError, got %T", err)
	}
	if short.Requested != 2 || short.Available != 1 || short.Offset != 0 {
		t.Errorf("unexpected short buffer report: %+v", short)
	}
	if reader.Pos() != 0 {
		t.Errorf("cursor moved on failed read: %d", reader.Pos())
	}

	b, err := reader.PeekUInt8()
	if err != nil || b != 0x01 {
		t.Fatalf("PeekUInt8: got %v (err: %v)", b, err)
	}
	if err := reader.Skip(1); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if _, err := reader.ReadUInt8(); !errors.Is(err, ErrBufferTooShort) {
		t.Errorf("expected ErrBufferTooShort at end of buffer, got %v", err)
	}
	if _, err := reader.ReadBytes(math.MaxUint64); !errors.Is(err, ErrBufferTooShort) {
		t.Errorf("expected ErrBufferTooShort for huge read, got %v", err)
	}
}

// TestCombinedTypes tests writing and reading multiple types in sequence
func TestCombinedTypes(t *testing.T) {
	writer := NewWriter(8)
	writer.WriteUInt8(42)
	writer.WriteString("hello")
	writer.WriteUInt32(12345)

	reader := NewReader(writer.Bytes())
	u8, err := reader.ReadUInt8()
	if err != nil || u8 != 42 {
		t.Errorf("Expected UInt8 42, got %v (err: %v)", u8, err)
	}
	str, err := reader.ReadBytes(5)
	if err != nil || string(str) != "hello" {
		t.Errorf("Expected 'hello', got %q (err: %v)", str, err)
	}
	u32, err := reader.ReadUInt32()
	if err != nil || u32 != 12345 {
		t.Errorf("Expected UInt32 12345, got %v (err: %v)", u32, err)
	}

	writer.Reset()
	if writer.Len() != 0 {
		t.Errorf("Reset left %d bytes", writer.Len())
	}
}
