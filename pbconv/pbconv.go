// Package pbconv converts between CBOR values and the protobuf well-known
// types structpb.Value and timestamppb.Timestamp.
package pbconv

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"slices"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"sutext.github.io/cbor"
	"sutext.github.io/cbor/xerr"
)

// maxSafeInteger is the largest integer a float64 holds exactly.
const maxSafeInteger = 1<<53 - 1

// ToStruct converts v. Byte strings become standard base64 text,
// timestamps RFC 3339 text and decimals their string form. Integers
// beyond ±(2^53-1), maps with non-text keys and tagged values fail.
// For duplicate map keys the last pair wins.
func ToStruct(v cbor.Value) (*structpb.Value, error) {
	switch v := v.(type) {
	case nil, cbor.Null, cbor.Undefined:
		return structpb.NewNullValue(), nil
	case cbor.Bool:
		return structpb.NewBoolValue(bool(v)), nil
	case cbor.Int:
		if v > maxSafeInteger || v < -maxSafeInteger {
			return nil, fmt.Errorf("%d: %w", int64(v), xerr.IntegerOutOfRange)
		}
		return structpb.NewNumberValue(float64(v)), nil
	case cbor.BigInt:
		return nil, fmt.Errorf("%s: %w", v, xerr.IntegerOutOfRange)
	case cbor.Float:
		return structpb.NewNumberValue(float64(v)), nil
	case cbor.Bytes:
		return structpb.NewStringValue(base64.StdEncoding.EncodeToString(v)), nil
	case cbor.Text:
		return structpb.NewStringValue(string(v)), nil
	case cbor.Timestamp:
		return structpb.NewStringValue(v.UTC().Format(time.RFC3339Nano)), nil
	case cbor.Decimal:
		return structpb.NewStringValue(v.String()), nil
	case cbor.Array:
		list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(v))}
		for _, item := range v {
			pv, err := ToStruct(item)
			if err != nil {
				return nil, err
			}
			list.Values = append(list.Values, pv)
		}
		return structpb.NewListValue(list), nil
	case cbor.Map:
		s, err := Struct(v)
		if err != nil {
			return nil, err
		}
		return structpb.NewStructValue(s), nil
	case cbor.Tagged:
		return nil, fmt.Errorf("tag %d: %w", v.Tag, xerr.NotRepresentable)
	}
	return nil, fmt.Errorf("%T: %w", v, xerr.NotRepresentable)
}

// Struct converts a map with text keys.
func Struct(m cbor.Map) (*structpb.Struct, error) {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(m))}
	for _, p := range m {
		key, ok := p.Key.(cbor.Text)
		if !ok {
			return nil, fmt.Errorf("key of type %T: %w", p.Key, xerr.NonTextKey)
		}
		pv, err := ToStruct(p.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", string(key), err)
		}
		s.Fields[string(key)] = pv
	}
	return s, nil
}

// FromStruct converts pv. Whole numbers within ±(2^53-1) become Int;
// other numbers Float. Struct fields are sorted by encoded key.
func FromStruct(pv *structpb.Value) cbor.Value {
	switch k := pv.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return cbor.Bool(k.BoolValue)
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f == math.Trunc(f) && math.Abs(f) <= maxSafeInteger {
			return cbor.Int(f)
		}
		return cbor.Float(f)
	case *structpb.Value_StringValue:
		return cbor.Text(k.StringValue)
	case *structpb.Value_ListValue:
		values := k.ListValue.GetValues()
		arr := make(cbor.Array, len(values))
		for i, item := range values {
			arr[i] = FromStruct(item)
		}
		return arr
	case *structpb.Value_StructValue:
		return FromStructMap(k.StructValue)
	default:
		return cbor.Null{}
	}
}

// FromStructMap converts s into a Map ordered by encoded key.
func FromStructMap(s *structpb.Struct) cbor.Map {
	fields := s.GetFields()
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return bytes.Compare(cbor.Encode(cbor.Text(a)), cbor.Encode(cbor.Text(b)))
	})
	m := make(cbor.Map, len(keys))
	for i, key := range keys {
		m[i] = cbor.Pair{Key: cbor.Text(key), Value: FromStruct(fields[key])}
	}
	return m
}

// ToTimestamp converts a Timestamp value.
func ToTimestamp(v cbor.Value) (*timestamppb.Timestamp, error) {
	ts, ok := v.(cbor.Timestamp)
	if !ok {
		return nil, fmt.Errorf("%T: %w", v, xerr.InvalidTimestamp)
	}
	pts := timestamppb.New(ts.Time)
	if err := pts.CheckValid(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, xerr.InvalidTimestamp)
	}
	return pts, nil
}

func FromTimestamp(pts *timestamppb.Timestamp) (cbor.Value, error) {
	if err := pts.CheckValid(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, xerr.InvalidTimestamp)
	}
	return cbor.NewTimestamp(pts.AsTime()), nil
}
