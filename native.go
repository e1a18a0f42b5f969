package cbor

import (
	"bytes"
	"math"
	"math/big"
	"reflect"
	"slices"
	"time"

	"gopkg.in/inf.v0"
)

// ValueOf converts a Go value into a Value.
//
// Supported inputs are nil, Values, bool, every integer and float kind,
// string, []byte, *big.Int, big.Int, time.Time, *inf.Dec, pointers to any
// of these, slices and arrays (Array, or Bytes for byte elements) and maps.
// Go maps have no order of their own, so their pairs are sorted by the
// canonical encoding of the key. Any other type fails with ErrUnknownType.
func ValueOf(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int8:
		return Int(x), nil
	case int16:
		return Int(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case uint:
		return uintValue(uint64(x)), nil
	case uint8:
		return Int(x), nil
	case uint16:
		return Int(x), nil
	case uint32:
		return Int(x), nil
	case uint64:
		return uintValue(x), nil
	case float32:
		return Float(x), nil
	case float64:
		return Float(x), nil
	case string:
		return Text(x), nil
	case []byte:
		return Bytes(x), nil
	case *big.Int:
		if x == nil {
			return Null{}, nil
		}
		return NewInteger(x), nil
	case big.Int:
		return NewInteger(&x), nil
	case time.Time:
		return Timestamp{Time: x}, nil
	case *inf.Dec:
		if x == nil {
			return Null{}, nil
		}
		return DecimalOf(x), nil
	case []any:
		if x == nil {
			return Null{}, nil
		}
		return arrayOf(len(x), func(i int) any { return x[i] })
	case map[string]any:
		if x == nil {
			return Null{}, nil
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, func(a, b string) int {
			return bytes.Compare(Encode(Text(a)), Encode(Text(b)))
		})
		m := make(Map, 0, len(x))
		for _, k := range keys {
			v, err := ValueOf(x[k])
			if err != nil {
				return nil, err
			}
			m = append(m, Pair{Key: Text(k), Value: v})
		}
		return m, nil
	}
	return reflectValue(reflect.ValueOf(x))
}

func uintValue(u uint64) Value {
	if u <= math.MaxInt64 {
		return Int(u)
	}
	return BigInt{i: new(big.Int).SetUint64(u)}
}

func arrayOf(n int, at func(int) any) (Value, error) {
	arr := make(Array, 0, n)
	for i := 0; i < n; i++ {
		v, err := ValueOf(at(i))
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}

// reflectValue handles named and composite types the fast path in
// ValueOf does not list.
func reflectValue(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintValue(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return Text(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return Null{}, nil
		}
		fallthrough
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			p := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(p), rv)
			return Bytes(p), nil
		}
		return arrayOf(rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map:
		if rv.IsNil() {
			return Null{}, nil
		}
		return mapOf(rv)
	}
	return nil, unknownType(rv.Type().String())
}

func mapOf(rv reflect.Value) (Value, error) {
	type entry struct {
		key  []byte
		pair Pair
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := ValueOf(iter.Key().Interface())
		if err != nil {
			return nil, err
		}
		v, err := ValueOf(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: Encode(k), pair: Pair{Key: k, Value: v}})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return bytes.Compare(a.key, b.key)
	})
	m := make(Map, len(entries))
	for i, e := range entries {
		m[i] = e.pair
	}
	return m, nil
}
