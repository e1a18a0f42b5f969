package pbconv

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"sutext.github.io/cbor"
	"sutext.github.io/cbor/xerr"
)

func TestToStruct(t *testing.T) {
	d, err := cbor.ParseDecimal("12.50")
	require.NoError(t, err)
	v := cbor.Map{
		{Key: cbor.Text("name"), Value: cbor.Text("cbor")},
		{Key: cbor.Text("n"), Value: cbor.Int(-3)},
		{Key: cbor.Text("f"), Value: cbor.Float(0.5)},
		{Key: cbor.Text("ok"), Value: cbor.Bool(true)},
		{Key: cbor.Text("none"), Value: cbor.Undefined{}},
		{Key: cbor.Text("raw"), Value: cbor.Bytes{0xde, 0xad}},
		{Key: cbor.Text("at"), Value: cbor.NewTimestamp(time.Unix(1700000000, 0))},
		{Key: cbor.Text("price"), Value: d},
		{Key: cbor.Text("list"), Value: cbor.Array{cbor.Int(1), cbor.Null{}}},
	}
	pv, err := ToStruct(v)
	require.NoError(t, err)

	want, err := structpb.NewValue(map[string]any{
		"name":  "cbor",
		"n":     -3,
		"f":     0.5,
		"ok":    true,
		"none":  nil,
		"raw":   "3q0=",
		"at":    "2023-11-14T22:13:20Z",
		"price": "12.50",
		"list":  []any{1, nil},
	})
	require.NoError(t, err)
	require.True(t, proto.Equal(want, pv), "got %s", protojson.Format(pv))
}

func TestToStructErrors(t *testing.T) {
	testCases := []struct {
		name  string
		value cbor.Value
		err   error
	}{
		{"unsafe integer", cbor.Int(1 << 53), xerr.IntegerOutOfRange},
		{"unsafe negative", cbor.Int(-(1 << 53)), xerr.IntegerOutOfRange},
		{"bignum", cbor.NewBigInt(new(big.Int).Lsh(big.NewInt(1), 70)), xerr.IntegerOutOfRange},
		{"int key", cbor.Map{{Key: cbor.Int(1), Value: cbor.Null{}}}, xerr.NonTextKey},
		{"tagged", cbor.Tagged{Tag: 32, Value: cbor.Text("x")}, xerr.NotRepresentable},
		{"nested", cbor.Array{cbor.Map{{Key: cbor.Text("k"), Value: cbor.Tagged{Tag: 9, Value: cbor.Null{}}}}}, xerr.NotRepresentable},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ToStruct(tc.value)
			require.ErrorIs(t, err, tc.err)
		})
	}
	pv, err := ToStruct(cbor.Int(1<<53 - 1))
	require.NoError(t, err)
	require.Equal(t, float64(1<<53-1), pv.GetNumberValue())
}

func TestDuplicateKeys(t *testing.T) {
	s, err := Struct(cbor.Map{
		{Key: cbor.Text("k"), Value: cbor.Int(1)},
		{Key: cbor.Text("k"), Value: cbor.Int(2)},
	})
	require.NoError(t, err)
	require.Len(t, s.Fields, 1)
	require.Equal(t, float64(2), s.Fields["k"].GetNumberValue())
}

func TestFromStruct(t *testing.T) {
	pv, err := structpb.NewValue(map[string]any{
		"b":  []any{1.5, 2, "x", false, nil},
		"a":  map[string]any{"z": 1e300},
		"aa": -7,
	})
	require.NoError(t, err)
	got := FromStruct(pv)
	want := cbor.Map{
		{Key: cbor.Text("a"), Value: cbor.Map{{Key: cbor.Text("z"), Value: cbor.Float(1e300)}}},
		{Key: cbor.Text("b"), Value: cbor.Array{cbor.Float(1.5), cbor.Int(2), cbor.Text("x"), cbor.Bool(false), cbor.Null{}}},
		{Key: cbor.Text("aa"), Value: cbor.Int(-7)},
	}
	require.True(t, cbor.Equal(want, got), "got %#v", got)
	require.Equal(t, cbor.Null{}, FromStruct(nil))

	back, err := ToStruct(got)
	require.NoError(t, err)
	require.True(t, proto.Equal(pv, back))
}

func TestTimestamp(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 30, 0, 125000000, time.UTC)
	pts, err := ToTimestamp(cbor.NewTimestamp(at))
	require.NoError(t, err)
	require.True(t, pts.AsTime().Equal(at))

	v, err := FromTimestamp(pts)
	require.NoError(t, err)
	require.True(t, cbor.Equal(cbor.NewTimestamp(at), v))

	_, err = ToTimestamp(cbor.Int(1))
	require.ErrorIs(t, err, xerr.InvalidTimestamp)

	_, err = ToTimestamp(cbor.NewTimestamp(time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.ErrorIs(t, err, xerr.InvalidTimestamp)

	_, err = FromTimestamp(&timestamppb.Timestamp{Seconds: 0, Nanos: -1})
	require.ErrorIs(t, err, xerr.InvalidTimestamp)
}
