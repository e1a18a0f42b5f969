package ws

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
	"sutext.github.io/cbor"
	"sutext.github.io/cbor/xerr"
)

func TestCodec(t *testing.T) {
	data, payloadType, err := CBOR.Marshal(cbor.Array{cbor.Int(1)})
	require.NoError(t, err)
	require.Equal(t, byte(websocket.BinaryFrame), payloadType)
	require.Equal(t, []byte{0x81, 0x01}, data)

	data, _, err = CBOR.Marshal([]any{"a", true})
	require.NoError(t, err)
	require.Equal(t, []byte{0x82, 0x61, 'a', 0xf5}, data)

	_, _, err = CBOR.Marshal(struct{}{})
	require.ErrorIs(t, err, cbor.ErrUnknownType)

	var v cbor.Value
	require.NoError(t, CBOR.Unmarshal([]byte{0x81, 0x01}, websocket.BinaryFrame, &v))
	require.True(t, cbor.Equal(cbor.Array{cbor.Int(1)}, v))

	err = CBOR.Unmarshal([]byte{0x01}, websocket.TextFrame, &v)
	require.ErrorIs(t, err, xerr.UnsupportedPayload)

	var s string
	err = CBOR.Unmarshal([]byte{0x01}, websocket.BinaryFrame, &s)
	require.ErrorIs(t, err, xerr.InvalidMessageType)
}

func dial(t *testing.T, h Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(Server(h))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRoundTrip(t *testing.T) {
	conn := dial(t, func(req cbor.Value) (cbor.Value, error) {
		return cbor.Tagged{Tag: 1000, Value: req}, nil
	})
	for _, v := range []cbor.Value{
		cbor.Text("hello"),
		cbor.Map{{Key: cbor.Int(1), Value: cbor.Bytes(make([]byte, 70000))}},
		cbor.NewBigInt(nil),
	} {
		require.NoError(t, Send(conn, v))
		got, err := Receive(conn)
		require.NoError(t, err)
		require.True(t, cbor.Equal(cbor.Tagged{Tag: 1000, Value: v}, got), "unexpected reply %#v", got)
	}
}

func TestServerClosesOnError(t *testing.T) {
	t.Run("text frame", func(t *testing.T) {
		conn := dial(t, func(req cbor.Value) (cbor.Value, error) { return req, nil })
		require.NoError(t, websocket.Message.Send(conn, "not cbor"))
		_, err := Receive(conn)
		require.Error(t, err)
	})
	t.Run("malformed value", func(t *testing.T) {
		conn := dial(t, func(req cbor.Value) (cbor.Value, error) { return req, nil })
		require.NoError(t, websocket.Message.Send(conn, []byte{0x19, 0x01}))
		_, err := Receive(conn)
		require.Error(t, err)
	})
	t.Run("handler", func(t *testing.T) {
		conn := dial(t, func(req cbor.Value) (cbor.Value, error) { return nil, errors.New("refused") })
		require.NoError(t, Send(conn, cbor.Null{}))
		_, err := Receive(conn)
		require.Error(t, err)
	})
}
