// Package ws exchanges CBOR values over websocket binary frames.
package ws

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/websocket"
	"sutext.github.io/cbor"
	"sutext.github.io/cbor/xerr"
	"sutext.github.io/cbor/xlog"
)

// CBOR is a websocket.Codec sending one encoded value per binary frame.
// Receiving a text frame fails with xerr.UnsupportedPayload.
var CBOR = websocket.Codec{Marshal: marshal, Unmarshal: unmarshal}

func marshal(v any) ([]byte, byte, error) {
	var data []byte
	var err error
	switch v := v.(type) {
	case cbor.Value:
		data = cbor.Encode(v)
	case *cbor.Value:
		if v == nil {
			return nil, 0, fmt.Errorf("nil value pointer: %w", xerr.InvalidMessageType)
		}
		data = cbor.Encode(*v)
	default:
		data, err = cbor.Marshal(v)
	}
	return data, websocket.BinaryFrame, err
}

func unmarshal(data []byte, payloadType byte, v any) error {
	if payloadType != websocket.BinaryFrame {
		return fmt.Errorf("payload type %d: %w", payloadType, xerr.UnsupportedPayload)
	}
	p, ok := v.(*cbor.Value)
	if !ok || p == nil {
		return fmt.Errorf("cannot decode into %T: %w", v, xerr.InvalidMessageType)
	}
	val, err := cbor.Decode(data)
	if err != nil {
		return err
	}
	*p = val
	return nil
}

// Send writes v as one binary frame.
func Send(conn *websocket.Conn, v cbor.Value) error {
	return CBOR.Send(conn, v)
}

// Receive reads one value.
func Receive(conn *websocket.Conn) (cbor.Value, error) {
	var v cbor.Value
	if err := CBOR.Receive(conn, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Handler answers one received value.
type Handler func(req cbor.Value) (cbor.Value, error)

// Server returns a websocket server that replies to every value with the
// handler's result. The connection is closed on the first read, decode or
// handler error. Requests without an Origin header are refused.
func Server(h Handler) websocket.Server {
	return websocket.Server{
		Config: websocket.Config{},
		Handler: func(conn *websocket.Conn) {
			serveConn(conn, h)
		},
		Handshake: func(c *websocket.Config, r *http.Request) (err error) {
			c.Origin, err = websocket.Origin(c, r)
			if err == nil && c.Origin == nil {
				return fmt.Errorf("null origin")
			}
			return err
		},
	}
}

func serveConn(conn *websocket.Conn, h Handler) {
	defer conn.Close()
	logger := xlog.With("remote", conn.Request().RemoteAddr, xlog.Codec("ws"))
	for {
		req, err := Receive(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("failed to receive value", xlog.Err(err))
			}
			return
		}
		resp, err := h(req)
		if err != nil {
			logger.Warn("handler failed", xlog.Err(err))
			return
		}
		if err := Send(conn, resp); err != nil {
			logger.Warn("failed to send value", xlog.Err(err))
			return
		}
	}
}
