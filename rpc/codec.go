// Package rpc carries CBOR values over gRPC. Importing it registers a
// codec under the content-subtype "cbor", so any connection can select
// it with grpc.CallContentSubtype(rpc.Name).
package rpc

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"sutext.github.io/cbor"
	"sutext.github.io/cbor/xerr"
)

const Name = "cbor"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec implements encoding.Codec. Marshal accepts Values and anything
// cbor.ValueOf converts; Unmarshal only decodes into *cbor.Value.
type Codec struct {
	Options []cbor.Option
}

func (Codec) Name() string {
	return Name
}

func (c Codec) Marshal(v any) ([]byte, error) {
	switch v := v.(type) {
	case cbor.Value:
		return cbor.Encode(v), nil
	case *cbor.Value:
		if v == nil {
			return cbor.Encode(nil), nil
		}
		return cbor.Encode(*v), nil
	}
	return cbor.Marshal(v)
}

func (c Codec) Unmarshal(data []byte, v any) error {
	p, ok := v.(*cbor.Value)
	if !ok || p == nil {
		return fmt.Errorf("cannot decode into %T: %w", v, xerr.InvalidMessageType)
	}
	val, err := cbor.Decode(data, c.Options...)
	if err != nil {
		return err
	}
	*p = val
	return nil
}
