// Package rpc defines the daybook.Journal gRPC service: its messages, the
// service descriptor used by the server and the client stub. Messages travel
// as JSON through a codec registered under the "json" content-subtype.
package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype every Journal call uses.
const CodecName = "json"

// DefaultMaxMessageSize bounds a single Journal message in either direction.
// Listing every entry of a user and importing a CSV batch both travel as one
// message, so gRPC's 4 MB default is too small.
const DefaultMaxMessageSize = 64 << 20

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec marshal %T: %w", v, err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec unmarshal %T: %w", v, err)
	}
	return nil
}

func (jsonCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
