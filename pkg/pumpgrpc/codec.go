package pumpgrpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype negotiated for pump frames.
const CodecName = "json"

// Codec marshals gRPC messages as JSON. Frames are sent as json.RawMessage so
// the payload read from disk reaches the server without re-encoding.
type Codec struct{}

func (Codec) Name() string {
	return CodecName
}

// Marshal passes raw frames through untouched, so a pump in raw mode
// forwards exactly what it read.
func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case *json.RawMessage:
		return *m, nil
	case json.RawMessage:
		return m, nil
	}
	return json.Marshal(v)
}

// Unmarshal copies frames into a *json.RawMessage without validating them;
// the receiver decides what to do with malformed content.
func (Codec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(*json.RawMessage); ok {
		*m = append((*m)[:0], data...)
		return nil
	}
	return json.Unmarshal(data, v)
}

func init() {
	encoding.RegisterCodec(Codec{})
}
