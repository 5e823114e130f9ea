package pumpgrpc

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"google.golang.org/grpc"
)

const (
	// ServiceName is the fully-qualified gRPC service name.
	ServiceName = "pump1090.v1.PumpService"

	// StreamMethod is the full method path of the client-streaming RPC.
	StreamMethod = "/" + ServiceName + "/Stream"

	// SecretMetadataKey carries the pump's secret in outgoing metadata.
	SecretMetadataKey = "x-pump-secret"
)

// Ack is the single response the server sends when a pump closes its stream.
type Ack struct {
	Received int64  `json:"received"`
	Status   string `json:"status"`
}

// FrameHandler processes one frame received on a pump stream. A returned
// error is logged and does not end the stream.
type FrameHandler interface {
	HandleFrame(stream grpc.ServerStream, frame json.RawMessage) error
}

// StreamDesc describes the client-streaming Stream method for NewStream.
var StreamDesc = grpc.StreamDesc{
	StreamName:    "Stream",
	ClientStreams: true,
}

// RegisterFrameHandler registers h as the PumpService implementation on s.
func RegisterFrameHandler(s grpc.ServiceRegistrar, h FrameHandler) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*FrameHandler)(nil),
		Streams: []grpc.StreamDesc{{
			StreamName:    StreamDesc.StreamName,
			ClientStreams: true,
			Handler:       streamHandler,
		}},
		Metadata: "pump1090/v1/pump.proto",
	}, h)
}

// streamHandler drains frames until the client half-closes, then acknowledges.
func streamHandler(srv any, stream grpc.ServerStream) error {
	h := srv.(FrameHandler)
	var received int64
	for {
		var frame json.RawMessage
		err := stream.RecvMsg(&frame)
		if errors.Is(err, io.EOF) {
			return stream.SendMsg(&Ack{Received: received, Status: "ok"})
		}
		if err != nil {
			return err
		}
		received++
		if err := h.HandleFrame(stream, frame); err != nil {
			slog.Warn("pumpgrpc: frame rejected", "err", err)
		}
	}
}
