// Package pumpgrpc holds the wire contract shared by the pump's gRPC
// transport and the server's gRPC receiver.
//
// There is no generated protobuf code: frames are JSON documents carried by a
// JSON codec registered under the content subtype "json", and the service is
// described by a hand-built grpc.ServiceDesc with a single client-streaming
// method, /pump1090.v1.PumpService/Stream. Liveness uses the standard
// grpc.health.v1 service, which the server registers alongside.
package pumpgrpc
