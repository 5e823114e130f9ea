// Package conn owns the pump's single outbound connection.
//
// A Manager dials the configured Endpoint until it succeeds, waiting a fixed
// backoff between attempts, and sends payloads as a liveness probe followed
// by the payload itself. Any failed send closes the connection; callers
// reconnect by calling Connect again.
//
// The transport is chosen by the endpoint scheme:
//
//	ws, wss       gorilla/websocket; ping control frame + one text frame
//	grpc, grpcs   client stream on pump1090.v1.PumpService/Stream; health check probe
//	http, https   one POST per payload; the connection is nominal
package conn
