package conn

import (
	"errors"
	"testing"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw       string
		transport Transport
		secure    bool
		hostPort  string
	}{
		{"ws://localhost:3000/pump", TransportWebSocket, false, "localhost:3000"},
		{"wss://serve1090.example.com/aircraft/pump", TransportWebSocket, true, "serve1090.example.com:443"},
		{"grpc://127.0.0.1:50051", TransportGRPC, false, "127.0.0.1:50051"},
		{"grpcs://receiver.example.com", TransportGRPC, true, "receiver.example.com:443"},
		{"http://localhost/aircraft/pump", TransportHTTP, false, "localhost:80"},
		{"HTTPS://localhost:8443/aircraft/pump", TransportHTTP, true, "localhost:8443"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ep, err := ParseEndpoint(tt.raw)
			if err != nil {
				t.Fatalf("ParseEndpoint: %v", err)
			}
			if ep.Transport != tt.transport {
				t.Errorf("Transport = %q, want %q", ep.Transport, tt.transport)
			}
			if ep.Secure != tt.secure {
				t.Errorf("Secure = %v, want %v", ep.Secure, tt.secure)
			}
			if got := ep.HostPort(); got != tt.hostPort {
				t.Errorf("HostPort = %q, want %q", got, tt.hostPort)
			}
			if ep.String() != tt.raw {
				t.Errorf("String = %q, want %q", ep.String(), tt.raw)
			}
		})
	}
}

func TestParseEndpoint_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"localhost:3000",
		"ftp://localhost/pump",
		"ws:///pump",
		"ws://[::1",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseEndpoint(raw)
			if !errors.Is(err, ErrInvalidEndpoint) {
				t.Errorf("err = %v, want ErrInvalidEndpoint", err)
			}
		})
	}
}
