package conn

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"
)

// DialOptions configures the transport dialers.
type DialOptions struct {
	// TLS is used for wss, grpcs and https endpoints.
	TLS *tls.Config
	// Secret is sent as gRPC metadata on grpc endpoints. The websocket and
	// http transports carry it inside the payload instead.
	Secret      string
	DialTimeout time.Duration
	Logger      *slog.Logger
}

// DefaultDialTimeout bounds a single connection attempt.
const DefaultDialTimeout = 10 * time.Second

// NewDialer returns the dialer for the endpoint's transport.
func NewDialer(ep Endpoint, opts DialOptions) (Dialer, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if !ep.Secure {
		opts.TLS = nil
	} else if opts.TLS == nil {
		opts.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	switch ep.Transport {
	case TransportWebSocket:
		return newWSDialer(opts), nil
	case TransportGRPC:
		return newGRPCDialer(opts), nil
	case TransportHTTP:
		return newHTTPDialer(opts), nil
	}
	return nil, fmt.Errorf("%w: no dialer for transport %q", ErrInvalidEndpoint, ep.Transport)
}
