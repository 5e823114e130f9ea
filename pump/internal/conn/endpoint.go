package conn

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrInvalidEndpoint is returned by ParseEndpoint. It is a configuration
// failure and is never retried.
var ErrInvalidEndpoint = errors.New("conn: invalid endpoint")

// Transport identifies the wire protocol used for an endpoint.
type Transport string

const (
	TransportWebSocket Transport = "websocket"
	TransportGRPC      Transport = "grpc"
	TransportHTTP      Transport = "http"
)

var schemes = map[string]struct {
	transport   Transport
	secure      bool
	defaultPort string
}{
	"ws":    {TransportWebSocket, false, "80"},
	"wss":   {TransportWebSocket, true, "443"},
	"grpc":  {TransportGRPC, false, "50051"},
	"grpcs": {TransportGRPC, true, "443"},
	"http":  {TransportHTTP, false, "80"},
	"https": {TransportHTTP, true, "443"},
}

// Endpoint is a parsed destination address. It is immutable once parsed.
type Endpoint struct {
	URL       *url.URL
	Raw       string
	Transport Transport
	// Secure is true for TLS schemes.
	Secure bool
}

// ParseEndpoint validates raw and resolves its transport.
func ParseEndpoint(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Endpoint{}, fmt.Errorf("%w: empty", ErrInvalidEndpoint)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	s, ok := schemes[strings.ToLower(u.Scheme)]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: unsupported scheme %q in %q", ErrInvalidEndpoint, u.Scheme, raw)
	}
	if u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("%w: no host in %q", ErrInvalidEndpoint, raw)
	}
	return Endpoint{URL: u, Raw: raw, Transport: s.transport, Secure: s.secure}, nil
}

// HostPort returns host:port, filling in the scheme's default port.
func (e Endpoint) HostPort() string {
	if e.URL.Port() != "" {
		return e.URL.Host
	}
	return net.JoinHostPort(e.URL.Hostname(), schemes[strings.ToLower(e.URL.Scheme)].defaultPort)
}

func (e Endpoint) String() string { return e.Raw }
