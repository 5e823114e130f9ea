package conn

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"github.com/pump1090/pump1090/pkg/pumpgrpc"
)

type grpcDialer struct {
	opts DialOptions
}

func newGRPCDialer(opts DialOptions) *grpcDialer {
	return &grpcDialer{opts: opts}
}

// Dial connects, confirms the server reports SERVING and opens the pump
// stream. grpc.NewClient is lazy, so the health check is what makes a
// successful Dial mean the endpoint is reachable.
func (g *grpcDialer) Dial(ctx context.Context, ep Endpoint) (Connection, error) {
	var creds credentials.TransportCredentials
	if g.opts.TLS != nil {
		creds = credentials.NewTLS(g.opts.TLS)
	} else {
		creds = insecure.NewCredentials()
	}

	cc, err := grpc.NewClient(ep.HostPort(),
		grpc.WithTransportCredentials(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("conn: grpc client %s: %w", ep.Raw, err)
	}

	gc := &grpcConn{cc: cc, health: healthpb.NewHealthClient(cc)}

	dialCtx, cancel := context.WithTimeout(ctx, g.opts.DialTimeout)
	defer cancel()
	if err := gc.check(dialCtx); err != nil {
		cc.Close()
		return nil, fmt.Errorf("conn: grpc dial %s: %w", ep.Raw, err)
	}

	// The stream outlives ctx; it ends when the connection is closed.
	streamCtx, streamCancel := context.WithCancel(context.Background())
	if g.opts.Secret != "" {
		streamCtx = metadata.AppendToOutgoingContext(streamCtx, pumpgrpc.SecretMetadataKey, g.opts.Secret)
	}
	// Only the pump stream speaks JSON; health calls stay on the proto codec.
	stream, err := cc.NewStream(streamCtx, &pumpgrpc.StreamDesc, pumpgrpc.StreamMethod,
		grpc.CallContentSubtype(pumpgrpc.CodecName))
	if err != nil {
		streamCancel()
		cc.Close()
		return nil, fmt.Errorf("conn: grpc open stream: %w", err)
	}
	gc.stream = stream
	gc.cancel = streamCancel
	return gc, nil
}

type grpcConn struct {
	cc     *grpc.ClientConn
	health healthpb.HealthClient
	stream grpc.ClientStream
	cancel context.CancelFunc
}

func (g *grpcConn) check(ctx context.Context) error {
	resp, err := g.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("health check: server status %s", resp.GetStatus())
	}
	return nil
}

// Ping runs a standard health check against the server.
func (g *grpcConn) Ping(ctx context.Context) error {
	if err := g.check(ctx); err != nil {
		return fmt.Errorf("conn: grpc ping: %w", err)
	}
	return nil
}

// Send writes payload to the stream unchanged.
func (g *grpcConn) Send(ctx context.Context, payload []byte) error {
	frame := json.RawMessage(payload)
	errc := make(chan error, 1)
	go func() { errc <- g.stream.SendMsg(&frame) }()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("conn: grpc send: %w", err)
		}
		return nil
	case <-ctx.Done():
		// Cancelling the stream unblocks SendMsg.
		g.cancel()
		return fmt.Errorf("conn: grpc send: %w", ctx.Err())
	}
}

func (g *grpcConn) Close() error {
	_ = g.stream.CloseSend()
	g.cancel()
	return g.cc.Close()
}
