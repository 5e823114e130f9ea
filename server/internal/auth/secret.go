package auth

import (
	"context"
	"crypto/subtle"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/pump1090/pump1090/pkg/pumpgrpc"
)

// CheckSecret reports whether got matches expected. An empty expected secret
// accepts anything.
func CheckSecret(expected, got string) bool {
	if expected == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

// SecretInterceptor returns a gRPC StreamServerInterceptor that rejects pump
// streams whose x-pump-secret metadata does not match secret. Other streams,
// such as health Watch, pass through.
func SecretInterceptor(secret string) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if secret == "" || info.FullMethod != pumpgrpc.StreamMethod {
			return handler(srv, ss)
		}
		if !CheckSecret(secret, FromContext(ss.Context())) {
			return status.Error(codes.Unauthenticated, "invalid pump secret")
		}
		return handler(srv, ss)
	}
}

// FromContext returns the pump secret carried in incoming gRPC metadata, or
// "" when absent.
func FromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(pumpgrpc.SecretMetadataKey)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
