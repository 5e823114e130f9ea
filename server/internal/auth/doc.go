// Package auth checks the device secret that pumps attach to their traffic.
//
// CheckSecret compares a presented secret against the configured one in
// constant time. SecretInterceptor gates the gRPC pump stream on the
// x-pump-secret metadata key.
//
// When no secret is configured every pump is accepted, which keeps local
// development working without a .env file.
package auth
