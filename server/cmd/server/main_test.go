package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/pump1090/pump1090/pkg/pumpgrpc"
	"github.com/pump1090/pump1090/pkg/types"
	"github.com/pump1090/pump1090/server/internal/receiver"
	"github.com/pump1090/pump1090/server/internal/store"
	"github.com/pump1090/pump1090/server/internal/ws"
)

func newTestServer(t *testing.T) (*httptest.Server, *receiver.Receiver) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	reg := prometheus.NewRegistry()
	st := store.New(time.Minute)
	rec, err := receiver.New(st, receiver.Options{Logger: logger, Metrics: receiver.NewMetrics(reg)})
	if err != nil {
		t.Fatalf("receiver.New: %v", err)
	}
	srv := httptest.NewServer(newHandler(st, rec, ws.New(st, time.Second, logger), reg))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestHandler_PostThenQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/pump", "/aircraft/pump"} {
		now := float64(time.Now().UnixMilli()) / 1000
		body := fmt.Sprintf(`{"now": %.3f, "messages": 1, "aircraft": [{"hex": "a1b2c3"}]}`, now)
		res, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		var resp types.PumpResponse
		json.NewDecoder(res.Body).Decode(&resp) //nolint:errcheck
		res.Body.Close()
		if res.StatusCode != http.StatusOK || resp.Status != receiver.StatusOK {
			t.Errorf("POST %s: got %d %q, want 200 ok", path, res.StatusCode, resp.Status)
		}
		time.Sleep(2 * time.Millisecond)
	}

	res, err := http.Get(srv.URL + "/aircraft/count")
	if err != nil {
		t.Fatalf("GET count: %v", err)
	}
	defer res.Body.Close()
	var count struct{ Count int }
	if err := json.NewDecoder(res.Body).Decode(&count); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if count.Count != 1 {
		t.Errorf("count: got %d, want 1", count.Count)
	}
}

func TestHandler_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := http.Post(srv.URL+"/aircraft/pump", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	res.Body.Close()

	res, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), `serve1090_frames_total{result="malformed",transport="http"} 1`) {
		t.Errorf("metrics missing malformed frame counter:\n%s", body)
	}
}

func TestGRPCServer_HealthServing(t *testing.T) {
	_, rec := newTestServer(t)
	srv := newGRPCServer(rec, "abc123")
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve(lis) //nolint:errcheck
	t.Cleanup(func() { stopGRPC(srv, time.Second) })

	cc, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	defer cc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for _, svc := range []string{"", pumpgrpc.ServiceName} {
		resp, err := healthpb.NewHealthClient(cc).Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatalf("Check(%q): %v", svc, err)
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Errorf("Check(%q): got %v, want SERVING", svc, resp.GetStatus())
		}
	}
}

func TestStopGRPC_ForcesAfterTimeout(t *testing.T) {
	_, rec := newTestServer(t)
	srv := newGRPCServer(rec, "")
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve(lis) //nolint:errcheck

	cc, err := grpc.NewClient(lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(pumpgrpc.CodecName)),
	)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	defer cc.Close()

	// An open pump stream holds GracefulStop.
	stream, err := cc.NewStream(context.Background(), &pumpgrpc.StreamDesc, pumpgrpc.StreamMethod)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	msg := json.RawMessage(`{}`)
	if err := stream.SendMsg(&msg); err != nil {
		t.Fatalf("SendMsg: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		stopGRPC(srv, 100*time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("stopGRPC did not return")
	}
}
