// Command server receives aircraft.json frames from pumps and serves the
// resulting aircraft picture over REST and a UI websocket stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/pump1090/pump1090/pkg/pumpgrpc"
	"github.com/pump1090/pump1090/server/internal/api"
	"github.com/pump1090/pump1090/server/internal/auth"
	"github.com/pump1090/pump1090/server/internal/config"
	"github.com/pump1090/pump1090/server/internal/receiver"
	"github.com/pump1090/pump1090/server/internal/store"
	"github.com/pump1090/pump1090/server/internal/ws"
)

const shutdownTimeout = 5 * time.Second

func main() {
	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	configPath := fs.StringP("config", "c", "", "path to config file (defaults apply when empty)")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.Parse(os.Args[1:]) //nolint:errcheck

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "server: invalid --log-level %q\n", *logLevel)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	secret := cfg.Server.Secret()
	if secret == "" {
		logger.Warn("no pump secret configured; accepting every pump", "env", cfg.Server.SecretEnv)
	}
	logger.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"max_data_age", cfg.Server.MaxDataAge,
		"aircraft_ttl", cfg.Server.AircraftTTL,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	st := store.New(cfg.Server.AircraftTTL)
	rec, err := receiver.New(st, receiver.Options{
		Secret:     secret,
		MaxDataAge: cfg.Server.MaxDataAge,
		Logger:     logger,
		Metrics:    receiver.NewMetrics(reg),
	})
	if err != nil {
		return err
	}
	hub := ws.New(st, cfg.Server.BroadcastInterval, logger)

	httpLis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.HTTPPort))
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	var grpcLis net.Listener
	if cfg.Server.GRPCPort != 0 {
		grpcLis, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			httpLis.Close()
			return fmt.Errorf("listen grpc: %w", err)
		}
	}
	httpSrv := &http.Server{
		Handler:           newHandler(st, rec, hub, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { st.Run(ctx); return nil })
	g.Go(func() error { hub.Run(ctx); return nil })
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpLis.Addr().String())
		if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if grpcLis != nil {
		grpcSrv := newGRPCServer(rec, secret)
		g.Go(func() error {
			logger.Info("gRPC receiver listening", "addr", grpcLis.Addr().String())
			if err := grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			stopGRPC(grpcSrv, shutdownTimeout)
			return nil
		})
	}

	err = g.Wait()
	logger.Info("server shut down")
	return err
}

// newHandler mounts the pump endpoints, the UI stream, metrics and the REST
// API on one mux. /pump is kept as an alias of /aircraft/pump so a pump with
// the default endpoint works without configuration.
func newHandler(st *store.Store, rec *receiver.Receiver, hub *ws.Hub, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	for _, path := range []string{"/aircraft/pump", "/pump"} {
		mux.Handle("GET "+path, rec.WebSocketHandler())
		mux.Handle("POST "+path, rec.HTTPHandler())
	}
	mux.Handle("GET /aircraft/stream", hub)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", api.New(st))
	return mux
}

// newGRPCServer serves the pump stream behind the secret interceptor, with
// the standard health service for the pump's liveness probe.
func newGRPCServer(rec *receiver.Receiver, secret string) *grpc.Server {
	srv := grpc.NewServer(grpc.StreamInterceptor(auth.SecretInterceptor(secret)))
	pumpgrpc.RegisterFrameHandler(srv, rec)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(pumpgrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

// stopGRPC drains in-flight RPCs, then forces the stop after timeout. Pump
// streams are long-lived and would otherwise hold GracefulStop forever.
func stopGRPC(srv *grpc.Server, timeout time.Duration) {
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		srv.Stop()
	}
}
