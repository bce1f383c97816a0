// swatchqc probe - exits 0 when the server's pipeline health is SERVING
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/GriffinCanCode/swatchqc/internal/grpcclient"
	"github.com/GriffinCanCode/swatchqc/internal/grpcserver"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "gRPC address of the server")
	service := flag.String("service", grpcserver.ServiceName, "health service to check")
	wait := flag.Duration("wait", 0, "keep polling until SERVING or this long has passed")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	client, err := grpcclient.New(*addr)
	if err != nil {
		slog.Error("probe dial failed", "addr", *addr, "error", err)
		os.Exit(2)
	}
	defer func() { _ = client.Close() }()

	if *wait > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), *wait)
		defer cancel()
		if err := client.WaitServing(ctx, *service, time.Second); err != nil {
			slog.Error("not serving", "service", *service, "error", err)
			os.Exit(1)
		}
		slog.Info("serving", "service", *service)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := client.Check(ctx, *service)
	if err != nil {
		slog.Error("probe failed", "service", *service, "error", err)
		os.Exit(2)
	}
	slog.Info("health", "service", *service, "status", st.String())
	if st != healthpb.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}
