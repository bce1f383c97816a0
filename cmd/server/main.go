// swatchqc server - measures four swatches from a frame source and serves
// the consistency verdict over HTTP, WebSocket and gRPC health
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/swatchqc/internal/capture"
	"github.com/GriffinCanCode/swatchqc/internal/config"
	"github.com/GriffinCanCode/swatchqc/internal/grpcserver"
	"github.com/GriffinCanCode/swatchqc/internal/pipeline"
	"github.com/GriffinCanCode/swatchqc/internal/resilience"
	"github.com/GriffinCanCode/swatchqc/internal/server"
)

func main() {
	cfg := config.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Frame source
	supCfg := capture.DefaultSupervisorConfig()
	supCfg.Breaker = resilience.SourceConfig(cfg.SourceMissThreshold, cfg.SourceResetTimeout)
	supCfg.StaleDistance = cfg.StaleHashDistance
	sup := capture.NewSupervisor(capture.OpenerFor(capture.Options{FPS: cfg.SourceFPS}), supCfg)
	defer func() { _ = sup.Close() }()

	if cfg.CameraSource != "" {
		if err := sup.Switch(ctx, cfg.CameraSource); err != nil {
			// Keep serving; the supervisor retries and /api/set_camera can replace it
			slog.Warn("initial source unavailable", "source", cfg.CameraSource, "error", err)
		}
	} else {
		slog.Info("no CAMERA_SOURCE set, waiting for /api/set_camera")
	}

	// Measurement pipeline
	opts := pipeline.DefaultOptions()
	opts.ROISize = cfg.ROISize
	opts.HistoryLen = cfg.HistoryLen
	opts.Threshold = cfg.ConsistencyThreshold
	opts.IdleInterval = cfg.IdleInterval
	opts.Lighting = cfg.DefaultLighting
	opts.Concurrent = cfg.ConcurrentRegions
	opts.Extractor.Clusters = cfg.KMeansClusters
	opts.Extractor.Attempts = cfg.KMeansAttempts
	opts.Extractor.MaxIter = cfg.KMeansMaxIter
	opts.Extractor.Seed = cfg.KMeansSeed
	pipe := pipeline.New(sup, opts)

	go func() {
		if err := pipe.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("pipeline error", "error", err)
		}
	}()

	// gRPC health
	grpcSrv := grpcserver.New(pipe)
	go grpcSrv.Watch(ctx)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		slog.Error("grpc listen failed", "addr", cfg.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			slog.Error("grpc server error", "error", err)
		}
	}()

	// HTTP/WebSocket server
	srv := server.New(pipe, sup, cfg)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("swatchqc server starting", "http", cfg.HTTPAddr, "grpc", cfg.GRPCAddr, "source", cfg.CameraSource)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	cancel()
	srv.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	grpcSrv.Stop()

	slog.Info("shutdown complete")
}
