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

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"summarize-pro/internal/config"
	workerPkg "summarize-pro/internal/infra/worker"
	"summarize-pro/internal/inference"
	grpcserver "summarize-pro/internal/interface/grpc"
	"summarize-pro/internal/observability/logging"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("inference worker failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := workerPkg.NewWorkerMetrics()
	cfg := workerPkg.LoadConfigFromEnv(logger, metrics.ConfigMetrics)

	loader, err := newLoader(logger)
	if err != nil {
		return err
	}

	inferenceSrv := grpcserver.NewInferenceServer(loader,
		grpcserver.WithMaxHandles(cfg.MaxHandles),
		grpcserver.WithRunTimeout(cfg.RunTimeout))
	defer inferenceSrv.Close()

	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(metrics.UnaryServerInterceptor(inferenceSrv.Loaded)))
	grpcserver.RegisterInferenceServer(grpcSrv, inferenceSrv)
	grpcHealth := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, grpcHealth)

	healthSrv := workerPkg.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger, inferenceSrv.Loaded)
	go func() {
		if err := healthSrv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server stopped unexpectedly", slog.Any("error", err))
		}
	}()
	startMetricsServer(ctx, logger, cfg.MetricsPort)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen on grpc port %d: %w", cfg.GRPCPort, err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("inference worker starting", slog.String("addr", lis.Addr().String()))
		errCh <- grpcSrv.Serve(lis)
	}()
	grpcHealth.SetServingStatus(inference.GRPCServiceName, healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetReady(true)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	healthSrv.SetReady(false)
	grpcHealth.Shutdown()
	gracefulStop(logger, grpcSrv, cfg.ShutdownTimeout)
	return nil
}

// newLoader serves every backend except grpc, which would point back at a worker.
func newLoader(logger *slog.Logger) (inference.Loader, error) {
	infCfg, err := config.LoadInferenceConfig()
	if err != nil {
		return nil, err
	}
	defaultBackend := infCfg.DefaultBackend
	if defaultBackend == "grpc" {
		defaultBackend = "local"
	}

	registry, err := inference.NewRegistry(defaultBackend,
		inference.NewLocalBackend(),
		inference.NewOpenAIBackend(infCfg.OpenAI),
		inference.NewClaudeBackend(infCfg.Claude),
		inference.NewResponsesBackend(infCfg.Responses),
	)
	if err != nil {
		return nil, err
	}
	logger.Info("inference backends ready",
		slog.String("default_backend", defaultBackend),
		slog.Any("backends", registry.Backends()))
	return registry, nil
}

func gracefulStop(logger *slog.Logger, srv *grpc.Server, timeout time.Duration) {
	logger.Info("shutting down inference worker")
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("inference worker stopped")
	case <-time.After(timeout):
		logger.Warn("graceful stop timed out, forcing", slog.Duration("timeout", timeout))
		srv.Stop()
	}
}
