// Package worker holds the runtime plumbing of the inference worker process:
// its configuration, probes and Prometheus collectors.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"summarize-pro/internal/pkg/config"
)

// WorkerConfig controls the inference worker.
type WorkerConfig struct {
	// GRPCPort serves the inference protocol. Default 50051.
	GRPCPort int

	// HealthPort serves /health and /health/ready. Default 9091.
	HealthPort int

	// MetricsPort serves /metrics. Default 9090.
	MetricsPort int

	// MaxHandles caps the number of live model handles; 0 means unbounded. Default 16.
	MaxHandles int

	// RunTimeout bounds a single inference call. Default 2 minutes.
	RunTimeout time.Duration

	// ShutdownTimeout bounds graceful stop of the gRPC server. Default 30 seconds.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the worker defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		GRPCPort:        50051,
		HealthPort:      9091,
		MetricsPort:     9090,
		MaxHandles:      16,
		RunTimeout:      2 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
	}
}

func validateMaxHandles(n int) error {
	return config.ValidateIntRange(n, 0, 1024)
}

func validateRunTimeout(d time.Duration) error {
	return config.ValidateDuration(d, time.Second, 30*time.Minute)
}

// Validate reports every invalid field.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidatePort(c.GRPCPort); err != nil {
		errs = append(errs, fmt.Errorf("grpc port: %w", err))
	}
	if err := config.ValidatePort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidatePort(c.MetricsPort); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.GRPCPort == c.HealthPort || c.GRPCPort == c.MetricsPort || c.HealthPort == c.MetricsPort {
		errs = append(errs, errors.New("grpc, health and metrics ports must differ"))
	}
	if err := validateMaxHandles(c.MaxHandles); err != nil {
		errs = append(errs, fmt.Errorf("max handles: %w", err))
	}
	if err := validateRunTimeout(c.RunTimeout); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("shutdown timeout: %w", err))
	}
	return errors.Join(errs...)
}

// LoadConfigFromEnv reads the worker configuration. Invalid values fall back to
// their defaults and are logged; the returned config is always usable.
//
//	WORKER_GRPC_PORT, WORKER_HEALTH_PORT, WORKER_METRICS_PORT,
//	WORKER_MAX_HANDLES, WORKER_RUN_TIMEOUT, WORKER_SHUTDOWN_TIMEOUT
func LoadConfigFromEnv(logger *slog.Logger, metrics *config.ConfigMetrics) *WorkerConfig {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	l := config.NewLoader(logger, metrics)

	cfg := &WorkerConfig{
		GRPCPort:        config.Apply(l, "grpc_port", config.Int("WORKER_GRPC_PORT", def.GRPCPort, config.ValidatePort)),
		HealthPort:      config.Apply(l, "health_port", config.Int("WORKER_HEALTH_PORT", def.HealthPort, config.ValidatePort)),
		MetricsPort:     config.Apply(l, "metrics_port", config.Int("WORKER_METRICS_PORT", def.MetricsPort, config.ValidatePort)),
		MaxHandles:      config.Apply(l, "max_handles", config.Int("WORKER_MAX_HANDLES", def.MaxHandles, validateMaxHandles)),
		RunTimeout:      config.Apply(l, "run_timeout", config.Duration("WORKER_RUN_TIMEOUT", def.RunTimeout, validateRunTimeout)),
		ShutdownTimeout: config.Apply(l, "shutdown_timeout", config.Duration("WORKER_SHUTDOWN_TIMEOUT", def.ShutdownTimeout, config.ValidatePositiveDuration)),
	}

	// Each port is valid on its own; a collision resets all three.
	if cfg.GRPCPort == cfg.HealthPort || cfg.GRPCPort == cfg.MetricsPort || cfg.HealthPort == cfg.MetricsPort {
		config.Apply(l, "ports", config.Result[int]{
			Warning:         fmt.Sprintf("port collision grpc=%d health=%d metrics=%d, falling back to defaults", cfg.GRPCPort, cfg.HealthPort, cfg.MetricsPort),
			FallbackApplied: true,
		})
		cfg.GRPCPort, cfg.HealthPort, cfg.MetricsPort = def.GRPCPort, def.HealthPort, def.MetricsPort
	}

	if l.Finish() {
		logger.Warn("worker configuration loaded with fallbacks")
	}
	logger.Info("worker configuration loaded",
		slog.Int("grpc_port", cfg.GRPCPort),
		slog.Int("health_port", cfg.HealthPort),
		slog.Int("metrics_port", cfg.MetricsPort),
		slog.Int("max_handles", cfg.MaxHandles),
		slog.Duration("run_timeout", cfg.RunTimeout),
		slog.Duration("shutdown_timeout", cfg.ShutdownTimeout),
	)
	return cfg
}
