// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"edugrant-workers/internal/api"
	"edugrant-workers/internal/common/camunda"
	"edugrant-workers/internal/common/config"
	"edugrant-workers/internal/common/logger"
	"edugrant-workers/internal/common/observability"
	"edugrant-workers/internal/recommend"
	"edugrant-workers/internal/scoring"

	ro "edugrant-workers/internal/workers/recommendation/rank-offers"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{cfg.Logging.Output},
		Service:     cfg.App.Name,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("catalogDriver", cfg.Catalog.Driver),
		zap.String("profilesDriver", cfg.Profiles.Driver),
		zap.String("sinkDriver", cfg.Sink.Driver),
	)

	obs := observability.New(cfg.App.Name, observability.TracingOptions{
		Enabled:  cfg.Tracing.Enabled,
		Endpoint: cfg.Tracing.Endpoint,
		Sampling: cfg.Tracing.Sampling,
	}, log)
	defer obs.Shutdown()

	ctx := context.Background()

	deps, err := connectDependencies(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("dependency initialization failed", zap.Error(err))
	}
	defer deps.Close()

	src := buildCatalog(cfg, deps, log)
	profiles := buildProfileStore(cfg, deps, log)
	out, err := buildSink(ctx, cfg, deps)
	if err != nil {
		zapLog.Fatal("result sink initialization failed", zap.Error(err))
	}

	artifacts := buildArtifactSource(cfg, zapLog)
	engine := scoring.NewEngine(artifacts, log)

	service := recommend.NewService(src, profiles, out, engine, log, cfg.API.DefaultLimit).WithRecorder(obs)

	// --- Zeebe worker ---
	var (
		zeebe   *camunda.Client
		workers []*camunda.CamundaWorker
	)
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
			RetryConfig: &camunda.RetryConfig{
				MaxRetries: 10,
				BaseDelay:  2 * time.Second,
				MaxDelay:   30 * time.Second,
			},
		})
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		if config.IsWorkerEnabled(cfg, ro.TaskType) && registeredActivity(cfg.Camunda.RegistryPath, ro.TaskType, zapLog) {
			wcfg := config.GetWorkerConfig(cfg, ro.TaskType)
			handler := ro.NewHandler(&ro.Config{Timeout: config.GetDuration(wcfg.Timeout)}, service, log)
			workers = append(workers, camunda.NewWorker(
				zeebe.GetClient(),
				ro.TaskType,
				camunda.WorkerOptions{MaxJobsActive: wcfg.MaxJobsActive, Timeout: config.GetDuration(wcfg.Timeout)},
				handler,
				log,
			))
		} else {
			zapLog.Info("worker disabled", zap.String("taskType", ro.TaskType))
		}
	}

	// --- HTTP API ---
	var server *api.Server
	serverErr := make(chan error, 1)
	if cfg.API.Enabled {
		server = api.NewServer(service, api.Options{
			Version:      cfg.App.Version,
			ReadTimeout:  config.GetDuration(cfg.API.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.API.WriteTimeout),
			CORSOrigins:  cfg.API.CORSOrigins,
		}, log)
		deps.registerReadiness(server)
		if zeebe != nil {
			server.AddReadinessCheck("zeebe", zeebe.HealthCheck)
		}

		go func() {
			serverErr <- server.Listen(cfg.API.Address)
		}()
	}

	if server == nil && len(workers) == 0 {
		zapLog.Warn("neither the HTTP API nor any Zeebe worker is enabled")
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, stopping...")
	case err := <-serverErr:
		zapLog.Error("HTTP server stopped unexpectedly", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("Error shutting down HTTP server", zap.Error(err))
		}
	}
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Worker manager stopped gracefully")
}
