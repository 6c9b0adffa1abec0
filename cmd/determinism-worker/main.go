// Command determinism-worker consumes determinism.control requests,
// applying the layered execution envelope around a single command.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/repropipe/fabric/engine/determinism"
	"github.com/repropipe/fabric/pkg/bus"
	"github.com/repropipe/fabric/pkg/cache"
	"github.com/repropipe/fabric/pkg/telemetry"
	"github.com/repropipe/fabric/pkg/workerrt"
)

var pipelineSubjects = []string{
	"report.ingest", "report.signals", "report.synth", "data.shape",
	"mapping.request", "mapping.completed", "determinism.control",
	"repro.validate", "cli.request", "cli.completed",
	"export.request", "export.completed",
}

type config struct {
	NATSURL            string
	RedisAddr          string
	MaxConcurrentTasks int
	MetricsPort        int
}

func loadConfig() config {
	return config{
		NATSURL:            envOr("NATS_URL", "nats://localhost:4222"),
		RedisAddr:          envOr("REDIS_ADDR", "localhost:6379"),
		MaxConcurrentTasks: 2,
		MetricsPort:        9105,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("determinism-worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	met := telemetry.New()
	met.CollectRuntime("fabric_determinism")
	met.ServeAsync(cfg.MetricsPort)
	defer met.Shutdown(context.Background())

	c := cache.Open(cfg.RedisAddr)
	defer c.Close()

	b, err := bus.Connect(ctx, cfg.NATSURL, "FABRIC_PIPELINE", pipelineSubjects)
	if err != nil {
		return err
	}
	defer b.Close()

	cons, err := bus.NewConsumer[determinism.Message](ctx, b, "determinism", "determinism.control", 3)
	if err != nil {
		return err
	}

	deps := &determinism.Deps{
		Stats:           c,
		SamplerInterval: 5 * time.Second,
		Logger:          logger,
	}

	rt := workerrt.New(workerrt.Config{
		Role:               "determinism",
		MaxConcurrentTasks: cfg.MaxConcurrentTasks,
		Logger:             logger,
	}, cons, determinism.Handler(deps))

	logger.Info("determinism-worker: starting", "subject", "determinism.control")
	done := make(chan struct{})
	go func() {
		rt.Start(ctx)
		close(done)
	}()

	<-ctx.Done()
	logger.Info("determinism-worker: shutting down")
	rt.Stop()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
	}
	return nil
}
