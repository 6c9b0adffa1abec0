// Command validate-worker consumes repro.validate, runs a Repro's Steps N
// times under the determinism envelope, and persists stability metrics.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/repropipe/fabric/engine/validate"
	"github.com/repropipe/fabric/pkg/bus"
	"github.com/repropipe/fabric/pkg/cache"
	"github.com/repropipe/fabric/pkg/objstore"
	"github.com/repropipe/fabric/pkg/relstore"
	"github.com/repropipe/fabric/pkg/telemetry"
	"github.com/repropipe/fabric/pkg/workerrt"
)

var pipelineSubjects = []string{
	"report.ingest", "report.signals", "report.synth", "data.shape",
	"mapping.request", "mapping.completed", "determinism.control",
	"repro.validate", "cli.request", "cli.completed",
	"export.request", "export.completed",
}

// wireMessage mirrors spec's nested repro.validate payload:
// {validation_config: {repro_id, runs, determinism}}.
type wireMessage struct {
	ValidationConfig validate.Message `json:"validation_config"`
}

type config struct {
	NATSURL            string
	PostgresDSN        string
	S3Bucket           string
	RedisAddr          string
	MaxConcurrentTasks int
	MetricsPort        int
}

func loadConfig() config {
	return config{
		NATSURL:            envOr("NATS_URL", "nats://localhost:4222"),
		PostgresDSN:        envOr("POSTGRES_DSN", "postgres://localhost:5432/fabric?sslmode=disable"),
		S3Bucket:           envOr("S3_BUCKET", "fabric-artifacts"),
		RedisAddr:          envOr("REDIS_ADDR", "localhost:6379"),
		MaxConcurrentTasks: validate.DefaultMaxConcurrentRuns,
		MetricsPort:        9106,
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
		logger.Error("validate-worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	met := telemetry.New()
	met.CollectRuntime("fabric_validate")
	met.ServeAsync(cfg.MetricsPort)
	defer met.Shutdown(context.Background())

	db, err := relstore.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	objects, err := objstore.Open(ctx, cfg.S3Bucket)
	if err != nil {
		return err
	}

	c := cache.Open(cfg.RedisAddr)
	defer c.Close()

	b, err := bus.Connect(ctx, cfg.NATSURL, "FABRIC_PIPELINE", pipelineSubjects)
	if err != nil {
		return err
	}
	defer b.Close()

	cons, err := bus.NewConsumer[wireMessage](ctx, b, "validate", "repro.validate", 3)
	if err != nil {
		return err
	}

	deps := &validate.Deps{
		Repros: relstore.NewReproRepo(db),
		Steps:  relstore.NewStepRepo(db),
		Runs:   relstore.NewRunRepo(db),
		Stability: c,
		Objects:   objects,
		Executor: &validate.ContainerExecutor{
			CLIRepros: relstore.NewCLIReproRepo(db),
			Stats:     c,
		},
		MaxConcurrentRuns:   cfg.MaxConcurrentTasks,
		FlakyThreshold:      validate.DefaultFlakyThreshold,
		MinimizationTimeout: validate.DefaultMinimizationTimeout,
		Logger:              logger,
	}

	handler := func(ctx context.Context, _ string, msg wireMessage) error {
		_, err := validate.Run(ctx, deps, msg.ValidationConfig)
		return err
	}

	rt := workerrt.New(workerrt.Config{
		Role:               "validate",
		MaxConcurrentTasks: 1,
		Logger:             logger,
	}, cons, handler)

	logger.Info("validate-worker: starting", "subject", "repro.validate")
	done := make(chan struct{})
	go func() {
		rt.Start(ctx)
		close(done)
	}()

	<-ctx.Done()
	logger.Info("validate-worker: shutting down")
	rt.Stop()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
	}
	return nil
}
