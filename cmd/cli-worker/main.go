// Command cli-worker consumes cli.request, builds an ecosystem-specific
// project tree around a generated test, and publishes cli.completed.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/repropipe/fabric/engine/clibuild"
	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/bus"
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

type config struct {
	NATSURL            string
	PostgresDSN        string
	S3Bucket           string
	MaxConcurrentTasks int
	MetricsPort        int
}

func loadConfig() config {
	return config{
		NATSURL:            envOr("NATS_URL", "nats://localhost:4222"),
		PostgresDSN:        envOr("POSTGRES_DSN", "postgres://localhost:5432/fabric?sslmode=disable"),
		S3Bucket:           envOr("S3_BUCKET", "fabric-artifacts"),
		MaxConcurrentTasks: 4,
		MetricsPort:        9108,
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
		logger.Error("cli-worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	met := telemetry.New()
	met.CollectRuntime("fabric_cli")
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

	b, err := bus.Connect(ctx, cfg.NATSURL, "FABRIC_PIPELINE", pipelineSubjects)
	if err != nil {
		return err
	}
	defer b.Close()

	cons, err := bus.NewConsumer[clibuild.Message](ctx, b, "cli", "cli.request", 5)
	if err != nil {
		return err
	}

	deps := &clibuild.Deps{
		CLIRepros: relstore.NewCLIReproRepo(db),
		Objects:   objects,
		Logger:    logger,
	}

	publish := func(ctx context.Context, cli domain.CLIRepro) error {
		return bus.Publish(ctx, b, "cli.completed", cli)
	}

	rt := workerrt.New(workerrt.Config{
		Role:               "cli",
		MaxConcurrentTasks: cfg.MaxConcurrentTasks,
		Logger:             logger,
	}, cons, clibuild.Handler(deps, publish))

	logger.Info("cli-worker: starting", "subject", "cli.request")
	done := make(chan struct{})
	go func() {
		rt.Start(ctx)
		close(done)
	}()

	<-ctx.Done()
	logger.Info("cli-worker: shutting down")
	rt.Stop()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
	}
	return nil
}
