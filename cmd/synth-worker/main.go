// Command synth-worker consumes report.synth, classifies a report's HAR
// signals into interactions, and synthesizes a Repro's ordered Steps.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/repropipe/fabric/engine/synth"
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
		MetricsPort:        9104,
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
		logger.Error("synth-worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	met := telemetry.New()
	met.CollectRuntime("fabric_synth")
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

	cons, err := bus.NewConsumer[synth.Message](ctx, b, "synth", "report.synth", 5)
	if err != nil {
		return err
	}

	deps := &synth.Deps{
		Repros:  relstore.NewReproRepo(db),
		Steps:   relstore.NewStepRepo(db),
		Signals: relstore.NewSignalRepo(db),
		Objects: objects,
		Logger:  logger,
	}

	rt := workerrt.New(workerrt.Config{
		Role:               "synth",
		MaxConcurrentTasks: cfg.MaxConcurrentTasks,
		Logger:             logger,
	}, cons, synth.Handler(deps))

	logger.Info("synth-worker: starting", "subject", "report.synth")
	done := make(chan struct{})
	go func() {
		rt.Start(ctx)
		close(done)
	}()

	<-ctx.Done()
	logger.Info("synth-worker: shutting down")
	rt.Stop()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
	}
	return nil
}
