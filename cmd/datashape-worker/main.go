// Command datashape-worker consumes data.shape, infers a fixture schema
// from report context, generates synthetic rows, and scrubs PII.
package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/repropipe/fabric/engine/datashape"
	"github.com/repropipe/fabric/pkg/bus"
	"github.com/repropipe/fabric/pkg/objstore"
	"github.com/repropipe/fabric/pkg/pii"
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
	S3Bucket           string
	PIIThreshold       float64
	MaxConcurrentTasks int
	MetricsPort        int
}

func loadConfig() config {
	return config{
		NATSURL:            envOr("NATS_URL", "nats://localhost:4222"),
		S3Bucket:           envOr("S3_BUCKET", "fabric-artifacts"),
		PIIThreshold:       0.5,
		MaxConcurrentTasks: 4,
		MetricsPort:        9107,
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
		logger.Error("datashape-worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	met := telemetry.New()
	met.CollectRuntime("fabric_datashape")
	met.ServeAsync(cfg.MetricsPort)
	defer met.Shutdown(context.Background())

	objects, err := objstore.Open(ctx, cfg.S3Bucket)
	if err != nil {
		return err
	}

	b, err := bus.Connect(ctx, cfg.NATSURL, "FABRIC_PIPELINE", pipelineSubjects)
	if err != nil {
		return err
	}
	defer b.Close()

	cons, err := bus.NewConsumer[datashape.Message](ctx, b, "datashape", "data.shape", 5)
	if err != nil {
		return err
	}

	deps := &datashape.Deps{
		Inferrer:     datashape.KeywordSchemaInferrer{},
		Analyzer:     pii.RegexAnalyzer{},
		Anonymizer:   pii.PlaceholderAnonymizer{},
		PIIThreshold: cfg.PIIThreshold,
		Objects:      objects,
		Rand:         rand.New(rand.NewSource(1)),
		Logger:       logger,
	}

	rt := workerrt.New(workerrt.Config{
		Role:               "datashape",
		MaxConcurrentTasks: cfg.MaxConcurrentTasks,
		Logger:             logger,
	}, cons, datashape.Handler(deps))

	logger.Info("datashape-worker: starting", "subject", "data.shape")
	done := make(chan struct{})
	go func() {
		rt.Start(ctx)
		close(done)
	}()

	<-ctx.Done()
	logger.Info("datashape-worker: shutting down")
	rt.Stop()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
	}
	return nil
}
