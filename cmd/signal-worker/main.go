// Command signal-worker consumes report.signals, embeds each signal, and
// clusters near-duplicates into error signatures.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/repropipe/fabric/engine/signals"
	"github.com/repropipe/fabric/engine/transform"
	"github.com/repropipe/fabric/pkg/bus"
	"github.com/repropipe/fabric/pkg/objstore"
	"github.com/repropipe/fabric/pkg/relstore"
	"github.com/repropipe/fabric/pkg/telemetry"
	"github.com/repropipe/fabric/pkg/vector"
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
	QdrantAddr         string
	QdrantCollection   string
	OllamaURL          string
	OllamaModel        string
	MigrationsDir      string
	MaxConcurrentTasks int
	MetricsPort        int
}

func loadConfig() config {
	return config{
		NATSURL:            envOr("NATS_URL", "nats://localhost:4222"),
		PostgresDSN:        envOr("POSTGRES_DSN", "postgres://localhost:5432/fabric?sslmode=disable"),
		S3Bucket:           envOr("S3_BUCKET", "fabric-artifacts"),
		QdrantAddr:         envOr("QDRANT_ADDR", "localhost:6334"),
		QdrantCollection:   envOr("QDRANT_COLLECTION", "fabric_signals"),
		OllamaURL:          envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:        envOr("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		MigrationsDir:      envOr("MIGRATIONS_DIR", "migrations"),
		MaxConcurrentTasks: 4,
		MetricsPort:        9102,
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
		logger.Error("signal-worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	met := telemetry.New()
	met.CollectRuntime("fabric_signal")
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

	vs, err := vector.Open(cfg.QdrantAddr, cfg.QdrantCollection)
	if err != nil {
		return err
	}
	defer vs.Close()
	if err := vs.EnsureCollection(ctx, signals.EmbeddingDims); err != nil {
		return err
	}

	b, err := bus.Connect(ctx, cfg.NATSURL, "FABRIC_PIPELINE", pipelineSubjects)
	if err != nil {
		return err
	}
	defer b.Close()

	cons, err := bus.NewConsumer[signals.Message](ctx, b, "signal", "report.signals", 5)
	if err != nil {
		return err
	}

	deps := &signals.Deps{
		Signals:             relstore.NewSignalRepo(db),
		Signatures:          relstore.NewSignatureRepo(db),
		Objects:             objects,
		Vectors:             vs,
		Embedder:            transform.NewOllamaEmbedder(cfg.OllamaURL, cfg.OllamaModel),
		SimilarityThreshold: signals.DefaultSimilarityThreshold,
		MinSamplesCluster:   signals.DefaultMinSamplesCluster,
		Logger:              logger,
	}

	rt := workerrt.New(workerrt.Config{
		Role:               "signal",
		MaxConcurrentTasks: cfg.MaxConcurrentTasks,
		Logger:             logger,
	}, cons, signals.Handler(deps))

	logger.Info("signal-worker: starting", "subject", "report.signals")
	done := make(chan struct{})
	go func() {
		rt.Start(ctx)
		close(done)
	}()

	<-ctx.Done()
	logger.Info("signal-worker: shutting down")
	rt.Stop()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
	}
	return nil
}
