// Command map-worker consumes mapping.request, scans a checked-out
// repository, detects frameworks, searches indexed docs, and publishes
// mapping.completed.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/engine/mapping"
	"github.com/repropipe/fabric/engine/transform"
	"github.com/repropipe/fabric/pkg/bus"
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
	QdrantAddr         string
	QdrantCollection   string
	OllamaURL          string
	OllamaModel        string
	MaxConcurrentTasks int
	MetricsPort        int
}

func loadConfig() config {
	return config{
		NATSURL:            envOr("NATS_URL", "nats://localhost:4222"),
		PostgresDSN:        envOr("POSTGRES_DSN", "postgres://localhost:5432/fabric?sslmode=disable"),
		QdrantAddr:         envOr("QDRANT_ADDR", "localhost:6334"),
		QdrantCollection:   envOr("QDRANT_COLLECTION", "fabric_docs"),
		OllamaURL:          envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:        envOr("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		MaxConcurrentTasks: 4,
		MetricsPort:        9103,
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
		logger.Error("map-worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	met := telemetry.New()
	met.CollectRuntime("fabric_map")
	met.ServeAsync(cfg.MetricsPort)
	defer met.Shutdown(context.Background())

	db, err := relstore.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	vs, err := vector.Open(cfg.QdrantAddr, cfg.QdrantCollection)
	if err != nil {
		return err
	}
	defer vs.Close()
	if err := vs.EnsureCollection(ctx, 384); err != nil {
		return err
	}

	b, err := bus.Connect(ctx, cfg.NATSURL, "FABRIC_PIPELINE", pipelineSubjects)
	if err != nil {
		return err
	}
	defer b.Close()

	cons, err := bus.NewConsumer[mapping.Message](ctx, b, "map", "mapping.request", 5)
	if err != nil {
		return err
	}

	deps := &mapping.Deps{
		Mappings:  relstore.NewMappingRepo(db),
		DocChunks: relstore.NewDocChunkRepo(db),
		Vectors:   vs,
		Embedder:  transform.NewOllamaEmbedder(cfg.OllamaURL, cfg.OllamaModel),
		Scanner:   mapping.FilesystemScanner{},
	}
	deps.Logger = logger

	publish := func(ctx context.Context, m domain.Mapping) error {
		return bus.Publish(ctx, b, "mapping.completed", m)
	}

	rt := workerrt.New(workerrt.Config{
		Role:               "map",
		MaxConcurrentTasks: cfg.MaxConcurrentTasks,
		Logger:             logger,
	}, cons, mapping.Handler(deps, publish))

	logger.Info("map-worker: starting", "subject", "mapping.request")
	done := make(chan struct{})
	go func() {
		rt.Start(ctx)
		close(done)
	}()

	<-ctx.Done()
	logger.Info("map-worker: shutting down")
	rt.Stop()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
	}
	return nil
}
