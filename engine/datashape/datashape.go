package datashape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"github.com/repropipe/fabric/pkg/objstore"
	"github.com/repropipe/fabric/pkg/pii"
)

// Options is the Message's nested options object (spec.md §6: data.shape).
type Options struct {
	Context     string `json:"context"`
	RecordCount int    `json:"record_count"`
}

// Message is the DataShape worker's subscribed payload: data.shape.
type Message struct {
	ReportID string  `json:"report_id"`
	Options  Options `json:"options"`
}

// ArtifactStore uploads the generated fixture bundle to object storage.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data io.Reader) error
}

var _ ArtifactStore = (*objstore.Store)(nil)

// Deps holds the DataShape worker's external collaborators.
type Deps struct {
	Inferrer    SchemaInferrer
	Analyzer    pii.Analyzer
	Anonymizer  pii.Anonymizer
	PIIThreshold float64
	Objects     ArtifactStore
	Rand        *rand.Rand
	Logger      *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Run infers a schema from the report context, generates fixtures, scrubs
// PII, flags dangling foreign keys, and uploads the fixture bundle
// (spec.md §4.8).
func Run(ctx context.Context, deps *Deps, msg Message) (Fixtures, error) {
	inferrer := deps.Inferrer
	if inferrer == nil {
		inferrer = KeywordSchemaInferrer{}
	}
	schema, err := inferrer.Infer(ctx, msg.Options.Context)
	if err != nil {
		return nil, fmt.Errorf("datashape: infer schema for report %s: %w", msg.ReportID, err)
	}

	fixtures := GenerateFixtures(schema, msg.Options.RecordCount, deps.Rand)

	analyzer := deps.Analyzer
	if analyzer == nil {
		analyzer = pii.RegexAnalyzer{}
	}
	threshold := deps.PIIThreshold
	if threshold <= 0 {
		threshold = pii.DefaultThreshold
	}
	anonymizer := deps.Anonymizer
	if anonymizer == nil {
		anonymizer = pii.PlaceholderAnonymizer{Threshold: threshold}
	}
	scrubFixtures(fixtures, analyzer, anonymizer, threshold)

	if violations := CheckReferentialIntegrity(fixtures, schema); len(violations) > 0 {
		for _, v := range violations {
			deps.logger().Warn("datashape: referential integrity violation", "report_id", msg.ReportID, "violation", v.String())
		}
	}

	if deps.Objects != nil {
		data, err := json.Marshal(fixtures)
		if err != nil {
			return nil, fmt.Errorf("datashape: marshal fixtures for report %s: %w", msg.ReportID, err)
		}
		key := objstore.ShapedDataKey(msg.ReportID, "fixtures.json")
		if err := deps.Objects.Put(ctx, key, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("datashape: upload fixtures for report %s: %w", msg.ReportID, err)
		}
	}

	deps.logger().Info("datashape: generated fixtures", "report_id", msg.ReportID, "tables", len(schema.Tables))
	return fixtures, nil
}

// Handler adapts Run to workerrt.Handler[Message].
func Handler(deps *Deps) func(ctx context.Context, scratchDir string, msg Message) error {
	return func(ctx context.Context, _ string, msg Message) error {
		_, err := Run(ctx, deps, msg)
		return err
	}
}
