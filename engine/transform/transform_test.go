package transform

import (
	"context"
	"strings"
	"testing"

	"github.com/repropipe/fabric/engine/domain"
)

func TestDispatcher_UnregisteredKindYieldsEmpty(t *testing.T) {
	d := NewDispatcher(map[domain.SignalKind]Extractor{})
	if got := d.Extract(context.Background(), domain.SignalVideo, []byte("x")); got != "" {
		t.Fatalf("expected empty text for unregistered kind, got %q", got)
	}
}

func TestDispatcher_FailingExtractorYieldsEmpty(t *testing.T) {
	boom := ExtractorFunc(func(context.Context, domain.SignalKind, []byte) (string, error) {
		return "", errBoom
	})
	d := NewDispatcher(map[domain.SignalKind]Extractor{domain.SignalLog: boom})
	if got := d.Extract(context.Background(), domain.SignalLog, nil); got != "" {
		t.Fatalf("expected empty text on extractor error, got %q", got)
	}
}

func TestHARExtractor_SummarizesFailedRequests(t *testing.T) {
	payload := []byte(`{"log":{"pages":[{"onLoad":120.5}],"entries":[
		{"request":{"method":"GET","url":"/ok"},"response":{"status":200,"content":{"size":10}}},
		{"request":{"method":"GET","url":"/bad"},"response":{"status":500,"content":{"size":5}}}
	]}}`)
	text, err := HARExtractor{}.Extract(context.Background(), domain.SignalHAR, payload)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "failed=1") {
		t.Fatalf("expected failed=1 in summary, got %q", text)
	}
	if !strings.Contains(text, "500 GET /bad") {
		t.Fatalf("expected failed entry line, got %q", text)
	}
}

func TestLogExtractor_PassesThroughParsedLines(t *testing.T) {
	raw := "2024-01-01T00:00:00Z ERROR something broke"
	text, err := LogExtractor{}.Extract(context.Background(), domain.SignalLog, []byte(raw))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strings.TrimSpace(text) != raw {
		t.Fatalf("expected passthrough of recognized line, got %q", text)
	}
}

func TestOpaqueExtractor_AlwaysEmpty(t *testing.T) {
	text, err := OpaqueExtractor{}.Extract(context.Background(), domain.SignalScreenshot, []byte{1, 2, 3})
	if err != nil || text != "" {
		t.Fatalf("expected empty, nil, got %q, %v", text, err)
	}
}

type errString string

func (e errString) Error() string { return string(e) }

const errBoom = errString("boom")
