package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/har"
	"github.com/repropipe/fabric/pkg/logparse"
)

// HARExtractor renders a HAR payload's summary and failed requests as text.
type HARExtractor struct{}

func (HARExtractor) Extract(_ context.Context, _ domain.SignalKind, data []byte) (string, error) {
	log, err := har.Parse(data)
	if err != nil {
		return "", err
	}
	sum := har.Summarize(log)
	var buf strings.Builder
	fmt.Fprintf(&buf, "requests=%d failed=%d total_size=%d load_time=%.1fms\n",
		sum.TotalRequests, sum.FailedRequests, sum.TotalSize, sum.LoadTime)
	for _, e := range log.Entries {
		if e.Response.Status >= 400 {
			fmt.Fprintf(&buf, "%d %s %s\n", e.Response.Status, e.Request.Method, e.Request.URL)
		}
	}
	return buf.String(), nil
}

// LogExtractor keeps, verbatim and one per output line, the log lines that
// contain a severity token (logparse.ContainsSeverityToken). When no line
// does, it returns the first logFallbackChars characters of the log.
type LogExtractor struct{}

const logFallbackChars = 1000

func (LogExtractor) Extract(_ context.Context, _ domain.SignalKind, data []byte) (string, error) {
	text := string(data)
	var buf strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if logparse.ContainsSeverityToken(line) {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	if buf.Len() == 0 {
		if r := []rune(text); len(r) > logFallbackChars {
			return string(r[:logFallbackChars]), nil
		}
		return text, nil
	}
	return buf.String(), nil
}

// OpaqueExtractor is the fallback for signal kinds whose bytes→text
// transform requires a model invocation out of this module's scope (OCR for
// screenshots, ASR for video audio tracks). It always returns empty text;
// wiring a real OCR/ASR backend only requires swapping the dispatch table
// entry, not this package's contract.
type OpaqueExtractor struct{}

func (OpaqueExtractor) Extract(_ context.Context, _ domain.SignalKind, _ []byte) (string, error) {
	return "", nil
}

// DefaultDispatchTable wires the four signal kinds spec.md §4.2 names.
// Screenshot and video extraction is model-backed and out of scope (see
// OpaqueExtractor); HAR and log extraction are fully implemented here.
func DefaultDispatchTable() map[domain.SignalKind]Extractor {
	return map[domain.SignalKind]Extractor{
		domain.SignalHAR:        HARExtractor{},
		domain.SignalLog:        LogExtractor{},
		domain.SignalScreenshot: OpaqueExtractor{},
		domain.SignalVideo:      OpaqueExtractor{},
	}
}
