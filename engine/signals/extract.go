// Package signals implements the Signal worker (spec.md §4.3): parses HAR
// and log signals into normalized records, extracts error signatures,
// clusters them in a shared vector space, and persists the clustered
// representatives.
package signals

import (
	"regexp"
	"sort"
	"strings"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/logparse"
)

// errorTypeRules is checked in order; the first keyword match on the
// lowercased "message details" concatenation wins (spec.md §4.3).
var errorTypeRules = []struct {
	kind     domain.ErrorType
	keywords []string
}{
	{domain.ErrorSyntax, []string{"syntax error", "unexpected token", "parse error"}},
	{domain.ErrorReference, []string{"is not defined", "reference error", "undefined variable"}},
	{domain.ErrorTypeError, []string{"is not a function", "cannot read propert", "type error"}},
	{domain.ErrorAuthentication, []string{"unauthorized", "forbidden", "authentication", "401", "403"}},
	{domain.ErrorTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{domain.ErrorNetwork, []string{"econnrefused", "network error", "fetch failed", "connection reset"}},
	{domain.ErrorDatabase, []string{"sql", "database", "query failed", "connection pool", "deadlock"}},
}

// classifyErrorType applies the keyword rules, defaulting to GenericError.
func classifyErrorType(message, details string) domain.ErrorType {
	text := strings.ToLower(message + " " + details)
	for _, rule := range errorTypeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.kind
			}
		}
	}
	return domain.ErrorGeneric
}

// stackTracePatterns covers common JS/Node and Python stack frame shapes.
var stackTracePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*at\s+\S+\s+\([^)]+\)\s*$`),
	regexp.MustCompile(`(?m)^\s*at\s+[^\s(]+:\d+:\d+\s*$`),
	regexp.MustCompile(`(?m)^\s*File\s+"[^"]+",\s+line\s+\d+.*$`),
	regexp.MustCompile(`(?m)^Traceback \(most recent call last\):.*$`),
}

// extractStackTrace returns the first matching stack pattern, or "".
func extractStackTrace(text string) string {
	for _, re := range stackTracePatterns {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

var (
	quotedStringRE = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	filePathRE     = regexp.MustCompile(`(?:\.{0,2}/)?[\w.\-/]+\.[a-zA-Z]{2,4}\b`)
	callableNameRE = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	numericTokenRE = regexp.MustCompile(`\b\d{3,4}\b`)
)

// extractKeyComponents returns the deduplicated union of quoted strings,
// file-path-like tokens, callable-name tokens, and 3-4-digit numbers found
// in text, in first-seen order (spec.md §4.3).
func extractKeyComponents(text string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, m := range quotedStringRE.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			add(m[1])
		} else {
			add(m[2])
		}
	}
	for _, m := range filePathRE.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range callableNameRE.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range numericTokenRE.FindAllString(text, -1) {
		add(m)
	}
	return out
}

func severityFor(level logparse.Level) domain.Severity {
	switch level {
	case logparse.LevelError:
		return domain.SeverityHigh
	case logparse.LevelWarn, logparse.LevelWarning:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// ExtractSignatures builds one candidate Signature per ERROR-level parsed
// log line (spec.md §4.3: "ERROR lines become candidate signatures").
func ExtractSignatures(reportID string, lines []logparse.Line) []domain.Signature {
	var out []domain.Signature
	for _, l := range lines {
		if l.Level != logparse.LevelError {
			continue
		}
		message, details := l.Message, l.Details
		sig := domain.Signature{
			SignatureHash: domain.ComputeSignatureHash(message, details),
			ReportID:      reportID,
			ErrorType:     classifyErrorType(message, details),
			Message:       message,
			Details:       details,
			StackTrace:    extractStackTrace(message + "\n" + details),
			KeyComponents: extractKeyComponents(message + " " + details),
			Severity:      severityFor(l.Level),
			Frequency:     1,
		}
		out = append(out, sig)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SignatureHash < out[j].SignatureHash })
	return out
}
