package pii

import (
	"strings"
	"testing"
)

func TestRegexAnalyzer_DetectsEmail(t *testing.T) {
	findings := RegexAnalyzer{}.Analyze("contact me at jane.doe@example.com please")
	if len(findings) != 1 || findings[0].Entity != EntityEmailAddress {
		t.Fatalf("expected one email finding, got %+v", findings)
	}
}

func TestRegexAnalyzer_DetectsMultipleEntities(t *testing.T) {
	text := "email a@b.com from 10.0.0.1 on 2024-01-01"
	findings := RegexAnalyzer{}.Analyze(text)
	entities := map[Entity]bool{}
	for _, f := range findings {
		entities[f.Entity] = true
	}
	if !entities[EntityEmailAddress] || !entities[EntityIPAddress] || !entities[EntityDateTime] {
		t.Fatalf("expected email, ip, and datetime findings, got %+v", findings)
	}
}

func TestPlaceholderAnonymizer_RedactsAboveThreshold(t *testing.T) {
	text := "contact a@b.com now"
	findings := RegexAnalyzer{}.Analyze(text)
	out := PlaceholderAnonymizer{Threshold: DefaultThreshold}.Anonymize(text, findings)
	if strings.Contains(out, "a@b.com") {
		t.Fatalf("expected email redacted, got %q", out)
	}
	if !strings.Contains(out, "<EMAIL_ADDRESS>") {
		t.Fatalf("expected placeholder tag, got %q", out)
	}
}

func TestPlaceholderAnonymizer_KeepsBelowThreshold(t *testing.T) {
	out := PlaceholderAnonymizer{Threshold: 0.99}.Anonymize("a@b.com", []Finding{
		{Entity: EntityEmailAddress, Start: 0, End: 7, Text: "a@b.com", Confidence: 0.9},
	})
	if out != "a@b.com" {
		t.Fatalf("expected text unchanged below threshold, got %q", out)
	}
}
