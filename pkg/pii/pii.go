// Package pii defines the DataShape worker's PII analyzer+anonymizer as an
// opaque transform interface (spec.md §4.8) over the entity set {PERSON,
// EMAIL_ADDRESS, PHONE_NUMBER, LOCATION, CREDIT_CARD, SSN, DATE_TIME,
// IP_ADDRESS}. The regex-based default implementation detects EMAIL_ADDRESS,
// PHONE_NUMBER, CREDIT_CARD, SSN, DATE_TIME and IP_ADDRESS only; it does not
// detect PERSON or LOCATION.
package pii

import (
	"regexp"
	"sort"
)

// Entity is a detectable PII category.
type Entity string

const (
	EntityPerson       Entity = "PERSON"
	EntityEmailAddress Entity = "EMAIL_ADDRESS"
	EntityPhoneNumber  Entity = "PHONE_NUMBER"
	EntityLocation     Entity = "LOCATION"
	EntityCreditCard   Entity = "CREDIT_CARD"
	EntitySSN          Entity = "SSN"
	EntityDateTime     Entity = "DATE_TIME"
	EntityIPAddress    Entity = "IP_ADDRESS"
)

// Finding is one detected PII span with the analyzer's confidence.
type Finding struct {
	Entity     Entity
	Start      int
	End        int
	Text       string
	Confidence float64
}

// Analyzer detects PII spans in text. Real deployments can swap in a model-
// backed implementation; the pipeline core only depends on this interface.
type Analyzer interface {
	Analyze(text string) []Finding
}

// Anonymizer replaces detected findings in text, e.g. with entity-tagged
// placeholders.
type Anonymizer interface {
	Anonymize(text string, findings []Finding) string
}

// DefaultThreshold is the confidence floor below which a Finding is ignored
// (spec.md §4.8).
const DefaultThreshold = 0.5

// RegexAnalyzer is the default Analyzer: a fixed set of high-precision
// regexes per entity, each with a fixed confidence score.
type RegexAnalyzer struct{}

type rule struct {
	entity     Entity
	re         *regexp.Regexp
	confidence float64
}

var rules = []rule{
	{EntityEmailAddress, regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), 0.9},
	{EntitySSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), 0.85},
	{EntityCreditCard, regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`), 0.6},
	{EntityPhoneNumber, regexp.MustCompile(`\b(?:\+?1[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}\b`), 0.7},
	{EntityIPAddress, regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), 0.8},
	{EntityDateTime, regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:T\d{2}:\d{2}:\d{2}(?:Z|[+-]\d{2}:\d{2})?)?\b`), 0.75},
}

// Analyze scans text against the fixed rule set.
func (RegexAnalyzer) Analyze(text string) []Finding {
	var out []Finding
	for _, r := range rules {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			out = append(out, Finding{
				Entity:     r.entity,
				Start:      loc[0],
				End:        loc[1],
				Text:       text[loc[0]:loc[1]],
				Confidence: r.confidence,
			})
		}
	}
	return out
}

// PlaceholderAnonymizer replaces each finding at or above threshold with
// "<ENTITY>", processing findings in reverse byte-offset order so earlier
// offsets stay valid across replacements.
type PlaceholderAnonymizer struct {
	Threshold float64
}

// Anonymize redacts every finding whose confidence meets the threshold.
func (a PlaceholderAnonymizer) Anonymize(text string, findings []Finding) string {
	threshold := a.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	kept := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if f.Confidence >= threshold {
			kept = append(kept, f)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	for i := len(kept) - 1; i >= 0; i-- {
		f := kept[i]
		text = text[:f.Start] + "<" + string(f.Entity) + ">" + text[f.End:]
	}
	return text
}
