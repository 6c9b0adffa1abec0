package datashape

import "github.com/repropipe/fabric/pkg/pii"

// scrubFixtures runs every string field value through analyzer+anonymizer
// at threshold, replacing values in place (spec.md §4.8). Generated values
// are synthetic, but report context text occasionally leaks into generated
// string fields (e.g. a label derived from the original report), so the
// gate runs unconditionally rather than only on context-derived fields.
func scrubFixtures(fixtures Fixtures, analyzer pii.Analyzer, anonymizer pii.Anonymizer, threshold float64) {
	for _, rows := range fixtures {
		for _, row := range rows {
			for k, v := range row {
				s, ok := v.(string)
				if !ok {
					continue
				}
				findings := analyzer.Analyze(s)
				if len(findings) == 0 {
					continue
				}
				row[k] = anonymizeAbove(anonymizer, s, findings, threshold)
			}
		}
	}
}

func anonymizeAbove(anonymizer pii.Anonymizer, s string, findings []pii.Finding, threshold float64) string {
	var kept []pii.Finding
	for _, f := range findings {
		if f.Confidence >= threshold {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return s
	}
	return anonymizer.Anonymize(s, kept)
}
