// Package mapping implements the Map worker (spec.md §4.4): framework
// detection, module-path guessing, document similarity search, confidence
// scoring, and project indexing.
package mapping

import "strings"

// TrackedFile is one file the Map worker scans, with its full text body
// already loaded (callers are responsible for size-bounding this).
type TrackedFile struct {
	Path string
	Body string
}

// FrameworkPattern names one signal for a framework: a path-name token and
// a body-content token, either of which may be empty to skip that check.
type FrameworkPattern struct {
	PathToken string
	BodyToken string
}

// DefaultFrameworkPatterns is the out-of-the-box pattern dictionary. Callers
// may supply their own in place of this one.
func DefaultFrameworkPatterns() map[string][]FrameworkPattern {
	return map[string][]FrameworkPattern{
		"react":   {{PathToken: ".jsx"}, {PathToken: ".tsx"}, {BodyToken: "from \"react\""}, {BodyToken: "useState"}},
		"vue":     {{PathToken: ".vue"}, {BodyToken: "createApp"}, {BodyToken: "defineComponent"}},
		"angular": {{PathToken: ".component.ts"}, {BodyToken: "@Component"}, {BodyToken: "@NgModule"}},
		"nextjs":  {{PathToken: "next.config"}, {PathToken: "pages/_app"}, {BodyToken: "next/router"}},
		"express": {{BodyToken: "require(\"express\")"}, {BodyToken: "from \"express\""}, {BodyToken: "app.listen"}},
		"django":  {{PathToken: "manage.py"}, {PathToken: "settings.py"}, {BodyToken: "from django"}},
		"flask":   {{BodyToken: "from flask import"}, {BodyToken: "Flask(__name__)"}},
		"rails":   {{PathToken: "config/routes.rb"}, {PathToken: "Gemfile"}, {BodyToken: "ActiveRecord"}},
		"spring":  {{PathToken: "pom.xml"}, {BodyToken: "@SpringBootApplication"}, {BodyToken: "@RestController"}},
	}
}

// DetectFrameworks scores every framework in dict by scanning files, then
// normalizes the scores to sum to 1.0 (or leaves them all zero if no
// framework scored anything), per spec.md §4.4.
func DetectFrameworks(files []TrackedFile, dict map[string][]FrameworkPattern) map[string]float64 {
	scores := make(map[string]float64, len(dict))
	for name := range dict {
		scores[name] = 0
	}
	for _, f := range files {
		lowerBody := strings.ToLower(f.Body)
		lowerPath := strings.ToLower(f.Path)
		for name, patterns := range dict {
			for _, p := range patterns {
				if p.PathToken != "" && strings.Contains(lowerPath, strings.ToLower(p.PathToken)) {
					scores[name] += 1.0
				}
				if p.BodyToken != "" && strings.Contains(lowerBody, strings.ToLower(p.BodyToken)) {
					scores[name] += 0.5
				}
			}
		}
	}

	var total float64
	for _, s := range scores {
		total += s
	}
	if total == 0 {
		return scores
	}
	for name, s := range scores {
		scores[name] = s / total
	}
	return scores
}

// MaxScore returns the highest framework score, or 0 if scores is empty.
func MaxScore(scores map[string]float64) float64 {
	var max float64
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	return max
}
