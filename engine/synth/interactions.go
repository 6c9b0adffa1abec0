// Package synth derives an executable test scenario from a report's HAR
// signals and persists it as a Repro with ordered Steps (spec.md §4.5).
package synth

import (
	"encoding/json"
	"strings"

	"github.com/repropipe/fabric/pkg/har"
)

// Category is the coarse classification of one HAR entry.
type Category string

const (
	CategoryNavigation     Category = "navigation"
	CategoryFormSubmission Category = "form_submission"
	CategoryAPICall        Category = "api_call"
	CategoryIgnored        Category = ""
)

var apiURLTokens = []string{"/api/", "/v1/", "/v2/", "/graphql"}

// Classify buckets one HAR entry into navigation, form_submission, or
// api_call, in that precedence order (spec.md §4.5). Entries matching none
// are ignored (CategoryIgnored).
func Classify(e har.Entry) Category {
	method := strings.ToUpper(e.Request.Method)
	mime := e.Response.Content.MimeType

	if method == "GET" && (mime == "" || strings.HasPrefix(mime, "text/html")) {
		return CategoryNavigation
	}
	if method == "POST" && e.Request.PostData != nil &&
		(len(e.Request.PostData.Params) > 0 || e.Request.PostData.Text != "") {
		return CategoryFormSubmission
	}
	if looksLikeJSON(e) || urlContainsAPIToken(e.Request.URL) {
		return CategoryAPICall
	}
	return CategoryIgnored
}

func looksLikeJSON(e har.Entry) bool {
	reqType := e.RequestHeader("Content-Type")
	respType := e.ResponseHeader("Content-Type")
	return strings.Contains(strings.ToLower(reqType), "json") ||
		strings.Contains(strings.ToLower(respType), "json")
}

func urlContainsAPIToken(url string) bool {
	for _, tok := range apiURLTokens {
		if strings.Contains(url, tok) {
			return true
		}
	}
	return false
}

// ParseFormData extracts a form_submission entry's payload as key/value
// pairs: params win when present, else text is JSON-decoded, else the raw
// text is kept under "_raw" (spec.md §4.5).
func ParseFormData(pd *har.PostData) map[string]string {
	out := map[string]string{}
	if pd == nil {
		return out
	}
	if len(pd.Params) > 0 {
		for _, p := range pd.Params {
			out[p.Name] = p.Value
		}
		return out
	}
	if pd.Text == "" {
		return out
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(pd.Text), &decoded); err == nil {
		for k, v := range decoded {
			out[k] = toStringValue(v)
		}
		return out
	}
	out["_raw"] = pd.Text
	return out
}

func toStringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Interaction is one classified HAR entry carrying its parsed form data.
type Interaction struct {
	Category Category
	Entry    har.Entry
	FormData map[string]string
}

// ClassifyInteractions classifies every entry in log, discarding entries
// that match no category.
func ClassifyInteractions(log har.Log) []Interaction {
	var out []Interaction
	for _, e := range log.Entries {
		cat := Classify(e)
		if cat == CategoryIgnored {
			continue
		}
		in := Interaction{Category: cat, Entry: e}
		if cat == CategoryFormSubmission {
			in.FormData = ParseFormData(e.Request.PostData)
		}
		out = append(out, in)
	}
	return out
}
