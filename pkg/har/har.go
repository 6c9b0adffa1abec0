// Package har parses HAR 1.2 captures into the normalized shape the Signal
// worker's summary statistics and the Synth worker's interaction
// classification both read (spec.md §4.3, §4.5).
package har

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Log is the top-level HAR document.
type Log struct {
	Pages   []Page   `json:"pages"`
	Entries []Entry  `json:"entries"`
}

// Page is one navigated page, with its onLoad timing.
type Page struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	OnLoadMS  float64 `json:"onLoad"`
}

// Entry is one HTTP request/response pair.
type Entry struct {
	PageRef  string   `json:"pageref"`
	Request  Request  `json:"request"`
	Response Response `json:"response"`
}

// Request is the HAR request object.
type Request struct {
	Method  string    `json:"method"`
	URL     string    `json:"url"`
	Headers []Header  `json:"headers"`
	PostData *PostData `json:"postData,omitempty"`
}

// PostData is the HAR postData object.
type PostData struct {
	MimeType string      `json:"mimeType"`
	Params   []PostParam `json:"params,omitempty"`
	Text     string      `json:"text,omitempty"`
}

// PostParam is one form-encoded parameter.
type PostParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Response is the HAR response object.
type Response struct {
	Status  int      `json:"status"`
	Content Content  `json:"content"`
	Headers []Header `json:"headers"`
}

// Content is the HAR response content descriptor.
type Content struct {
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// Header is one name/value HTTP header pair.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// harDoc is the on-disk envelope: {"log": {...}}.
type harDoc struct {
	Log Log `json:"log"`
}

// Parse decodes a raw HAR 1.2 JSON document.
func Parse(data []byte) (Log, error) {
	var doc harDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Log{}, fmt.Errorf("har: decode: %w", err)
	}
	return doc.Log, nil
}

// Summary aggregates request counts and load timing across a HAR document.
type Summary struct {
	TotalRequests  int     `json:"total_requests"`
	FailedRequests int     `json:"failed_requests"`
	TotalSize      int64   `json:"total_size"`
	LoadTime       float64 `json:"load_time"`
}

// Summarize computes the Signal worker's HAR summary. Failed means response
// status >= 400; load_time is the max page onLoad across pages (0 if none);
// total_size sums content.size per the HAR 1.2 schema field (spec.md open
// question (b): this is the decoded size, not the wire size).
func Summarize(log Log) Summary {
	var s Summary
	s.TotalRequests = len(log.Entries)
	for _, e := range log.Entries {
		if e.Response.Status >= 400 {
			s.FailedRequests++
		}
		s.TotalSize += e.Response.Content.Size
	}
	for _, p := range log.Pages {
		if p.OnLoadMS > s.LoadTime {
			s.LoadTime = p.OnLoadMS
		}
	}
	return s
}

// HeaderValue looks up a header by case-insensitive name, returning "" if absent.
func (e Entry) HeaderValue(headers []Header, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// RequestHeader is a convenience accessor over Entry.Request.Headers.
func (e Entry) RequestHeader(name string) string {
	return e.HeaderValue(e.Request.Headers, name)
}

// ResponseHeader is a convenience accessor over Entry.Response.Headers.
func (e Entry) ResponseHeader(name string) string {
	return e.HeaderValue(e.Response.Headers, name)
}
