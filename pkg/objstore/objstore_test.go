package objstore

import "testing"

func TestKeyLayout(t *testing.T) {
	cases := []struct {
		got, want string
	}{
		{SignalKey("rep-1", "sig-1", "har.json"), "signals/rep-1/sig-1/har.json"},
		{ShapedDataKey("repro-1", "fixture.sql"), "shaped-data/repro-1/fixture.sql"},
		{GeneratedTestKey("repro-1", "go", "main_test.go"), "tests/generated/repro-1/go/main_test.go"},
		{ValidationVideoKey("repro-1", 2), "validation/videos/repro-1/run-2.webm"},
		{ValidationTraceKey("repro-1", 2), "validation/traces/repro-1/run-2.zip"},
		{ExportKey("exp-1", "bundle.tar"), "export/exp-1/bundle.tar"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("got %q, want %q", c.got, c.want)
		}
	}
}
