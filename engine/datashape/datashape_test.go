package datashape

import (
	"bytes"
	"context"
	"io"
	"testing"
)

type fakeObjects struct{ puts map[string][]byte }

func (f *fakeObjects) Put(_ context.Context, key string, data io.Reader) error {
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	b, _ := io.ReadAll(data)
	f.puts[key] = b
	return nil
}

func TestRun_UploadsFixtureBundle(t *testing.T) {
	objects := &fakeObjects{}
	deps := &Deps{Objects: objects}
	fixtures, err := Run(context.Background(), deps, Message{ReportID: "r1", Options: Options{Context: "user order", RecordCount: 3}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fixtures["users"]) != 3 {
		t.Fatalf("expected 3 user rows, got %d", len(fixtures["users"]))
	}
	if len(objects.puts) != 1 {
		t.Fatalf("expected 1 uploaded fixture bundle, got %d", len(objects.puts))
	}
}

func TestRun_ScrubsPIIFromGeneratedEmail(t *testing.T) {
	objects := &fakeObjects{}
	deps := &Deps{Objects: objects}
	fixtures, err := Run(context.Background(), deps, Message{ReportID: "r1", Options: Options{Context: "user", RecordCount: 1}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	email := fixtures["users"][0]["email"].(string)
	if bytes.Contains([]byte(email), []byte("@example.test")) {
		t.Fatalf("expected generated email to be anonymized, got %q", email)
	}
}
