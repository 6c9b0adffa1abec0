package mapping

import (
	"strings"
	"testing"
)

func TestChunkText_PrefersSentenceBoundaryInFinal30Percent(t *testing.T) {
	// 1000-char chunk; place a period at position 950, well within the
	// final 30% window (700-1000), so the chunk should truncate there.
	body := strings.Repeat("a", 949) + "." + strings.Repeat("b", 200)
	chunks := ChunkText(body, 1000, 200)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	if !strings.HasSuffix(chunks[0], ".") {
		t.Fatalf("expected first chunk to end at sentence boundary, got suffix %q", chunks[0][len(chunks[0])-10:])
	}
}

func TestChunkText_HardCutoffWhenNoBoundary(t *testing.T) {
	body := strings.Repeat("x", 1000)
	chunks := ChunkText(body, 1000, 200)
	if len(chunks[0]) != 1000 {
		t.Fatalf("expected hard 1000-char cutoff, got %d", len(chunks[0]))
	}
}

func TestChunkText_ShortTextSingleChunk(t *testing.T) {
	chunks := ChunkText("short text", 1000, 200)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("expected single passthrough chunk, got %v", chunks)
	}
}

func TestChunkProject_SkipsNonWhitelistedExtensions(t *testing.T) {
	files := []TrackedFile{
		{Path: "main.go", Body: "package main"},
		{Path: "image.png", Body: "binary"},
	}
	chunks := ChunkProject(files, DefaultExtensionWhitelist, 1000, 200)
	for _, c := range chunks {
		if strings.HasSuffix(c.FilePath, ".png") {
			t.Fatal("expected .png to be skipped")
		}
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk from main.go, got %d", len(chunks))
	}
}
