package mapping

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFilesystemScanner_SkipsVendorAndNonWhitelisted(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "vendor"), 0o755)
	os.WriteFile(filepath.Join(dir, "vendor", "dep.go"), []byte("package dep"), 0o644)
	os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644)
	os.WriteFile(filepath.Join(dir, "image.png"), []byte{0, 1, 2}, 0o644)

	files, err := FilesystemScanner{}.Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(files) != 1 || files[0].Path != "main.go" {
		t.Fatalf("expected only main.go, got %+v", files)
	}
}
