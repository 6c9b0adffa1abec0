package export

import "testing"

func TestBuildDockerTarball_ProducesNonEmptyArchive(t *testing.T) {
	files := map[string][]byte{
		"Dockerfile": []byte("FROM golang:1.22\n"),
	}
	data, err := BuildDockerTarball("repropipe/repro-r1:go", files)
	if err != nil {
		t.Fatalf("BuildDockerTarball: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty tarball bytes")
	}
}
