package clibuild

import (
	"strings"
	"testing"

	"github.com/repropipe/fabric/engine/domain"
)

func TestBuildProjectTree_Go(t *testing.T) {
	files, cmd := BuildProjectTree(domain.EcosystemGo, "r1", "package main")
	if cmd != "go test ./..." {
		t.Fatalf("unexpected build command %q", cmd)
	}
	var hasRunner bool
	for _, f := range files {
		if f.Path == "cmd/runner/main.go" {
			hasRunner = true
			if !strings.Contains(string(f.Content), "spf13/cobra") {
				t.Fatalf("expected runner entrypoint to import cobra")
			}
		}
	}
	if !hasRunner {
		t.Fatalf("expected a generated runner entrypoint in %+v", files)
	}
}

func TestBuildProjectTree_Maven(t *testing.T) {
	files, cmd := BuildProjectTree(domain.EcosystemMaven, "r2", "class ReproTest {}")
	if cmd != "mvn -B test" {
		t.Fatalf("unexpected build command %q", cmd)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
}

func TestBuildProjectTree_Gradle(t *testing.T) {
	files, cmd := BuildProjectTree(domain.EcosystemGradle, "r3", "class ReproTest {}")
	if cmd != "gradle test" {
		t.Fatalf("unexpected build command %q", cmd)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}
}

func TestDockerfile_PinsEcosystemBaseImage(t *testing.T) {
	df := Dockerfile(domain.EcosystemMaven, "mvn -B test")
	if !strings.Contains(df, "maven:3.9-eclipse-temurin-17") {
		t.Fatalf("expected maven base image in Dockerfile, got %q", df)
	}
	if !strings.Contains(df, "RUN mvn -B test") {
		t.Fatalf("expected build command in Dockerfile, got %q", df)
	}
}
