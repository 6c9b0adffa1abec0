package export

import (
	"archive/tar"
	"bytes"
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
)

// BuildDockerTarball assembles a single-layer OCI image from a CLIRepro's
// generated project tree and writes it as a docker-loadable tarball
// (spec.md §4.8's "assembles a Docker tarball"). files maps a path relative
// to the repro project root to its contents.
func BuildDockerTarball(imageRef string, files map[string][]byte) ([]byte, error) {
	layer, err := tarLayer(files)
	if err != nil {
		return nil, fmt.Errorf("export: build tar layer: %w", err)
	}

	img, err := mutate.AppendLayers(empty.Image, layer)
	if err != nil {
		return nil, fmt.Errorf("export: append layer: %w", err)
	}

	tag, err := name.NewTag(imageRef)
	if err != nil {
		return nil, fmt.Errorf("export: parse image ref %s: %w", imageRef, err)
	}

	var buf bytes.Buffer
	if err := tarball.Write(tag, img, &buf); err != nil {
		return nil, fmt.Errorf("export: write tarball: %w", err)
	}
	return buf.Bytes(), nil
}

func tarLayer(files map[string][]byte) (v1.Layer, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for path, content := range files {
		hdr := &tar.Header{
			Name: path,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write(content); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return tarball.LayerFromReader(bytes.NewReader(buf.Bytes()))
}
