package clibuild

import (
	"fmt"

	"github.com/repropipe/fabric/engine/domain"
)

// BaseImage returns the container base image an ecosystem's CLI-build
// recipe and Validate's executor both pin against (spec.md §4.8's
// "container recipes").
func BaseImage(ecosystem domain.Ecosystem) string {
	switch ecosystem {
	case domain.EcosystemMaven:
		return "maven:3.9-eclipse-temurin-17"
	case domain.EcosystemGradle:
		return "gradle:8.7-jdk17"
	default:
		return "golang:1.22-bookworm"
	}
}

// Dockerfile renders the Dockerfile CLI-build bundles alongside the project
// tree, pinned to the ecosystem's base image and build command.
func Dockerfile(ecosystem domain.Ecosystem, buildCommand string) string {
	return fmt.Sprintf(`FROM %s

WORKDIR /repro

COPY . .

RUN %s
`, BaseImage(ecosystem), buildCommand)
}

// ComposeFile renders the docker-compose recipe that runs the repro
// container under the determinism envelope's container layer.
func ComposeFile(reproID string, ecosystem domain.Ecosystem) string {
	return fmt.Sprintf(`version: "3.8"
services:
  repro:
    build: .
    image: repropipe/repro-%s:%s
    container_name: repro-%s
    network_mode: bridge
`, reproID, ecosystem, reproID)
}
