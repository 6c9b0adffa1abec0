package clibuild

import (
	"fmt"

	"github.com/repropipe/fabric/engine/domain"
)

// ProjectFile is one file in a generated per-ecosystem project tree, keyed
// by its path relative to the project root.
type ProjectFile struct {
	Path    string
	Content []byte
}

// BuildProjectTree lays out testCode plus ecosystem build tooling into the
// file set CLI-build emits for a Repro (spec.md §4.8). The go ecosystem's
// entrypoint also gets a generated cobra-based runner (runner.go) so the
// test binary has a real CLI surface, matching the pack's CLI idiom.
func BuildProjectTree(ecosystem domain.Ecosystem, reproID, testCode string) ([]ProjectFile, string) {
	switch ecosystem {
	case domain.EcosystemMaven:
		return buildMavenTree(reproID, testCode)
	case domain.EcosystemGradle:
		return buildGradleTree(reproID, testCode)
	default:
		return buildGoTree(reproID, testCode)
	}
}

func buildMavenTree(reproID, testCode string) ([]ProjectFile, string) {
	pom := fmt.Sprintf(`<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>repropipe</groupId>
  <artifactId>repro-%s</artifactId>
  <version>1.0.0</version>
  <properties>
    <maven.compiler.source>17</maven.compiler.source>
    <maven.compiler.target>17</maven.compiler.target>
  </properties>
  <dependencies>
    <dependency>
      <groupId>com.microsoft.playwright</groupId>
      <artifactId>playwright</artifactId>
      <version>1.45.0</version>
    </dependency>
    <dependency>
      <groupId>org.junit.jupiter</groupId>
      <artifactId>junit-jupiter</artifactId>
      <version>5.10.2</version>
      <scope>test</scope>
    </dependency>
  </dependencies>
</project>
`, reproID)
	return []ProjectFile{
		{Path: "pom.xml", Content: []byte(pom)},
		{Path: "src/test/java/ReproTest.java", Content: []byte(testCode)},
	}, "mvn -B test"
}

func buildGradleTree(reproID, testCode string) ([]ProjectFile, string) {
	build := fmt.Sprintf(`plugins {
    id 'java'
}

group = 'repropipe'
version = '1.0.0'

repositories {
    mavenCentral()
}

dependencies {
    testImplementation 'com.microsoft.playwright:playwright:1.45.0'
    testImplementation platform('org.junit:junit-bom:5.10.2')
    testImplementation 'org.junit.jupiter:junit-jupiter'
}

test {
    useJUnitPlatform()
}

// repro-%s
`, reproID)
	return []ProjectFile{
		{Path: "build.gradle", Content: []byte(build)},
		{Path: "settings.gradle", Content: []byte(fmt.Sprintf("rootProject.name = 'repro-%s'\n", reproID))},
		{Path: "src/test/java/ReproTest.java", Content: []byte(testCode)},
	}, "gradle test"
}

func buildGoTree(reproID, testCode string) ([]ProjectFile, string) {
	mod := fmt.Sprintf("module repro/%s\n\ngo 1.22\n\nrequire github.com/spf13/cobra v1.10.2\n", reproID)
	return []ProjectFile{
		{Path: "go.mod", Content: []byte(mod)},
		{Path: "repro_test.go", Content: []byte(testCode)},
		{Path: "cmd/runner/main.go", Content: []byte(RunnerEntrypoint(reproID))},
	}, "go test ./..."
}
