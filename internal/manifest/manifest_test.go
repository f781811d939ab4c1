package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestAnalyzeSkipsUnparseableManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{not valid json`)
	writeFile(t, dir, "requirements.txt", "requests==2.31.0\n")

	m, err := Analyze(dir)
	require.NoError(t, err, "one broken manifest must not fail the analysis")
	require.Len(t, m.Dependencies, 1)
	assert.Equal(t, "requests", m.Dependencies[0].Name)
}

func TestAnalyzeGoMod(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", `module github.com/example/tool

go 1.26

require (
	github.com/spf13/cobra v1.10.2
	github.com/stretchr/testify v1.11.1 // indirect
)

require golang.org/x/time v0.14.0
`)

	m, err := Analyze(dir)
	require.NoError(t, err)
	assert.Equal(t, "go", m.BuildTool)
	assert.Equal(t, "github.com/example/tool", m.Name)
	require.Len(t, m.Dependencies, 3)
	assert.Equal(t, Dependency{Name: "github.com/spf13/cobra", Version: "1.10.2"}, m.Dependencies[0])
	assert.Equal(t, Dependency{Name: "golang.org/x/time", Version: "0.14.0"}, m.Dependencies[2])
}

func TestAnalyzePackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{
  "name": "webapp",
  "version": "2.1.0",
  "dependencies": {
    "react": "^18.2.0",
    "express": "~4.18.1"
  }
}`)

	m, err := Analyze(dir)
	require.NoError(t, err)
	assert.Equal(t, "npm", m.BuildTool)
	assert.Equal(t, "webapp", m.Name)
	assert.Equal(t, "2.1.0", m.Version)
	require.Len(t, m.Dependencies, 2)
	assert.Equal(t, Dependency{Name: "express", Version: "4.18.1"}, m.Dependencies[0])
	assert.Equal(t, Dependency{Name: "react", Version: "18.2.0"}, m.Dependencies[1])
}

func TestAnalyzePyprojectPoetry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", `[tool.poetry]
name = "docgen"
version = "0.3.0"

[tool.poetry.dependencies]
python = "^3.11"
crewai = "^0.28.0"
psycopg2 = "~2.9"
`)

	m, err := Analyze(dir)
	require.NoError(t, err)
	assert.Equal(t, "poetry", m.BuildTool)
	assert.Equal(t, "docgen", m.Name)
	require.Len(t, m.Dependencies, 2)
	assert.Equal(t, "crewai", m.Dependencies[0].Name)
	assert.Equal(t, "0.28.0", m.Dependencies[0].Version)
	// python itself is not a dependency fact.
	for _, d := range m.Dependencies {
		assert.NotEqual(t, "python", d.Name)
	}
}

func TestAnalyzeCargo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cargo.toml", `[package]
name = "fastcli"
version = "1.4.2"

[dependencies]
serde = { version = "1.0", features = ["derive"] }
clap = "4.5"
`)

	m, err := Analyze(dir)
	require.NoError(t, err)
	assert.Equal(t, "cargo", m.BuildTool)
	assert.Equal(t, "fastcli", m.Name)
	require.Len(t, m.Dependencies, 2)
	assert.Equal(t, Dependency{Name: "clap", Version: "4.5.0"}, m.Dependencies[0])
	assert.Equal(t, Dependency{Name: "serde", Version: "1.0.0"}, m.Dependencies[1])
}

func TestAnalyzeRequirements(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "requirements.txt", `# comment
requests==2.31.0
flask>=2.0
-r dev-requirements.txt

uvicorn
`)

	m, err := Analyze(dir)
	require.NoError(t, err)
	assert.Equal(t, "pip", m.BuildTool)
	require.Len(t, m.Dependencies, 3)
	assert.Equal(t, Dependency{Name: "requests", Version: "2.31.0"}, m.Dependencies[0])
	assert.Equal(t, Dependency{Name: "flask", Version: "2.0.0"}, m.Dependencies[1])
	assert.Equal(t, Dependency{Name: "uvicorn"}, m.Dependencies[2])
}

func TestAnalyzeBuildToolMarkers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pom.xml", `<project></project>`)

	m, err := Analyze(dir)
	require.NoError(t, err)
	assert.Equal(t, "maven", m.BuildTool)
	assert.Empty(t, m.Dependencies)
}

func TestAnalyzeConfigKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "application.yml", `server:
  port: 8080
spring:
  datasource:
    url: jdbc:postgresql://localhost/db
`)

	m, err := Analyze(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"server", "spring"}, m.ConfigKeys)
}

func TestAnalyzeEmptyDir(t *testing.T) {
	m, err := Analyze(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, m.BuildTool)
	assert.Empty(t, m.Dependencies)
}

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"^18.2.0", "18.2.0"},
		{"~4.18.1", "4.18.1"},
		{">=2.0", "2.0.0"},
		{"v1.10.2", "1.10.2"},
		{"1.0", "1.0.0"},
		{"*", "*"},
		{"not-a-version", "not-a-version"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeVersion(tc.in), "NormalizeVersion(%q)", tc.in)
	}
}
