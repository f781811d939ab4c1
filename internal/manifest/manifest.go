// Package manifest reads a project's build and configuration files to derive
// build-tool and dependency facts for the getting-started narrative. It
// understands go.mod, package.json, pyproject.toml, Cargo.toml,
// requirements.txt, Maven/Gradle markers, and application YAML files.
package manifest

import (
	"bufio"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Dependency is one declared dependency with its normalized version.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Manifest aggregates what the build files say about the project.
type Manifest struct {
	BuildTool    string       `json:"buildTool,omitempty"`
	Name         string       `json:"name,omitempty"`
	Version      string       `json:"version,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
	// ConfigKeys lists top-level keys found in application config files,
	// a hint about runtime surface (server ports, datasources, brokers).
	ConfigKeys []string `json:"configKeys,omitempty"`
}

// Analyze reads the recognized build files under root. Missing files are
// fine; an unparseable file is skipped rather than failing the run.
func Analyze(root string) (*Manifest, error) {
	m := &Manifest{}

	parsers := []struct {
		file  string
		parse func(*Manifest, string) error
	}{
		{"go.mod", parseGoMod},
		{"package.json", parsePackageJSON},
		{"pyproject.toml", parsePyproject},
		{"Cargo.toml", parseCargo},
		{"requirements.txt", parseRequirements},
	}
	for _, p := range parsers {
		path := filepath.Join(root, p.file)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := p.parse(m, path); err != nil {
			log.Printf("manifest: WARNING: parse %s: %v", p.file, err)
			continue
		}
	}

	// Build-tool markers parsed for detection only.
	if m.BuildTool == "" {
		switch {
		case exists(root, "pom.xml"):
			m.BuildTool = "maven"
		case exists(root, "build.gradle"), exists(root, "build.gradle.kts"):
			m.BuildTool = "gradle"
		case exists(root, "Makefile"):
			m.BuildTool = "make"
		}
	}

	m.ConfigKeys = collectConfigKeys(root)
	return m, nil
}

func exists(root, name string) bool {
	_, err := os.Stat(filepath.Join(root, name))
	return err == nil
}

// NormalizeVersion strips range operators and coerces the remainder into
// semver form. Unrecognizable versions come back unchanged so nothing is
// silently dropped.
func NormalizeVersion(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimLeft(trimmed, "^~><=v ")
	if trimmed == "" || trimmed == "*" {
		return raw
	}
	v, err := semver.NewVersion(trimmed)
	if err != nil {
		return raw
	}
	return v.String()
}

func parseGoMod(m *Manifest, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	m.BuildTool = "go"
	inRequire := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "module "):
			m.Name = strings.TrimSpace(strings.TrimPrefix(line, "module "))
		case line == "require (":
			inRequire = true
		case inRequire && line == ")":
			inRequire = false
		case inRequire || strings.HasPrefix(line, "require "):
			entry := strings.TrimPrefix(line, "require ")
			fields := strings.Fields(entry)
			if len(fields) >= 2 && !strings.HasPrefix(fields[0], "//") {
				m.Dependencies = append(m.Dependencies, Dependency{
					Name:    fields[0],
					Version: NormalizeVersion(fields[1]),
				})
			}
		}
	}
	return scanner.Err()
}

func parsePackageJSON(m *Manifest, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var pkg struct {
		Name         string            `json:"name"`
		Version      string            `json:"version"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return err
	}

	m.BuildTool = "npm"
	if m.Name == "" {
		m.Name = pkg.Name
	}
	m.Version = pkg.Version
	for _, name := range sortedKeys(pkg.Dependencies) {
		m.Dependencies = append(m.Dependencies, Dependency{
			Name:    name,
			Version: NormalizeVersion(pkg.Dependencies[name]),
		})
	}
	return nil
}

func parsePyproject(m *Manifest, path string) error {
	var doc struct {
		Project struct {
			Name         string   `toml:"name"`
			Version      string   `toml:"version"`
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name         string            `toml:"name"`
				Version      string            `toml:"version"`
				Dependencies map[string]string `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return err
	}

	if len(doc.Tool.Poetry.Dependencies) > 0 {
		m.BuildTool = "poetry"
		m.Name = doc.Tool.Poetry.Name
		m.Version = doc.Tool.Poetry.Version
		for _, name := range sortedKeys(doc.Tool.Poetry.Dependencies) {
			if name == "python" {
				continue
			}
			m.Dependencies = append(m.Dependencies, Dependency{
				Name:    name,
				Version: NormalizeVersion(doc.Tool.Poetry.Dependencies[name]),
			})
		}
		return nil
	}

	m.BuildTool = "pip"
	m.Name = doc.Project.Name
	m.Version = doc.Project.Version
	for _, dep := range doc.Project.Dependencies {
		m.Dependencies = append(m.Dependencies, splitRequirement(dep))
	}
	return nil
}

func parseCargo(m *Manifest, path string) error {
	var doc struct {
		Package struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"package"`
		Dependencies map[string]any `toml:"dependencies"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return err
	}

	m.BuildTool = "cargo"
	m.Name = doc.Package.Name
	m.Version = doc.Package.Version
	for _, name := range sortedKeys(doc.Dependencies) {
		dep := Dependency{Name: name}
		switch v := doc.Dependencies[name].(type) {
		case string:
			dep.Version = NormalizeVersion(v)
		case map[string]any:
			if ver, ok := v["version"].(string); ok {
				dep.Version = NormalizeVersion(ver)
			}
		}
		m.Dependencies = append(m.Dependencies, dep)
	}
	return nil
}

func parseRequirements(m *Manifest, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if m.BuildTool == "" {
		m.BuildTool = "pip"
	}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		m.Dependencies = append(m.Dependencies, splitRequirement(line))
	}
	return scanner.Err()
}

// splitRequirement splits a pip-style requirement "name>=1.2" into name and
// normalized version.
func splitRequirement(req string) Dependency {
	for _, op := range []string{"==", ">=", "<=", "~=", ">", "<"} {
		if idx := strings.Index(req, op); idx >= 0 {
			return Dependency{
				Name:    strings.TrimSpace(req[:idx]),
				Version: NormalizeVersion(req[idx+len(op):]),
			}
		}
	}
	return Dependency{Name: strings.TrimSpace(req)}
}

// configFiles are application config files whose top-level keys hint at the
// runtime surface.
var configFiles = []string{
	"application.yml", "application.yaml",
	"docker-compose.yml", "docker-compose.yaml",
	"config.yml", "config.yaml",
}

func collectConfigKeys(root string) []string {
	seen := map[string]bool{}
	var keys []string
	for _, name := range configFiles {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			continue
		}
		for key := range doc {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
