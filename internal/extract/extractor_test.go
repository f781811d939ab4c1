package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestExtractSinglePythonFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "widget.py", `class Widget:
    def render(self):
        return "ok"

def make_widget():
    return Widget()
`)

	cs, err := NewExtractor().Extract(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "python", cs.Language)
	require.Len(t, cs.Files, 1)

	f := cs.Files[0]
	assert.Equal(t, "widget.py", f.Path)
	assert.Equal(t, ConfidenceHigh, f.Confidence)
	require.Len(t, f.Classes, 1)
	assert.Equal(t, "Widget", f.Classes[0].Name)
	assert.Equal(t, "public", f.Classes[0].Visibility)
	require.Len(t, f.Functions, 1)
	assert.Equal(t, "make_widget", f.Functions[0].Name)
}

func TestExtractEmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	cs, err := NewExtractor().Extract(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "unknown", cs.Language)
	assert.Empty(t, cs.Files)
	assert.Empty(t, cs.EntryPoints)
}

func TestExtractDeterministicOrdering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b/zeta.go", "package b\n\nfunc Zeta() {}\n")
	writeFile(t, dir, "b/alpha.go", "package b\n\nfunc Alpha() {}\n")
	writeFile(t, dir, "a/one.go", "package a\n\nfunc One() {}\n")
	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")

	e := NewExtractor()
	first, err := e.Extract(context.Background(), dir)
	require.NoError(t, err)
	second, err := e.Extract(context.Background(), dir)
	require.NoError(t, err)

	var paths []string
	for _, f := range first.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"a/one.go", "b/alpha.go", "b/zeta.go", "main.go"}, paths)
	assert.Equal(t, first, second)
}

func TestParseFailureFlagsFileAndContinues(t *testing.T) {
	e := NewExtractor()
	fi := FileInfo{Path: "weird.xyz"}
	e.parseGrammar(&fi, "weird.xyz", []byte("not parseable"))
	assert.True(t, fi.ParseFailed)
	assert.Equal(t, ConfidenceLow, fi.Confidence)
	assert.Empty(t, fi.Classes)
	assert.Empty(t, fi.Functions)
}

func TestExtractSecondaryLanguageLowConfidence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n\nfunc A() {}\n")
	writeFile(t, dir, "b.go", "package a\n\nfunc B() {}\n")
	writeFile(t, dir, "script.py", "def helper():\n    pass\n\nclass Tool:\n    pass\n")

	cs, err := NewExtractor().Extract(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "go", cs.Language)

	var py *FileInfo
	for i := range cs.Files {
		if cs.Files[i].Path == "script.py" {
			py = &cs.Files[i]
		}
	}
	require.NotNil(t, py)
	assert.Equal(t, ConfidenceLow, py.Confidence)
	require.Len(t, py.Functions, 1)
	assert.Equal(t, "helper", py.Functions[0].Name)
	require.Len(t, py.Classes, 1)
	assert.Equal(t, "Tool", py.Classes[0].Name)
}

func TestExtractTruncatesOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	big := "package main\n\nfunc main() {}\n"
	for len(big) < 2048 {
		big += "// padding line to grow the file\n"
	}
	writeFile(t, dir, "main.go", big)

	e := NewExtractor()
	e.MaxFileBytes = 1024
	cs, err := e.Extract(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, cs.Files, 1)
	assert.True(t, cs.Files[0].Truncated)
	// The head still parses.
	assert.False(t, cs.Files[0].ParseFailed)
}

func TestExtractEntryPoints(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, dir, "lib.go", "package main\n\nfunc Helper() {}\n")

	cs, err := NewExtractor().Extract(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, cs.EntryPoints, 1)
	assert.Equal(t, "main.go", cs.EntryPoints[0].File)
	assert.Equal(t, "main", cs.EntryPoints[0].Symbol)
}

func TestPublicSymbolsFiltersPrivate(t *testing.T) {
	cs := &CodeStructure{
		Language: "go",
		Files: []FileInfo{
			{
				Path:     "svc.go",
				Language: "go",
				Classes: []ClassInfo{
					{Name: "Service", Visibility: "public", Methods: []FunctionInfo{
						{Name: "Serve", Visibility: "public"},
						{Name: "reload", Visibility: "private"},
					}},
					{Name: "state", Visibility: "private"},
				},
				Functions: []FunctionInfo{
					{Name: "New", Visibility: "public"},
					{Name: "helper", Visibility: "private"},
				},
			},
			{
				Path:     "internal.go",
				Language: "go",
				Functions: []FunctionInfo{
					{Name: "onlyPrivate", Visibility: "private"},
				},
			},
		},
	}

	pub := cs.PublicSymbols()
	require.Len(t, pub, 1)
	require.Len(t, pub[0].Classes, 1)
	assert.Equal(t, "Service", pub[0].Classes[0].Name)
	require.Len(t, pub[0].Classes[0].Methods, 1)
	assert.Equal(t, "Serve", pub[0].Classes[0].Methods[0].Name)
	require.Len(t, pub[0].Functions, 1)
	assert.Equal(t, "New", pub[0].Functions[0].Name)
}

func TestWalkSkipsVendorAndBinary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.go", "package a\n")
	writeFile(t, dir, "vendor/dep.go", "package dep\n")
	writeFile(t, dir, "node_modules/x/index.js", "module.exports = 1\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0x00, 0x01, 0x02}, 0o644))

	res, err := Walk(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.go"}, res.Paths)
	assert.Equal(t, 1, res.BinarySkipped)
}

func TestWalkHonorsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "generated/\n*.tmp\n")
	writeFile(t, dir, "keep.go", "package a\n")
	writeFile(t, dir, "generated/out.go", "package gen\n")
	writeFile(t, dir, "scratch.tmp", "x")

	res, err := Walk(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.go"}, res.Paths)
}
