// Package depgraph derives an import graph from an extracted code structure.
// Raw import strings resolve to intra-repo modules when they match a module
// or file naming convention; everything else is marked external. The ranked
// core-module list feeds the architecture narrative as a fact.
package depgraph

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/docpipe/docpipe/internal/extract"
)

// Edge kinds.
const (
	KindImports  = "imports"
	KindExternal = "external"
)

// Edge is one directed dependency between modules. Kind is KindImports for
// intra-repo targets and KindExternal for third-party ones.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// Graph holds the deduplicated edge set and the core-module ranking.
type Graph struct {
	Edges       []Edge   `json:"edges"`
	CoreModules []string `json:"coreModules,omitempty"`
}

// Build resolves every file's imports against the repo's own modules.
// Self-edges are dropped and duplicate edges collapsed. CoreModules ranks
// intra-repo modules by in-degree descending, ties broken by name.
func Build(cs *extract.CodeStructure) *Graph {
	modules := make(map[string]bool)
	stems := make(map[string]string) // file stem -> module
	for _, f := range cs.Files {
		mod := ModuleOf(f.Path)
		modules[mod] = true
		stem := strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
		stems[stem] = mod
	}

	seen := make(map[Edge]bool)
	var edges []Edge
	inDegree := make(map[string]int)

	for _, f := range cs.Files {
		from := ModuleOf(f.Path)
		for _, imp := range f.Imports {
			to, kind := resolve(imp, modules, stems)
			if kind == KindImports && to == from {
				continue
			}
			e := Edge{From: from, To: to, Kind: kind}
			if seen[e] {
				continue
			}
			seen[e] = true
			edges = append(edges, e)
			if kind == KindImports {
				inDegree[to]++
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})

	core := make([]string, 0, len(inDegree))
	for mod := range inDegree {
		core = append(core, mod)
	}
	sort.Slice(core, func(i, j int) bool {
		if inDegree[core[i]] != inDegree[core[j]] {
			return inDegree[core[i]] > inDegree[core[j]]
		}
		return core[i] < core[j]
	})

	return &Graph{Edges: edges, CoreModules: core}
}

// ModuleOf groups a file into a module by its directory. Root files belong
// to the "root" module.
func ModuleOf(path string) string {
	dir := filepath.Dir(path)
	if dir == "." {
		return "root"
	}
	return filepath.ToSlash(dir)
}

// resolve maps a raw import string to an intra-repo module or marks it
// external. Matching is convention based: the import's normalized path or
// its last segment has to line up with a known module or file stem.
func resolve(imp string, modules map[string]bool, stems map[string]string) (string, string) {
	norm := normalize(imp)

	if modules[norm] {
		return norm, KindImports
	}
	// Leading-package match: "beta.lib" belongs to module "beta".
	if idx := strings.Index(norm, "/"); idx > 0 {
		if head := norm[:idx]; modules[head] {
			return head, KindImports
		}
	}
	// Suffix match: "github.com/org/repo/internal/store" hits "internal/store".
	for mod := range modules {
		if mod != "root" && (strings.HasSuffix(norm, "/"+mod) || norm == mod) {
			return mod, KindImports
		}
	}
	// Module/file stem match: "utils" hits utils.py's module.
	last := norm
	if idx := strings.LastIndex(norm, "/"); idx >= 0 {
		last = norm[idx+1:]
	}
	if mod, ok := stems[last]; ok {
		return mod, KindImports
	}

	return imp, KindExternal
}

// normalize converts language-specific import syntax to a slash path:
// Python dots, Rust double-colons, and relative prefixes.
func normalize(imp string) string {
	imp = strings.TrimSpace(imp)
	imp = strings.TrimPrefix(imp, "./")
	imp = strings.ReplaceAll(imp, "::", "/")
	if !strings.Contains(imp, "/") {
		imp = strings.ReplaceAll(imp, ".", "/")
	}
	return imp
}
