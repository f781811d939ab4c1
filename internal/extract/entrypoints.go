package extract

import (
	"path/filepath"
	"strings"
)

// entryFileNames are base names (without extension) that commonly hold a
// program's entry point.
var entryFileNames = map[string]bool{
	"main":      true,
	"app":       true,
	"index":     true,
	"server":    true,
	"cli":       true,
	"bootstrap": true,
	"__main__":  true,
}

// detectEntryPoints flags files/symbols that look like process entry points:
// conventional file names plus language entry markers found in the source.
func detectEntryPoints(files []FileInfo, sources map[string][]byte) []EntryPoint {
	var eps []EntryPoint
	for _, f := range files {
		symbol := entrySymbol(f, sources[f.Path])
		if symbol == "" {
			continue
		}
		eps = append(eps, EntryPoint{File: f.Path, Symbol: symbol})
	}
	return eps
}

func entrySymbol(f FileInfo, source []byte) string {
	base := strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
	namedLikeEntry := entryFileNames[strings.ToLower(base)]

	// A declared main-like function wins over filename conventions.
	for _, fn := range f.Functions {
		switch fn.Name {
		case "main", "Main":
			return fn.Name
		}
	}
	for _, c := range f.Classes {
		for _, m := range c.Methods {
			if m.Name == "main" || m.Name == "Main" {
				return c.Name + "." + m.Name
			}
		}
	}

	if source != nil {
		text := string(source)
		switch {
		case f.Language == "python" && strings.Contains(text, "__main__"):
			return "__main__"
		case f.Language == "go" && strings.Contains(text, "func main"):
			return "main"
		case f.Language == "java" && strings.Contains(text, "public static void main"):
			return "main"
		}
	}

	if namedLikeEntry {
		return base
	}
	return ""
}
