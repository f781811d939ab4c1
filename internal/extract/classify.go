package extract

import (
	"path/filepath"
	"sort"
)

// langExtensions maps file extensions to language names.
var langExtensions = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".rs":    "rust",
	".rb":    "ruby",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".kt":    "kotlin",
	".swift": "swift",
}

// LanguageFor returns the language for a filename, or "" if unrecognized.
func LanguageFor(path string) string {
	return langExtensions[filepath.Ext(path)]
}

// Classify elects the primary language for a set of files and returns a
// per-file language map. The primary language is the one with the most files;
// ties break by total byte size, then alphabetically by language name. Zero
// recognized files yields "unknown" and an empty map, which downstream
// consumers treat as heuristic-only mode.
func Classify(files map[string]int64) (string, map[string]string) {
	perFile := make(map[string]string)
	counts := make(map[string]int)
	sizes := make(map[string]int64)

	for path, size := range files {
		lang := LanguageFor(path)
		if lang == "" {
			continue
		}
		perFile[path] = lang
		counts[lang]++
		sizes[lang] += size
	}

	if len(counts) == 0 {
		return "unknown", map[string]string{}
	}

	langs := make([]string, 0, len(counts))
	for lang := range counts {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		a, b := langs[i], langs[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		if sizes[a] != sizes[b] {
			return sizes[a] > sizes[b]
		}
		return a < b
	})

	return langs[0], perFile
}
