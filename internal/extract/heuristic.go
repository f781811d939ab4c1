package extract

import (
	"regexp"
	"strings"
)

// Keyword patterns for reduced-fidelity extraction of languages the grammar
// parser does not cover. Results carry ConfidenceLow so consumers can
// discount them.
var (
	classRe = regexp.MustCompile(`(?m)^\s*(?:export\s+|public\s+|private\s+|internal\s+|abstract\s+|final\s+|sealed\s+|open\s+|data\s+)*(?:class|struct|interface|trait|module)\s+([A-Za-z_]\w*)`)

	funcRes = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`),
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$]\w*)\s*\(`),
		regexp.MustCompile(`(?m)^\s*(?:pub\s+)?fn\s+([A-Za-z_]\w*)\s*[(<]`),
		regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s+)?([A-Za-z_]\w*)\s*\(`),
	}

	importRes = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*import\s+([\w./-]+)`),
		regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import\b`),
		regexp.MustCompile(`(?m)^\s*#include\s*[<"]([^>"]+)[>"]`),
		regexp.MustCompile(`(?m)^\s*use\s+([\w:]+)`),
		regexp.MustCompile(`(?m)^\s*require(?:_relative)?\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`(?m)^\s*using\s+([\w.]+)\s*;`),
	}
)

// heuristicExtract populates classes, functions, and imports from keyword
// matching. Best-effort: no nesting, no parameters, visibility from naming
// conventions only.
func heuristicExtract(source []byte, lang string) ([]ClassInfo, []FunctionInfo, []string) {
	text := string(source)

	var classes []ClassInfo
	seenClass := map[string]bool{}
	for _, m := range classRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if seenClass[name] {
			continue
		}
		seenClass[name] = true
		classes = append(classes, ClassInfo{
			Name:       name,
			Visibility: heuristicVisibility(name, lang),
		})
	}

	var funcs []FunctionInfo
	seenFunc := map[string]bool{}
	for _, re := range funcRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := m[1]
			if seenFunc[name] {
				continue
			}
			seenFunc[name] = true
			funcs = append(funcs, FunctionInfo{
				Name:       name,
				Visibility: heuristicVisibility(name, lang),
			})
		}
	}

	var imports []string
	seenImp := map[string]bool{}
	for _, re := range importRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			imp := strings.TrimSpace(m[1])
			if imp == "" || seenImp[imp] {
				continue
			}
			seenImp[imp] = true
			imports = append(imports, imp)
		}
	}

	return classes, funcs, imports
}

// heuristicVisibility applies naming conventions: leading underscore is
// private in Python-style code, lowercase initial is private for Go.
// Everything else defaults to public.
func heuristicVisibility(name, lang string) string {
	switch lang {
	case "python":
		if strings.HasPrefix(name, "_") {
			return "private"
		}
	case "go":
		if name != "" && name[0] >= 'a' && name[0] <= 'z' {
			return "private"
		}
	}
	return "public"
}
