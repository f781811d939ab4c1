// Package extract turns a source tree into a canonical, language-agnostic
// structure model: files are enumerated deterministically, a primary language
// is elected, and files are parsed into classes, functions, and imports.
// Grammar-aware parsing covers the primary language; secondary languages get
// heuristic extraction tagged with low confidence.
package extract

// Confidence tags how trustworthy a file's extracted structure is.
// Grammar-aware parses are high; keyword heuristics are low.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// ParamInfo is one parameter of an extracted function.
type ParamInfo struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// FunctionInfo is a free function or method extracted from a source file.
// ReturnType is a source-text hint, never a validated type.
type FunctionInfo struct {
	Name       string      `json:"name"`
	Params     []ParamInfo `json:"params,omitempty"`
	ReturnType string      `json:"returnType,omitempty"`
	Visibility string      `json:"visibility"`
	StartLine  int         `json:"startLine,omitempty"`
	EndLine    int         `json:"endLine,omitempty"`
}

// ClassInfo is a class, struct, or interface extracted from a source file.
type ClassInfo struct {
	Name       string         `json:"name"`
	Bases      []string       `json:"bases,omitempty"`
	Methods    []FunctionInfo `json:"methods,omitempty"`
	Visibility string         `json:"visibility"`
	StartLine  int            `json:"startLine,omitempty"`
	EndLine    int            `json:"endLine,omitempty"`
}

// FileInfo is one scanned source file. Created once during a scan pass and
// immutable afterward.
type FileInfo struct {
	Path        string         `json:"path"`
	Language    string         `json:"language"`
	SizeBytes   int64          `json:"sizeBytes"`
	Classes     []ClassInfo    `json:"classes,omitempty"`
	Functions   []FunctionInfo `json:"functions,omitempty"`
	Imports     []string       `json:"imports,omitempty"`
	Confidence  string         `json:"confidence"`
	ParseFailed bool           `json:"parseFailed,omitempty"`
	Truncated   bool           `json:"truncated,omitempty"`
}

// EntryPoint marks a file/symbol pair that looks like a process entry point.
type EntryPoint struct {
	File   string `json:"file"`
	Symbol string `json:"symbol"`
}

// CodeStructure is the root artifact of a scan: every scanned file in
// deterministic walk order plus derived facts about the tree.
type CodeStructure struct {
	Language      string         `json:"language"`
	Files         []FileInfo     `json:"files"`
	EntryPoints   []EntryPoint   `json:"entryPoints,omitempty"`
	LanguageStats map[string]int `json:"languageStats,omitempty"`
	BinarySkipped int            `json:"binarySkipped,omitempty"`
}

// PublicSymbols returns only exported classes and functions across all files,
// suitable for an API-reference facts projection. Private symbols never leave
// this boundary.
func (cs *CodeStructure) PublicSymbols() []FileInfo {
	var out []FileInfo
	for _, f := range cs.Files {
		pub := FileInfo{
			Path:       f.Path,
			Language:   f.Language,
			Confidence: f.Confidence,
		}
		for _, c := range f.Classes {
			if c.Visibility != "public" {
				continue
			}
			kept := c
			kept.Methods = nil
			for _, m := range c.Methods {
				if m.Visibility == "public" {
					kept.Methods = append(kept.Methods, m)
				}
			}
			pub.Classes = append(pub.Classes, kept)
		}
		for _, fn := range f.Functions {
			if fn.Visibility == "public" {
				pub.Functions = append(pub.Functions, fn)
			}
		}
		if len(pub.Classes) > 0 || len(pub.Functions) > 0 {
			out = append(out, pub)
		}
	}
	return out
}
