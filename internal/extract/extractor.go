package extract

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/docpipe/docpipe/internal/parser"
)

// DefaultMaxFileBytes bounds how much of a single file is parsed. Larger
// files are truncated first so one generated or minified file cannot stall
// the run.
const DefaultMaxFileBytes = 512 * 1024

// Extractor converts a source tree into a CodeStructure. Deterministic for a
// fixed tree: no randomness, no network.
type Extractor struct {
	parser       *parser.Parser
	MaxFileBytes int64
}

// NewExtractor creates an Extractor with the default file-size bound.
func NewExtractor() *Extractor {
	return &Extractor{
		parser:       parser.NewParser(),
		MaxFileBytes: DefaultMaxFileBytes,
	}
}

// Extract scans root and returns its structure model. Files of the primary
// language are parsed grammar-aware; other recognized languages fall back to
// keyword heuristics tagged low-confidence. A file that fails to parse stays
// in the result with empty structure and ParseFailed set: extraction never
// aborts on a single file.
func (e *Extractor) Extract(ctx context.Context, root string) (*CodeStructure, error) {
	walked, err := Walk(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sizes := make(map[string]int64, len(walked.Paths))
	for _, rel := range walked.Paths {
		info, err := os.Stat(filepath.Join(root, rel))
		if err != nil {
			continue
		}
		sizes[rel] = info.Size()
	}

	primary, perFile := Classify(sizes)

	stats := make(map[string]int)
	for _, lang := range perFile {
		stats[lang]++
	}

	cs := &CodeStructure{
		Language:      primary,
		LanguageStats: stats,
		BinarySkipped: walked.BinarySkipped,
	}

	sources := make(map[string][]byte)
	for _, rel := range walked.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lang, recognized := perFile[rel]
		if !recognized {
			continue
		}

		fi := FileInfo{
			Path:      rel,
			Language:  lang,
			SizeBytes: sizes[rel],
		}

		source, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			log.Printf("extract: WARNING: read %s: %v", rel, err)
			fi.ParseFailed = true
			fi.Confidence = ConfidenceLow
			cs.Files = append(cs.Files, fi)
			continue
		}
		if int64(len(source)) > e.MaxFileBytes {
			source = source[:e.MaxFileBytes]
			fi.Truncated = true
		}
		sources[rel] = source

		if lang == primary && parser.Supports(rel) {
			e.parseGrammar(&fi, rel, source)
		} else {
			fi.Classes, fi.Functions, fi.Imports = heuristicExtract(source, lang)
			fi.Confidence = ConfidenceLow
		}

		cs.Files = append(cs.Files, fi)
	}

	cs.EntryPoints = detectEntryPoints(cs.Files, sources)
	return cs, nil
}

// parseGrammar fills fi from a tree-sitter parse. Failures are recoverable:
// the file keeps its entry with ParseFailed set.
func (e *Extractor) parseGrammar(fi *FileInfo, rel string, source []byte) {
	tree, err := e.parser.Parse(rel, source)
	if err != nil {
		log.Printf("extract: WARNING: parse %s: %v", rel, err)
		fi.ParseFailed = true
		fi.Confidence = ConfidenceLow
		return
	}
	defer tree.Close()

	fi.Confidence = ConfidenceHigh
	for _, c := range tree.Classes() {
		fi.Classes = append(fi.Classes, classFromParser(c))
	}
	for _, fn := range tree.Functions() {
		fi.Functions = append(fi.Functions, funcFromParser(fn))
	}
	fi.Imports = tree.Imports()
}

func classFromParser(c parser.ClassDef) ClassInfo {
	ci := ClassInfo{
		Name:       c.Name,
		Bases:      c.Bases,
		Visibility: string(c.Visibility),
		StartLine:  c.StartLine,
		EndLine:    c.EndLine,
	}
	for _, m := range c.Methods {
		ci.Methods = append(ci.Methods, funcFromParser(m))
	}
	return ci
}

func funcFromParser(f parser.FunctionDef) FunctionInfo {
	fi := FunctionInfo{
		Name:       f.Name,
		ReturnType: f.ReturnType,
		Visibility: string(f.Visibility),
		StartLine:  f.StartLine,
		EndLine:    f.EndLine,
	}
	for _, p := range f.Params {
		fi.Params = append(fi.Params, ParamInfo{Name: p.Name, Type: p.Type})
	}
	return fi
}
