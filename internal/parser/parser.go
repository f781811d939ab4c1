// Package parser provides tree-sitter-based multi-language structural parsing
// with automatic language detection from file extensions. It extracts class
// and function declarations, parameter lists, visibility, return-type hints,
// and import statements from parsed syntax trees.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Visibility classifies a symbol's access level, best-effort per language.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// Param is a single parameter of a function or method. Type is a best-effort
// source-text hint, never a validated type.
type Param struct {
	Name string
	Type string
}

// FunctionDef represents a function or method definition found in source code.
type FunctionDef struct {
	Name       string
	Params     []Param
	ReturnType string
	Visibility Visibility
	StartLine  int
	EndLine    int
}

// ClassDef represents a class, struct, or interface declaration.
type ClassDef struct {
	Name       string
	Bases      []string
	Methods    []FunctionDef
	Visibility Visibility
	StartLine  int
	EndLine    int
}

// langInfo holds tree-sitter language metadata including which node types
// represent functions, classes, and imports for a given programming language.
type langInfo struct {
	lang           *sitter.Language
	name           string
	funcNodeTypes  []string
	classNodeTypes []string
	importNodeType []string
}

// registry maps file extensions to language info for auto-detection.
var registry = map[string]langInfo{
	".go": {
		lang:           golang.GetLanguage(),
		name:           "go",
		funcNodeTypes:  []string{"function_declaration", "method_declaration"},
		classNodeTypes: []string{"type_spec"},
		importNodeType: []string{"import_declaration"},
	},
	".py": {
		lang:           python.GetLanguage(),
		name:           "python",
		funcNodeTypes:  []string{"function_definition"},
		classNodeTypes: []string{"class_definition"},
		importNodeType: []string{"import_statement", "import_from_statement"},
	},
	".js": {
		lang:           javascript.GetLanguage(),
		name:           "javascript",
		funcNodeTypes:  []string{"function_declaration"},
		classNodeTypes: []string{"class_declaration"},
		importNodeType: []string{"import_statement"},
	},
	".ts": {
		lang:           typescript.GetLanguage(),
		name:           "typescript",
		funcNodeTypes:  []string{"function_declaration"},
		classNodeTypes: []string{"class_declaration", "interface_declaration"},
		importNodeType: []string{"import_statement"},
	},
	".java": {
		lang:           java.GetLanguage(),
		name:           "java",
		funcNodeTypes:  []string{"method_declaration", "constructor_declaration"},
		classNodeTypes: []string{"class_declaration", "interface_declaration", "enum_declaration"},
		importNodeType: []string{"import_declaration"},
	},
	".rs": {
		lang:           rust.GetLanguage(),
		name:           "rust",
		funcNodeTypes:  []string{"function_item"},
		classNodeTypes: []string{"struct_item", "enum_item", "trait_item"},
		importNodeType: []string{"use_declaration"},
	},
	".rb": {
		lang:           ruby.GetLanguage(),
		name:           "ruby",
		funcNodeTypes:  []string{"method"},
		classNodeTypes: []string{"class", "module"},
		importNodeType: []string{"call"}, // require / require_relative
	},
	".c": {
		lang:           c.GetLanguage(),
		name:           "c",
		funcNodeTypes:  []string{"function_definition"},
		classNodeTypes: []string{"struct_specifier"},
		importNodeType: []string{"preproc_include"},
	},
	".h": {
		lang:           c.GetLanguage(),
		name:           "c",
		funcNodeTypes:  []string{"function_definition"},
		classNodeTypes: []string{"struct_specifier"},
		importNodeType: []string{"preproc_include"},
	},
	".cc": {
		lang:           cpp.GetLanguage(),
		name:           "cpp",
		funcNodeTypes:  []string{"function_definition"},
		classNodeTypes: []string{"class_specifier", "struct_specifier"},
		importNodeType: []string{"preproc_include"},
	},
	".cpp": {
		lang:           cpp.GetLanguage(),
		name:           "cpp",
		funcNodeTypes:  []string{"function_definition"},
		classNodeTypes: []string{"class_specifier", "struct_specifier"},
		importNodeType: []string{"preproc_include"},
	},
}

// Supports reports whether the given filename's extension has a registered
// tree-sitter grammar.
func Supports(filename string) bool {
	_, ok := registry[filepath.Ext(filename)]
	return ok
}

// Parser wraps tree-sitter to parse source files with automatic language detection.
type Parser struct {
	inner *sitter.Parser
}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{
		inner: sitter.NewParser(),
	}
}

// Parse parses source code from the given filename, auto-detecting the language
// from the file extension. Returns an error for unsupported extensions.
func (p *Parser) Parse(filename string, source []byte) (*Tree, error) {
	ext := filepath.Ext(filename)
	info, ok := registry[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension %q: language not in registry", ext)
	}

	p.inner.SetLanguage(info.lang)
	sitterTree, err := p.inner.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	return &Tree{
		tree:   sitterTree,
		source: source,
		info:   info,
	}, nil
}

// Tree wraps a parsed tree-sitter syntax tree with convenience methods
// for extracting classes, functions, and imports.
type Tree struct {
	tree   *sitter.Tree
	source []byte
	info   langInfo
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	t.tree.Close()
}

// RootNode returns the root node of the parsed syntax tree.
func (t *Tree) RootNode() *sitter.Node {
	return t.tree.RootNode()
}

// Language returns the detected language name for this tree.
func (t *Tree) Language() string {
	return t.info.name
}

// HasErrors reports whether the syntax tree contains parse error nodes.
func (t *Tree) HasErrors() bool {
	return t.RootNode().HasError()
}

// Classes extracts all class/struct/interface declarations from the syntax
// tree, with their methods nested.
func (t *Tree) Classes() []ClassDef {
	classTypes := typeSet(t.info.classNodeTypes)
	funcTypes := typeSet(t.info.funcNodeTypes)

	var classes []ClassDef
	walk(t.RootNode(), func(node *sitter.Node) bool {
		if !classTypes[node.Type()] {
			return true
		}
		name := extractName(node, t.source)
		if name == "" {
			return true
		}
		cd := ClassDef{
			Name:       name,
			Bases:      extractBases(node, t.source),
			Visibility: t.symbolVisibility(node, name),
			StartLine:  int(node.StartPoint().Row) + 1,
			EndLine:    int(node.EndPoint().Row) + 1,
		}
		// Collect methods nested under this class node. Nested classes keep
		// their own methods.
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i), func(inner *sitter.Node) bool {
				if classTypes[inner.Type()] {
					return false
				}
				if funcTypes[inner.Type()] {
					if fd, ok := t.function(inner); ok {
						cd.Methods = append(cd.Methods, fd)
					}
					return false
				}
				return true
			})
		}
		classes = append(classes, cd)
		return false
	})

	return classes
}

// Functions extracts top-level function definitions from the syntax tree.
// Methods nested under a class are excluded; Go methods with a receiver are
// kept because Go declares them at top level.
func (t *Tree) Functions() []FunctionDef {
	classTypes := typeSet(t.info.classNodeTypes)
	funcTypes := typeSet(t.info.funcNodeTypes)

	var funcs []FunctionDef
	walk(t.RootNode(), func(node *sitter.Node) bool {
		if t.info.name != "go" && classTypes[node.Type()] {
			return false
		}
		if !funcTypes[node.Type()] {
			return true
		}
		if fd, ok := t.function(node); ok {
			funcs = append(funcs, fd)
		}
		return false
	})

	return funcs
}

func (t *Tree) function(node *sitter.Node) (FunctionDef, bool) {
	name := extractName(node, t.source)
	if name == "" {
		name = extractCFuncName(node, t.source)
	}
	if name == "" {
		return FunctionDef{}, false
	}
	return FunctionDef{
		Name:       name,
		Params:     t.params(node),
		ReturnType: t.returnType(node),
		Visibility: t.symbolVisibility(node, name),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
	}, true
}

// params extracts the parameter list from a function/method node.
func (t *Tree) params(node *sitter.Node) []Param {
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		if d := node.ChildByFieldName("declarator"); d != nil {
			paramsNode = d.ChildByFieldName("parameters")
		}
	}
	if paramsNode == nil {
		return nil
	}

	var params []Param
	for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
		child := paramsNode.NamedChild(i)
		switch child.Type() {
		case "identifier":
			// Python/JS/Ruby bare name
			params = append(params, Param{Name: child.Content(t.source)})
		case "typed_parameter", "default_parameter", "typed_default_parameter",
			"optional_parameter", "required_parameter":
			p := Param{}
			if n := child.ChildByFieldName("name"); n != nil {
				p.Name = n.Content(t.source)
			} else if child.NamedChildCount() > 0 {
				p.Name = child.NamedChild(0).Content(t.source)
			}
			if ty := child.ChildByFieldName("type"); ty != nil {
				p.Type = ty.Content(t.source)
			}
			if p.Name != "" {
				params = append(params, p)
			}
		case "parameter_declaration", "parameter", "formal_parameter":
			// Go/Java/C/C++/Rust name + type fields
			p := Param{}
			if n := child.ChildByFieldName("name"); n != nil {
				p.Name = n.Content(t.source)
			} else if d := child.ChildByFieldName("declarator"); d != nil {
				p.Name = d.Content(t.source)
			} else if pat := child.ChildByFieldName("pattern"); pat != nil {
				p.Name = pat.Content(t.source)
			}
			if ty := child.ChildByFieldName("type"); ty != nil {
				p.Type = ty.Content(t.source)
			}
			if p.Name == "" && p.Type != "" {
				// Go allows unnamed parameters in signatures.
				params = append(params, Param{Type: p.Type})
			} else if p.Name != "" {
				params = append(params, p)
			}
		}
	}
	return params
}

// returnType extracts a best-effort return-type hint as source text.
func (t *Tree) returnType(node *sitter.Node) string {
	for _, field := range []string{"return_type", "result", "type"} {
		if rt := node.ChildByFieldName(field); rt != nil {
			return strings.TrimSpace(strings.TrimPrefix(rt.Content(t.source), "->"))
		}
	}
	return ""
}

// symbolVisibility derives visibility from language conventions or modifier
// keywords. Defaults to public when nothing says otherwise.
func (t *Tree) symbolVisibility(node *sitter.Node, name string) Visibility {
	switch t.info.name {
	case "go":
		if name != "" && !unicode.IsUpper([]rune(name)[0]) {
			return VisibilityPrivate
		}
		return VisibilityPublic
	case "python":
		if strings.HasPrefix(name, "_") && !strings.HasSuffix(name, "__") {
			return VisibilityPrivate
		}
		if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
			return VisibilityPublic // dunder
		}
		if strings.HasPrefix(name, "_") {
			return VisibilityPrivate
		}
		return VisibilityPublic
	case "rust":
		for i := 0; i < int(node.ChildCount()); i++ {
			if node.Child(i).Type() == "visibility_modifier" {
				return VisibilityPublic
			}
		}
		return VisibilityPrivate
	case "java", "cpp", "typescript":
		if mods := modifierText(node, t.source); mods != "" {
			switch {
			case strings.Contains(mods, "private"):
				return VisibilityPrivate
			case strings.Contains(mods, "protected"):
				return VisibilityProtected
			}
		}
		return VisibilityPublic
	default:
		return VisibilityPublic
	}
}

// modifierText returns the source text of a "modifiers" child node, if any.
func modifierText(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "modifiers" || child.Type() == "accessibility_modifier" {
			return child.Content(source)
		}
	}
	return ""
}

// extractBases returns superclass/base names from a class node, best-effort.
func extractBases(node *sitter.Node, source []byte) []string {
	var bases []string
	for _, field := range []string{"superclasses", "superclass", "interfaces"} {
		b := node.ChildByFieldName(field)
		if b == nil {
			continue
		}
		walk(b, func(n *sitter.Node) bool {
			switch n.Type() {
			case "identifier", "type_identifier", "constant", "scoped_identifier", "attribute":
				bases = append(bases, n.Content(source))
				return false
			}
			return true
		})
	}
	return bases
}

// Imports extracts import paths/module names from the syntax tree.
func (t *Tree) Imports() []string {
	importTypes := typeSet(t.info.importNodeType)

	var imports []string
	walk(t.RootNode(), func(node *sitter.Node) bool {
		if !importTypes[node.Type()] {
			return true
		}
		imports = append(imports, extractImportPaths(node.Content(t.source), node, t.source)...)
		return false
	})

	return imports
}

func typeSet(types []string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, ty := range types {
		m[ty] = true
	}
	return m
}

// walk performs a depth-first traversal of the syntax tree. fn returns false
// to stop descending into the current node's children.
func walk(node *sitter.Node, fn func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil {
			walk(child, fn)
		}
	}
}

// extractName finds the name identifier of a declaration node via its "name"
// field, which works for Go, Python, JS, TS, Java, Rust, and Ruby.
func extractName(node *sitter.Node, source []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode != nil {
		return nameNode.Content(source)
	}
	return ""
}

// extractCFuncName handles C/C++ function_definition nodes, whose name lives
// under declarator -> declarator -> identifier.
func extractCFuncName(node *sitter.Node, source []byte) string {
	declNode := node.ChildByFieldName("declarator")
	if declNode != nil {
		innerName := declNode.ChildByFieldName("declarator")
		if innerName != nil {
			return innerName.Content(source)
		}
	}
	return ""
}

// extractImportPaths parses import statement text to extract clean module/package paths.
func extractImportPaths(text string, node *sitter.Node, source []byte) []string {
	switch node.Type() {
	case "import_declaration":
		// Go: import "fmt" or import ( "fmt"\n"os" )
		// Java: import java.util.List;
		return extractImportDeclaration(node, source)
	case "import_statement":
		// Python: import os, sys
		// JS/TS: import { foo } from 'bar'
		return extractGenericImport(text)
	case "import_from_statement":
		// Python: from pathlib import Path
		return extractPythonFromImport(text)
	case "use_declaration":
		// Rust: use std::io;
		return extractRustUse(text)
	case "preproc_include":
		// C/C++: #include <stdio.h> or #include "myheader.h"
		return extractCInclude(text)
	case "call":
		// Ruby: require 'foo' or require_relative 'bar'
		return extractRubyRequire(text)
	default:
		return []string{extractImportPath(text)}
	}
}

// extractImportDeclaration handles import declarations for Go and Java.
func extractImportDeclaration(node *sitter.Node, source []byte) []string {
	var paths []string
	seen := make(map[string]bool)

	walk(node, func(n *sitter.Node) bool {
		var content string
		switch n.Type() {
		case "import_spec":
			content = extractImportPath(n.Content(source))
		case "interpreted_string_literal":
			content = extractImportPath(n.Content(source))
		case "scoped_identifier":
			// Java: java.util.List — only take the top-level scoped_identifier.
			if n.Parent() != nil && n.Parent().Type() == "scoped_identifier" {
				return true
			}
			content = n.Content(source)
		default:
			return true
		}
		if content != "" && !seen[content] {
			seen[content] = true
			paths = append(paths, content)
		}
		return true
	})
	return paths
}

// extractGenericImport handles Python "import x, y" and JS/TS "import ... from 'x'" statements.
func extractGenericImport(text string) []string {
	if strings.Contains(text, " from ") {
		parts := strings.SplitN(text, " from ", 2)
		if len(parts) == 2 {
			return []string{extractImportPath(parts[1])}
		}
	}

	text = strings.TrimPrefix(text, "import ")
	text = strings.TrimSpace(text)
	parts := strings.Split(text, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if idx := strings.Index(p, " as "); idx >= 0 {
			p = p[:idx]
		}
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// extractPythonFromImport handles Python "from x import y" statements.
func extractPythonFromImport(text string) []string {
	text = strings.TrimPrefix(text, "from ")
	parts := strings.SplitN(text, " import ", 2)
	if len(parts) >= 1 {
		module := strings.TrimSpace(parts[0])
		if module != "" {
			return []string{module}
		}
	}
	return nil
}

// extractRustUse handles Rust "use std::io;" statements.
func extractRustUse(text string) []string {
	text = strings.TrimPrefix(text, "use ")
	text = strings.TrimSuffix(text, ";")
	text = strings.TrimSpace(text)
	if text != "" {
		return []string{text}
	}
	return nil
}

// extractCInclude handles C/C++ #include directives.
func extractCInclude(text string) []string {
	text = strings.TrimPrefix(text, "#include")
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "<>\"")
	text = strings.TrimSpace(text)
	if text != "" {
		return []string{text}
	}
	return nil
}

// extractRubyRequire handles Ruby require and require_relative calls.
func extractRubyRequire(text string) []string {
	if !strings.HasPrefix(text, "require") {
		return nil
	}
	for _, prefix := range []string{"require_relative ", "require "} {
		if strings.HasPrefix(text, prefix) {
			rest := strings.TrimPrefix(text, prefix)
			cleaned := extractImportPath(rest)
			if cleaned != "" {
				return []string{cleaned}
			}
		}
	}
	return nil
}

// extractImportPath cleans an import path string by removing quotes, semicolons,
// and other surrounding syntax.
func extractImportPath(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "\"'`();")
	text = strings.TrimSpace(text)
	return text
}
