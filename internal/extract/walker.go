package extract

import (
	"bytes"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// skipDirs contains directory names that are never worth scanning.
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	".git":         true,
	".hg":          true,
	".svn":         true,
	"build":        true,
	"dist":         true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	".idea":        true,
	".vscode":      true,
}

// binarySniffBytes is how much of a file's head is checked for NUL bytes.
const binarySniffBytes = 8 * 1024

// WalkResult lists the files found under a root plus how many binaries
// were skipped.
type WalkResult struct {
	// Paths are root-relative, slash-separated, in deterministic order:
	// lexical within each directory, directories walked depth-first.
	Paths         []string
	BinarySkipped int
}

// Walk enumerates regular files under root in deterministic order. Directory
// entries are visited lexically, so repeated walks of an unchanged tree yield
// identical path sequences. VCS and dependency directories are skipped, a
// root .gitignore is honored, and binary files are counted but excluded.
func Walk(root string) (*WalkResult, error) {
	ignorer := loadGitignore(root)

	result := &WalkResult{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("extract walker: skipping path %q: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if strings.HasPrefix(filepath.Base(rel), ".") {
			return nil
		}
		if ignorer != nil && ignorer.MatchesPath(rel) {
			return nil
		}
		if isBinary(path) {
			result.BinarySkipped++
			return nil
		}

		result.Paths = append(result.Paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadGitignore compiles the root .gitignore if present. A missing or
// unreadable file just disables ignore matching.
func loadGitignore(root string) *gitignore.GitIgnore {
	ign, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return ign
}

// isBinary reports whether the file's head contains a NUL byte.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, binarySniffBytes)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return false
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
