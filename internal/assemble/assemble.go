// Package assemble concatenates named document fragments into one document
// using explicit section markers, and splits such a document back into its
// sections. Splitting an assembled document recovers the original fragments
// exactly, which is what lets the quality gate evaluate one combined text and
// still hand per-section files to persistence.
package assemble

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Each section begins with a line of the exact form "===SECTION: <name>===".
const markerOpen = "===SECTION: "

// sectionRe matches a marker line, tolerating stray whitespace around the
// name when splitting documents that came back from a generator.
var sectionRe = regexp.MustCompile(`^===SECTION:\s*(.+?)\s*===$`)

// Fragment is one named piece of the output document.
type Fragment struct {
	SectionName string `json:"sectionName"`
	Body        string `json:"body"`
	Order       int    `json:"order"`
}

// Assemble joins fragments into a single document, ordered by Fragment.Order
// (stable for equal orders). Section names must not contain the marker
// substring or a newline, and must not start or end with whitespace; such
// names would make the document ambiguous or lossy to split, so they are
// rejected.
func Assemble(fragments []Fragment) (string, error) {
	sorted := make([]Fragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	var b strings.Builder
	for _, f := range sorted {
		if f.SectionName == "" {
			return "", fmt.Errorf("assemble: empty section name")
		}
		if strings.Contains(f.SectionName, "===SECTION:") {
			return "", fmt.Errorf("assemble: section name %q contains the marker substring", f.SectionName)
		}
		if strings.ContainsAny(f.SectionName, "\n\r") {
			return "", fmt.Errorf("assemble: section name %q contains a line break", f.SectionName)
		}
		// Split trims whitespace around the name, so a padded name would
		// not survive a round trip.
		if f.SectionName != strings.TrimSpace(f.SectionName) {
			return "", fmt.Errorf("assemble: section name %q starts or ends with whitespace", f.SectionName)
		}
		b.WriteString(markerOpen)
		b.WriteString(f.SectionName)
		b.WriteString("===\n")
		b.WriteString(f.Body)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Split breaks an assembled document into its named sections. Text before the
// first marker is ignored. Section bodies keep their internal line structure.
func Split(doc string) map[string]string {
	lines := strings.Split(doc, "\n")
	// The document's final newline produces one empty trailing element;
	// dropping it keeps bodies byte-exact on round trips.
	if len(lines) > 0 && lines[len(lines)-1] == "" && strings.HasSuffix(doc, "\n") {
		lines = lines[:len(lines)-1]
	}

	sections := make(map[string]string)
	var current string
	var body []string
	flush := func() {
		if current != "" {
			sections[current] = strings.Join(body, "\n")
		}
	}

	for _, line := range lines {
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			flush()
			current = m[1]
			body = body[:0]
			continue
		}
		body = append(body, line)
	}
	flush()
	return sections
}

// SplitExpected splits doc and reports which of the expected section names
// are absent. Missing names come back as a structured list, never silently
// dropped.
func SplitExpected(doc string, expected []string) (map[string]string, []string) {
	sections := Split(doc)
	var missing []string
	for _, name := range expected {
		if _, ok := sections[name]; !ok {
			missing = append(missing, name)
		}
	}
	return sections, missing
}
