package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/docpipe/docpipe/internal/store"
)

// FeedbackKey carries optional reviewer feedback into every stage's prompt
// when a document is regenerated after human review.
const FeedbackKey = "feedback"

// SourceNoteKey carries an advisory note about the source tree, such as
// "no source detected" for an empty repository. Attached to every stage's
// facts when present, never required.
const SourceNoteKey = "source_note"

// Facts is a read-only projection of shared-store keys for one stage.
type Facts map[string]json.RawMessage

// ProjectFacts pulls the named keys from the store for a stage. A missing
// key is a fatal-run error identifying the stage and key: a stage must never
// fabricate documentation from absent facts. FeedbackKey is attached when
// present but is never required.
func ProjectFacts(rs *store.RunStore, stage string, keys []string) (Facts, error) {
	facts := make(Facts, len(keys)+1)
	for _, key := range keys {
		raw, err := rs.GetRaw(key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("stage %s: required fact %q missing: %w", stage, key, err)
			}
			return nil, fmt.Errorf("stage %s: %w", stage, err)
		}
		facts[key] = raw
	}

	for _, optional := range []string{FeedbackKey, SourceNoteKey} {
		if raw, err := rs.GetRaw(optional); err == nil {
			facts[optional] = raw
		}
	}
	return facts, nil
}

// Render formats the facts as labeled JSON blocks for a prompt, keys sorted
// for stable output.
func (f Facts) Render() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "### %s\n%s\n\n", k, string(f[k]))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
