package detectors

import (
	"sort"

	"github.com/envcheck/envcheck/internal/types"
)

type dedupeKey struct {
	path    string
	line    int
	snippet string
}

// Dedupe collapses findings sharing (file, line, snippet) into one record
// carrying the highest severity, then sorts the result. The outcome does not
// depend on input order, and Dedupe(Dedupe(x)) == Dedupe(x).
func Dedupe(findings []types.Finding) []types.Finding {
	best := make(map[dedupeKey]types.Finding, len(findings))
	for _, f := range findings {
		k := dedupeKey{f.Path, f.Line, f.Snippet}
		if cur, ok := best[k]; !ok || outranks(f, cur) {
			best[k] = f
		}
	}
	out := make([]types.Finding, 0, len(best))
	for _, f := range best {
		out = append(out, f)
	}
	SortFindings(out)
	return out
}

// outranks is a strict total order over findings with the same key, so the
// survivor is the same whichever order the group arrives in.
func outranks(a, b types.Finding) bool {
	if a.Severity != b.Severity {
		return a.Severity > b.Severity
	}
	if a.ContextScore != b.ContextScore {
		return a.ContextScore > b.ContextScore
	}
	if a.Entropy != b.Entropy {
		return a.Entropy > b.Entropy
	}
	if a.Length != b.Length {
		return a.Length > b.Length
	}
	return a.Signature > b.Signature
}

// SortFindings orders by file, then descending severity, then line and
// snippet.
func SortFindings(fs []types.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Snippet < b.Snippet
	})
}
