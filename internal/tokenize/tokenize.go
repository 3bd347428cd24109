// Package tokenize extracts literal candidate values from single lines of
// text. It has no knowledge of what a secret looks like; it only decides which
// substrings are worth handing to the detectors.
package tokenize

import (
	"regexp"
	"strings"

	"github.com/envcheck/envcheck/internal/types"
)

// reToken captures either a quoted literal (group 1) or a long unquoted run of
// characters that commonly appear in keys and tokens (group 2).
var reToken = regexp.MustCompile(`['"]([^'"]{6,200})['"]|([A-Za-z0-9._/+-]{12,200})`)

const pemMarker = "-----BEGIN"

// Line returns the candidates found in one line of text. The result is a pure
// function of its arguments.
func Line(path string, lineNo int, text string) []types.Candidate {
	var out []types.Candidate
	add := func(v string) {
		out = append(out, types.Candidate{Value: v, Path: path, Line: lineNo, Context: text})
	}

	for _, m := range reToken.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			add(m[1])
		} else if m[2] != "" {
			add(m[2])
		}
	}

	if _, rhs, ok := strings.Cut(text, "="); ok {
		if v := unquote(strings.TrimSpace(rhs)); v != "" {
			add(v)
		}
	}

	// PEM headers contain spaces and would never survive the run pattern.
	if t := strings.TrimSpace(text); strings.HasPrefix(t, pemMarker) {
		add(t)
	}
	return out
}

// unquote strips one layer of matching single or double quotes.
func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
