package detectors

import (
	"bufio"
	"bytes"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/envcheck/envcheck/internal/tokenize"
	"github.com/envcheck/envcheck/internal/types"
)

// SnippetLimit is the number of runes of a value kept in a finding.
const SnippetLimit = 60

// Analyzer combines the signature set, keyword list and severity policy.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	Signatures SignatureSet
	Keywords   Keywords
	Policy     Policy
}

// NewAnalyzer builds an analyzer from explicit configuration.
func NewAnalyzer(sigs SignatureSet, kw Keywords, policy Policy) *Analyzer {
	return &Analyzer{Signatures: sigs, Keywords: kw, Policy: policy}
}

// DefaultAnalyzer uses the built-in signatures, keywords and policy.
func DefaultAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultSignatures(), DefaultKeywords(), DefaultPolicy())
}

// Analyze scores one candidate. The boolean is false when the candidate does
// not produce a finding.
func (a *Analyzer) Analyze(c types.Candidate) (types.Finding, bool) {
	length := utf8.RuneCountInString(c.Value)
	if !a.Policy.Admit(length) {
		return types.Finding{}, false
	}
	var sig *Signature
	if s, ok := a.Signatures.Match(c.Value); ok {
		sig = &s
	}
	entropy := Entropy(c.Value)
	if !a.Policy.Reportable(sig != nil, entropy, length) {
		return types.Finding{}, false
	}
	ctx := a.Keywords.Score(c.Context, c.Value)
	f := types.Finding{
		Path:         c.Path,
		Line:         c.Line,
		Snippet:      Snippet(c.Value),
		Entropy:      round3(entropy),
		Length:       length,
		ContextScore: ctx,
		Severity:     a.Policy.Classify(sig, entropy, length, ctx),
	}
	if sig != nil {
		f.Signature = sig.Name
	}
	return f, true
}

// ScanLine tokenizes one line and analyzes every candidate. Duplicates are
// left for Dedupe.
func (a *Analyzer) ScanLine(path string, lineNo int, text string) []types.Finding {
	var out []types.Finding
	for _, c := range tokenize.Line(path, lineNo, text) {
		if f, ok := a.Analyze(c); ok {
			out = append(out, f)
		}
	}
	return out
}

// Scan runs the analyzer over every line of data. Inline suppressions are
// honoured: a line containing "envcheck:ignore" is skipped,
// "envcheck:ignore-next-line" skips the following line and
// "envcheck:ignore-start"/"envcheck:ignore-end" bracket a skipped region.
func (a *Analyzer) Scan(path string, data []byte) []types.Finding {
	var out []types.Finding
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	line := 0
	ignoreRegion := false
	skipNext := false
	for sc.Scan() {
		line++
		t := sc.Text()
		switch {
		case strings.Contains(t, "envcheck:ignore-start"):
			ignoreRegion = true
			continue
		case strings.Contains(t, "envcheck:ignore-end"):
			ignoreRegion = false
			continue
		case ignoreRegion:
			continue
		case strings.Contains(t, "envcheck:ignore-next-line"):
			skipNext = true
			continue
		case skipNext:
			skipNext = false
			continue
		case strings.Contains(t, "envcheck:ignore"):
			continue
		}
		out = append(out, a.ScanLine(path, line, t)...)
	}
	return out
}

// ScanEnv analyzes an environment mapping. Each pair is scanned as a
// KEY=VALUE line under label, numbered in sorted key order. The result is
// deduplicated.
func (a *Analyzer) ScanEnv(label string, env map[string]string) []types.Finding {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []types.Finding
	for i, k := range keys {
		out = append(out, a.ScanLine(label, i+1, k+"="+env[k])...)
	}
	return Dedupe(out)
}

// Snippet truncates v to SnippetLimit runes, appending "..." when cut.
func Snippet(v string) string {
	if utf8.RuneCountInString(v) <= SnippetLimit {
		return v
	}
	r := []rune(v)
	return string(r[:SnippetLimit]) + "..."
}
