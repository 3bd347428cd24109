package detectors

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/envcheck/envcheck/internal/types"
)

// Class groups signatures by how much a match alone says about exposure.
type Class int

const (
	// ClassOther covers generic shapes (long hex/base64 runs) and custom
	// patterns without an explicit class.
	ClassOther Class = iota
	// ClassProvider covers vendor keys with a recognisable prefix.
	ClassProvider
	// ClassCritical covers private key material and signed token triples.
	ClassCritical
)

func (c Class) String() string {
	switch c {
	case ClassProvider:
		return "provider"
	case ClassCritical:
		return "critical"
	default:
		return "other"
	}
}

// Floor is the lowest severity a finding matched by a signature of this class
// may carry.
func (c Class) Floor() types.Severity {
	switch c {
	case ClassCritical:
		return types.SevHigh
	case ClassProvider:
		return types.SevMedium
	default:
		return types.SevLow
	}
}

// ParseClass maps the config spelling of a class. Empty means ClassOther.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "other", "low":
		return ClassOther, nil
	case "provider", "medium":
		return ClassProvider, nil
	case "critical", "high":
		return ClassCritical, nil
	}
	return ClassOther, fmt.Errorf("unknown signature class %q", s)
}

// Signature is a named structural pattern for one credential format.
type Signature struct {
	Name  string
	Class Class

	re   *regexp.Regexp
	full *regexp.Regexp
}

// NewSignature compiles pattern in both search and whole-string form.
func NewSignature(name, pattern string, class Class) (Signature, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Signature{}, fmt.Errorf("signature %s: %w", name, err)
	}
	full, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return Signature{}, fmt.Errorf("signature %s: %w", name, err)
	}
	return Signature{Name: name, Class: class, re: re, full: full}, nil
}

func mustSignature(name, pattern string, class Class) Signature {
	s, err := NewSignature(name, pattern, class)
	if err != nil {
		panic(err)
	}
	return s
}

// SignatureSet is an ordered, immutable list of signatures. Match order is
// declaration order.
type SignatureSet struct {
	sigs []Signature
}

// UnknownTokenType is reported by TokenType when nothing matches.
const UnknownTokenType = "UNKNOWN"

// DefaultSignatures returns the built-in set. Build it once and pass it to the
// components that need it.
func DefaultSignatures() SignatureSet {
	return SignatureSet{sigs: []Signature{
		mustSignature("AWS_ACCESS_KEY", `AKIA[0-9A-Z]{16}`, ClassProvider),
		mustSignature("GITHUB_PAT", `ghp_[A-Za-z0-9]{36}`, ClassProvider),
		mustSignature("GITHUB_TOKEN", `gh[ousr]_[A-Za-z0-9]{36}`, ClassProvider),
		mustSignature("JWT_TOKEN", `[A-Za-z0-9_-]{20,}\.[A-Za-z0-9_-]{20,}\.[A-Za-z0-9_-]{20,}`, ClassCritical),
		mustSignature("PRIVATE_KEY", `-----BEGIN (?:RSA |OPENSSH |EC |DSA |ENCRYPTED )?PRIVATE KEY-----`, ClassCritical),
		mustSignature("STRIPE_LIVE_KEY", `sk_live_[0-9a-zA-Z]{24}`, ClassProvider),
		mustSignature("STRIPE_TEST_KEY", `sk_test_[0-9a-zA-Z]{24}`, ClassProvider),
		mustSignature("GOOGLE_API_KEY", `AIza[0-9A-Za-z_-]{35}`, ClassProvider),
		mustSignature("SLACK_TOKEN", `xox[abprs]-[A-Za-z0-9-]{10,48}`, ClassProvider),
		mustSignature("GITLAB_TOKEN", `glpat-[A-Za-z0-9_-]{20}`, ClassProvider),
		mustSignature("SENDGRID_API_KEY", `SG\.[A-Za-z0-9_-]{16,}\.[A-Za-z0-9_-]{32,}`, ClassProvider),
		mustSignature("TWILIO_API_KEY", `SK[0-9a-fA-F]{32}`, ClassProvider),
		mustSignature("NPM_TOKEN", `npm_[A-Za-z0-9]{36}`, ClassProvider),
		mustSignature("URL_WITH_CREDS", `[A-Za-z][A-Za-z0-9+.-]*://[^/\s:@]+:[^/\s:@]+@`, ClassProvider),
		mustSignature("HEX_32", `\b[0-9a-fA-F]{32}\b`, ClassOther),
		mustSignature("BASE64_LONG", `\b[A-Za-z0-9+/]{20,}={0,2}\b`, ClassOther),
	}}
}

// With returns a new set with extra appended after the existing signatures.
func (s SignatureSet) With(extra ...Signature) SignatureSet {
	out := make([]Signature, 0, len(s.sigs)+len(extra))
	out = append(out, s.sigs...)
	out = append(out, extra...)
	return SignatureSet{sigs: out}
}

// Len reports the number of signatures in the set.
func (s SignatureSet) Len() int { return len(s.sigs) }

// Names lists signature names in match order.
func (s SignatureSet) Names() []string {
	out := make([]string, len(s.sigs))
	for i, sig := range s.sigs {
		out[i] = sig.Name
	}
	return out
}

// Match returns the first signature found anywhere in v.
func (s SignatureSet) Match(v string) (Signature, bool) {
	for _, sig := range s.sigs {
		if sig.re.MatchString(v) {
			return sig, true
		}
	}
	return Signature{}, false
}

// TokenType returns the name of the first signature matching the whole of v,
// or UnknownTokenType.
func (s SignatureSet) TokenType(v string) string {
	for _, sig := range s.sigs {
		if sig.full.MatchString(v) {
			return sig.Name
		}
	}
	return UnknownTokenType
}

// PatternSpec is a user-supplied signature as it appears in configuration.
type PatternSpec struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
	Class string `yaml:"class"`
}

// CompilePatterns turns configured patterns into signatures. Entries that do
// not compile, or carry an unknown class, are skipped.
func CompilePatterns(specs []PatternSpec) []Signature {
	var out []Signature
	for _, p := range specs {
		if p.Name == "" || p.Regex == "" {
			continue
		}
		class, err := ParseClass(p.Class)
		if err != nil {
			log.Debug().Err(err).Str("pattern", p.Name).Msg("skipping custom pattern")
			continue
		}
		sig, err := NewSignature(p.Name, p.Regex, class)
		if err != nil {
			log.Debug().Err(err).Str("pattern", p.Name).Msg("skipping custom pattern")
			continue
		}
		out = append(out, sig)
	}
	return out
}
