package types

import (
	"fmt"
	"strings"
)

// Severity is a coarse-grained confidence level for a finding. Values are
// totally ordered: SevInfo < SevLow < SevMedium < SevHigh.
type Severity int

const (
	SevInfo Severity = iota
	SevLow
	SevMedium
	SevHigh
)

var severityNames = [...]string{"INFO", "LOW", "MEDIUM", "HIGH"}

func (s Severity) String() string {
	if s < SevInfo || s > SevHigh {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// Escalate moves s one level up, capped at SevHigh.
func (s Severity) Escalate() Severity {
	if s >= SevHigh {
		return SevHigh
	}
	return s + 1
}

// ParseSeverity accepts the textual form case-insensitively. "med" is an alias
// for MEDIUM.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "INFO":
		return SevInfo, nil
	case "LOW":
		return SevLow, nil
	case "MEDIUM", "MED":
		return SevMedium, nil
	case "HIGH":
		return SevHigh, nil
	}
	return SevInfo, fmt.Errorf("unknown severity %q", v)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Candidate is a literal substring pulled out of one line of text as a
// potential secret value.
type Candidate struct {
	Value   string
	Path    string
	Line    int
	Context string // full text of the line the value came from
}

// Finding describes a potential secret exposure at a path and line. Snippet is
// always truncated; the full value is never carried.
type Finding struct {
	Path         string   `json:"file"`
	Line         int      `json:"line"`
	Snippet      string   `json:"value_snippet"`
	Signature    string   `json:"signature,omitempty"`
	Entropy      float64  `json:"entropy"`
	Length       int      `json:"length"`
	ContextScore int      `json:"context_score"`
	Severity     Severity `json:"severity"`
}
