package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/envcheck/envcheck/internal/types"
)

// Known is a set of previously accepted findings. Findings listed here are
// dropped by FilterNew so a scan only reports what is new.
type Known struct {
	Items map[string]bool `json:"items"`
}

// LoadKnown reads a known-findings file. A missing file yields an empty set
// and the read error.
func LoadKnown(path string) (Known, error) {
	k := Known{Items: map[string]bool{}}
	data, err := os.ReadFile(path)
	if err != nil {
		return k, err
	}
	if err := json.Unmarshal(data, &k); err != nil {
		return Known{Items: map[string]bool{}}, fmt.Errorf("decode %s: %w", path, err)
	}
	if k.Items == nil {
		k.Items = map[string]bool{}
	}
	return k, nil
}

// SaveKnown records findings as accepted.
func SaveKnown(path string, findings []types.Finding) error {
	k := Known{Items: map[string]bool{}}
	for _, f := range findings {
		k.Items[knownKey(f)] = true
	}
	buf, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// FilterNew drops findings present in k.
func FilterNew(findings []types.Finding, k Known) []types.Finding {
	var out []types.Finding
	for _, f := range findings {
		if !k.Items[knownKey(f)] {
			out = append(out, f)
		}
	}
	return out
}

// Keys omit the line number.
func knownKey(f types.Finding) string {
	return f.Path + "|" + signatureLabel(f) + "|" + strconv.Quote(f.Snippet)
}

// ShouldFail reports whether any finding is at or above failOn.
func ShouldFail(findings []types.Finding, failOn types.Severity) bool {
	for _, f := range findings {
		if f.Severity >= failOn {
			return true
		}
	}
	return false
}
