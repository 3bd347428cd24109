package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/envcheck/envcheck/internal/report"
)

// MarshalFindings writes findings as the indented JSON array produced by
// `envcheck scan --json`. A nil slice is written as [].
func MarshalFindings(w io.Writer, findings []Finding) error {
	return report.WriteJSON(w, findings)
}

// UnmarshalFindings decodes an array written by MarshalFindings.
func UnmarshalFindings(r io.Reader) ([]Finding, error) {
	fs := []Finding{}
	if err := json.NewDecoder(r).Decode(&fs); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	return fs, nil
}
