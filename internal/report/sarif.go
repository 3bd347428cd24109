package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/envcheck/envcheck/internal/types"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID     string         `json:"ruleId"`
	RuleIndex  int            `json:"ruleIndex"`
	Level      string         `json:"level"`
	Message    sarifMessage   `json:"message"`
	Locations  []sarifLoc     `json:"locations"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int          `json:"startLine"`
	Snippet   sarifMessage `json:"snippet"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "error"
	case types.SevMedium:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF writes findings as SARIF 2.1.0 to the provided writer.
func WriteSARIF(w io.Writer, findings []types.Finding) error {
	return WriteSARIFWithStats(w, findings, nil)
}

// WriteSARIFWithStats is WriteSARIF with scan statistics attached to the run
// properties under "scanStats".
func WriteSARIFWithStats(w io.Writer, findings []types.Finding, stats map[string]int) error {
	ids := map[string]bool{}
	for _, f := range findings {
		ids[signatureLabel(f)] = true
	}
	ruleIDs := make([]string, 0, len(ids))
	for id := range ids {
		ruleIDs = append(ruleIDs, id)
	}
	sort.Strings(ruleIDs)
	index := make(map[string]int, len(ruleIDs))
	rules := make([]sarifRule, len(ruleIDs))
	for i, id := range ruleIDs {
		index[id] = i
		rules[i] = sarifRule{ID: id, ShortDescription: sarifMessage{Text: ruleDescription(id)}}
	}

	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:    "envcheck",
			Version: time.Now().Format("2006.01.02"),
			Rules:   rules,
		}},
		Results: []sarifResult{},
	}
	for _, f := range findings {
		id := signatureLabel(f)
		run.Results = append(run.Results, sarifResult{
			RuleID:    id,
			RuleIndex: index[id],
			Level:     sevToLevel(f.Severity),
			Message:   sarifMessage{Text: fmt.Sprintf("%s: potential secret (%s)", id, f.Severity)},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.Path},
					Region:           sarifRegion{StartLine: f.Line, Snippet: sarifMessage{Text: f.Snippet}},
				},
			}},
			Properties: map[string]any{
				"entropy":      f.Entropy,
				"length":       f.Length,
				"contextScore": f.ContextScore,
			},
		})
	}
	if len(stats) > 0 {
		run.Properties = map[string]any{"scanStats": stats}
	}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func ruleDescription(id string) string {
	if id == EntropySignature {
		return "High-entropy or long literal value"
	}
	return id + " pattern matched"
}
