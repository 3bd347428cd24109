package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/envcheck/envcheck/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSARIFWithStats_IncludesProperties(t *testing.T) {
	findings := []types.Finding{{Path: "a/b.txt", Line: 3, Snippet: "m", Signature: "AWS_ACCESS_KEY", Severity: types.SevHigh}}
	stats := map[string]int{"filesScanned": 2, "filesSkipped": 1}
	var buf bytes.Buffer
	require.NoError(t, WriteSARIFWithStats(&buf, findings, stats))

	var doc struct {
		Runs []struct {
			Properties map[string]any `json:"properties"`
			Tool       struct {
				Driver struct {
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				RuleIndex int    `json:"ruleIndex"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc), buf.String())
	require.Len(t, doc.Runs, 1)

	ss, ok := doc.Runs[0].Properties["scanStats"].(map[string]any)
	require.True(t, ok, "%#v", doc.Runs[0].Properties)
	assert.EqualValues(t, 2, ss["filesScanned"])
	assert.EqualValues(t, 1, ss["filesSkipped"])

	rules := doc.Runs[0].Tool.Driver.Rules
	results := doc.Runs[0].Results
	require.NotEmpty(t, rules)
	require.NotEmpty(t, results)
	assert.Equal(t, "AWS_ACCESS_KEY", results[0].RuleID)
	assert.Equal(t, rules[results[0].RuleIndex].ID, results[0].RuleID)
}

// Validate core SARIF structure for WriteSARIF()
func TestWriteSARIF_Golden(t *testing.T) {
	fs := []types.Finding{
		{Path: "a.go", Line: 10, Snippet: "ghp_x", Signature: "GITHUB_PAT", Severity: types.SevHigh},
		{Path: "b.txt", Line: 5, Snippet: "c2VjcmV0c2VjcmV0", Severity: types.SevMedium},
		{Path: "c.txt", Line: 1, Snippet: "short", Severity: types.SevLow},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(&buf, fs))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2.1.0", doc["version"])
	runs, ok := doc["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)
	assert.NotContains(t, run, "properties")

	driver := run["tool"].(map[string]any)["driver"].(map[string]any)
	rules, ok := driver["rules"].([]any)
	require.True(t, ok)
	assert.Len(t, rules, 2)

	results := run["results"].([]any)
	require.Len(t, results, 3)
	levels := []string{}
	for _, r := range results {
		levels = append(levels, r.(map[string]any)["level"].(string))
	}
	assert.Equal(t, []string{"error", "warning", "note"}, levels)

	res := results[0].(map[string]any)
	locs := res["locations"].([]any)
	phys := locs[0].(map[string]any)["physicalLocation"].(map[string]any)
	region := phys["region"].(map[string]any)
	assert.Equal(t, map[string]any{"text": "ghp_x"}, region["snippet"])
}
