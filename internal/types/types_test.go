package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityOrdering(t *testing.T) {
	assert.True(t, SevInfo < SevLow)
	assert.True(t, SevLow < SevMedium)
	assert.True(t, SevMedium < SevHigh)
}

func TestSeverityEscalateCapsAtHigh(t *testing.T) {
	assert.Equal(t, SevLow, SevInfo.Escalate())
	assert.Equal(t, SevMedium, SevLow.Escalate())
	assert.Equal(t, SevHigh, SevMedium.Escalate())
	assert.Equal(t, SevHigh, SevHigh.Escalate())
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
		err  bool
	}{
		{in: "info", want: SevInfo},
		{in: "Low", want: SevLow},
		{in: " MEDIUM ", want: SevMedium},
		{in: "med", want: SevMedium},
		{in: "high", want: SevHigh},
		{in: "critical", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindingJSONUsesTextSeverity(t *testing.T) {
	f := Finding{Path: ".env", Line: 1, Snippet: "AKIA...", Severity: SevMedium}
	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"severity":"MEDIUM"`)
	assert.NotContains(t, string(b), `"signature"`)

	var back Finding
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, SevMedium, back.Severity)
}
