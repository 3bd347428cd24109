package core

import (
	"context"

	"github.com/envcheck/envcheck/internal/baseline"
	"github.com/envcheck/envcheck/internal/detectors"
	"github.com/envcheck/envcheck/internal/engine"
	"github.com/envcheck/envcheck/internal/types"
)

// Re-export selected internal types as a stable public API surface.
type (
	Config   = engine.Config
	Result   = engine.Result
	Finding  = types.Finding
	Severity = types.Severity
	Report   = baseline.Report
	Anomaly  = baseline.Anomaly
)

const (
	SevInfo   = types.SevInfo
	SevLow    = types.SevLow
	SevMedium = types.SevMedium
	SevHigh   = types.SevHigh
)

// ErrRootNotFound is returned when the scan root is missing or not a directory.
var ErrRootNotFound = engine.ErrRootNotFound

// Scan is the stable entrypoint for other programs.
func Scan(ctx context.Context, cfg Config) ([]Finding, error) {
	return engine.Scan(ctx, cfg, nil)
}

// ScanWithStats runs a scan and returns findings with counts and timing.
func ScanWithStats(ctx context.Context, cfg Config) (Result, error) {
	return engine.ScanWithStats(ctx, cfg, nil)
}

// ScanText analyzes one in-memory document. path only labels the findings.
func ScanText(path string, data []byte) []Finding {
	return detectors.Dedupe(detectors.DefaultAnalyzer().Scan(path, data))
}

// AnalyzeEnv analyzes an environment mapping. Each pair is scanned as a
// KEY=VALUE line under the label "<env>", numbered in sorted key order.
func AnalyzeEnv(env map[string]string) []Finding {
	return detectors.DefaultAnalyzer().ScanEnv("<env>", env)
}

// DetectDrift compares env against the baseline called name in dir, creating
// the baseline on first use.
func DetectDrift(dir, name string, env map[string]string) (Report, error) {
	tr, err := baseline.NewTracker(dir, name)
	if err != nil {
		return Report{}, err
	}
	return tr.Analyze(env)
}

// SignatureNames lists the built-in signature names in match order.
func SignatureNames() []string { return detectors.DefaultSignatures().Names() }
