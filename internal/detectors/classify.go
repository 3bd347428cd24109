package detectors

import "github.com/envcheck/envcheck/internal/types"

// Policy is the single decision table that turns signals into a severity.
// Construct it once (DefaultPolicy) and pass it to the analyzer.
type Policy struct {
	// MinLength discards candidates shorter than this outright.
	MinLength int

	// Thresholds for findings without a signature.
	MediumEntropy float64
	MediumLength  int
	LowEntropy    float64
	LowLength     int

	// A candidate without a signature is reported only when it reaches
	// ReportEntropy or ReportLength.
	ReportEntropy float64
	ReportLength  int
}

// DefaultPolicy returns the built-in thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:     8,
		MediumEntropy: 4.0,
		MediumLength:  20,
		LowEntropy:    3.5,
		LowLength:     12,
		ReportEntropy: 3.5,
		ReportLength:  12,
	}
}

// Admit reports whether a candidate of the given length passes the entry gate.
func (p Policy) Admit(length int) bool {
	return length >= p.MinLength
}

// Reportable reports whether an admitted candidate becomes a finding.
func (p Policy) Reportable(matched bool, entropy float64, length int) bool {
	return matched || entropy >= p.ReportEntropy || length >= p.ReportLength
}

// Classify returns the severity for one candidate. sig is nil when no
// signature matched. It never fails and always returns one of the four levels.
func (p Policy) Classify(sig *Signature, entropy float64, length, context int) types.Severity {
	var sev types.Severity
	switch {
	case sig != nil:
		sev = sig.Class.Floor()
	case entropy >= p.MediumEntropy && length >= p.MediumLength:
		sev = types.SevMedium
	case entropy >= p.LowEntropy && length >= p.LowLength:
		sev = types.SevLow
	default:
		sev = types.SevInfo
	}
	if context > 0 {
		sev = sev.Escalate()
	}
	return sev
}
