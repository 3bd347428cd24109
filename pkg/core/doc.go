// Package core provides a small, stable facade over envcheck's internal
// packages for external integrations.
//
// Example:
//
//	findings, err := core.Scan(ctx, core.Config{Root: "."})
//	if err != nil { /* handle */ }
//	_ = core.MarshalFindings(os.Stdout, findings)
package core
