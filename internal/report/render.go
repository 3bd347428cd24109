package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/envcheck/envcheck/internal/detectors"
	"github.com/envcheck/envcheck/internal/types"
	"github.com/olekukonko/tablewriter"
)

// EntropySignature labels findings that carry no signature.
const EntropySignature = "HIGH_ENTROPY"

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	FilesSkipped int
}

var severityStyles = map[types.Severity]lipgloss.Style{
	types.SevHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	types.SevMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	types.SevLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	types.SevInfo:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

func colorSeverity(s types.Severity, noColor bool) string {
	return styleSeverity(s, s.String(), noColor)
}

// styleSeverity colours text, which may already carry padding, in the style of s.
func styleSeverity(s types.Severity, text string, noColor bool) string {
	if noColor {
		return text
	}
	return severityStyles[s].Render(text)
}

func signatureLabel(f types.Finding) string {
	if f.Signature == "" {
		return EntropySignature
	}
	return f.Signature
}

// PrintTable renders findings as a bordered table followed by the summary
// footer. findings are sorted in place.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) error {
	detectors.SortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No secrets found ✅")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("Severity", "Signature", "Location", "Value", "Entropy", "Context")
		for _, f := range findings {
			if err := table.Append(
				colorSeverity(f.Severity, opts.NoColor),
				signatureLabel(f),
				f.Path+":"+strconv.Itoa(f.Line),
				f.Snippet,
				strconv.FormatFloat(f.Entropy, 'f', 3, 64),
				strconv.Itoa(f.ContextScore),
			); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	printFooter(w, findings, opts)
	return nil
}

// PrintText renders one line per finding.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	detectors.SortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, "No secrets found ✅")
	} else {
		width := 8
		for _, f := range findings {
			width = max(width, len(signatureLabel(f)))
		}
		fmt.Fprintf(w, "Findings: %d\n", len(findings))
		for _, f := range findings {
			// pad before styling; escape codes would count toward the width
			sev := styleSeverity(f.Severity, fmt.Sprintf("%-6s", f.Severity), opts.NoColor)
			fmt.Fprintf(w, "%s %-*s %s:%d  %s (entropy %.3f, context %d)\n",
				sev, width, signatureLabel(f),
				f.Path, f.Line, f.Snippet, f.Entropy, f.ContextScore)
		}
	}
	printFooter(w, findings, opts)
}

// Counts tallies findings per severity.
func Counts(findings []types.Finding) map[types.Severity]int {
	out := map[types.Severity]int{}
	for _, f := range findings {
		out[f.Severity]++
	}
	return out
}

func printFooter(w io.Writer, findings []types.Finding, opts PrintOptions) {
	// Summary footer (always show if we have stats)
	if opts.Duration <= 0 && opts.FilesScanned <= 0 {
		return
	}
	c := Counts(findings)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings: %d (high: %d, medium: %d, low: %d, info: %d)\n",
		len(findings), c[types.SevHigh], c[types.SevMedium], c[types.SevLow], c[types.SevInfo])
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.FilesSkipped > 0 {
		fmt.Fprintf(w, "Files skipped: %d\n", opts.FilesSkipped)
	}
}
