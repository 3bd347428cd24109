package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/envcheck/envcheck/internal/baseline"
	"github.com/envcheck/envcheck/internal/envfile"
	"github.com/envcheck/envcheck/internal/snapshot"
	"github.com/olekukonko/tablewriter"
)

// PrintAnomalies renders a baseline report as text.
func PrintAnomalies(w io.Writer, rep baseline.Report) {
	if len(rep.Anomalies) == 0 {
		fmt.Fprintln(w, "No anomalies detected ✅")
	} else {
		fmt.Fprintf(w, "Anomalies: %d\n", len(rep.Anomalies))
		for _, a := range rep.Anomalies {
			fmt.Fprintf(w, "  [%s] %s\n", a.Type, a.Message)
		}
	}
	for _, n := range rep.Notes {
		fmt.Fprintf(w, "  note: %s\n", n)
	}
}

// WriteAnomaliesJSON writes a baseline report as indented JSON with empty
// lists instead of nulls.
func WriteAnomaliesJSON(w io.Writer, rep baseline.Report) error {
	if rep.Anomalies == nil {
		rep.Anomalies = []baseline.Anomaly{}
	}
	if rep.Notes == nil {
		rep.Notes = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// PrintDrift renders the key-level difference between two env files.
func PrintDrift(w io.Writer, first, second string, d envfile.Drift) {
	fmt.Fprintf(w, "Drift between:\n  %s\n  %s\n\n", first, second)
	printMissing(w, first, d.MissingInFirst)
	printMissing(w, second, d.MissingInSecond)
	if len(d.Different) == 0 {
		fmt.Fprintln(w, "✔ No value differences")
		return
	}
	fmt.Fprintln(w, "⚠ Keys with different values:")
	for _, v := range d.Different {
		fmt.Fprintf(w, "   ➤ %s\n", v.Key)
	}
}

func printMissing(w io.Writer, file string, keys []string) {
	if len(keys) == 0 {
		fmt.Fprintf(w, "✔ No missing keys in %s\n", file)
		return
	}
	fmt.Fprintf(w, "❌ Keys missing in %s:\n", file)
	for _, k := range keys {
		fmt.Fprintf(w, "   ➤ %s\n", k)
	}
}

// PrintComparison renders a snapshot comparison including its unified diff.
func PrintComparison(w io.Writer, name string, c snapshot.Comparison) {
	if c.Unchanged() {
		fmt.Fprintf(w, "%s: no changes since %s\n", name, c.Previous.Timestamp.Format("2006-01-02 15:04:05Z07:00"))
		return
	}
	fmt.Fprintf(w, "%s: %s -> %s\n", name,
		c.Previous.Timestamp.Format("2006-01-02 15:04:05Z07:00"),
		c.Current.Timestamp.Format("2006-01-02 15:04:05Z07:00"))
	printKeyList(w, "added", c.Added)
	printKeyList(w, "removed", c.Removed)
	printKeyList(w, "changed", c.Changed)
	if c.Diff != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, c.Diff)
	}
}

func printKeyList(w io.Writer, label string, keys []string) {
	if len(keys) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s (%d):\n", label, len(keys))
	for _, k := range keys {
		fmt.Fprintf(w, "    %s\n", k)
	}
}

// PrintSnapshots lists snapshot entries, oldest first, as a table.
func PrintSnapshots(w io.Writer, name string, entries []snapshot.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintf(w, "%s: no snapshots\n", name)
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header("Saved", "Hash", "Keys")
	for _, e := range entries {
		if err := table.Append(
			e.Timestamp.Format("2006-01-02 15:04:05Z07:00"),
			e.Hash,
			strconv.Itoa(len(e.Env)),
		); err != nil {
			return err
		}
	}
	return table.Render()
}
