package envcheck

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/envcheck/envcheck/internal/config"
	"github.com/envcheck/envcheck/internal/engine"
	"github.com/envcheck/envcheck/internal/report"
	"github.com/envcheck/envcheck/internal/types"
	"github.com/spf13/cobra"
)

// knownFile holds findings accepted as known; they are filtered from reports.
const knownFile = "envcheck.known.json"

// stateDirName holds baselines and snapshots. It is never scanned.
const stateDirName = ".envcheck"

var (
	flagPath        string
	flagInclude     string
	flagExclude     string
	flagExcludeDirs string
	flagMaxBytes    int64
	flagMinSeverity string
	flagKnownTypes  bool
	flagText        bool
	flagDryRun      bool
	flagKnown       string
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a directory tree for secrets",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "path to scan")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().StringVar(&flagExcludeDirs, "exclude-dirs", "", "comma-separated directory names or relative paths to skip")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 0, "skip files larger than this (0 = 1MiB)")
	cmd.Flags().StringVar(&flagMinSeverity, "min-severity", "", "only report findings at or above info|low|medium|high")
	cmd.Flags().BoolVar(&flagKnownTypes, "known-types", false, "only scan known source and config file types")
	cmd.Flags().BoolVar(&flagText, "text", false, "output in plain text columnar format")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "list counts without analyzing file contents")
	cmd.Flags().StringVar(&flagKnown, "known", knownFile, "known-findings file to filter against")
}

func runScan(cmd *cobra.Command, _ []string) error {
	abs, err := filepath.Abs(flagPath)
	if err != nil {
		return err
	}
	fc, err := setup(cmd, abs)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg, err := scanConfig(cmd, abs, fc)
	if err != nil {
		return err
	}
	failOn, failEnabled, err := failThreshold(fc)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	machine := flagJSON || flagSARIF
	total, _ := engine.CountTargets(cfg)
	if total > 0 && !machine {
		var (
			mu         sync.Mutex
			progressed int
		)
		cfg.Progress = func() {
			mu.Lock()
			defer mu.Unlock()
			progressed++
			if progressed%10 == 0 || progressed == total {
				pct := float64(progressed) / float64(total) * 100
				_, _ = fmt.Fprintf(stderr, "\r[%d/%d] %.0f%%", progressed, total, pct)
			}
		}
	}
	res, err := engine.ScanWithStats(cmd.Context(), cfg, fc.Analyzer())
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}
	if total > 0 && !machine {
		_, _ = fmt.Fprintln(stderr)
	}

	knownPath := flagKnown
	if !filepath.IsAbs(knownPath) {
		knownPath = filepath.Join(abs, knownPath)
	}
	known, err := report.LoadKnown(knownPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	findings := report.FilterNew(res.Findings, known)
	if findings == nil {
		findings = []types.Finding{}
	}

	opts := report.PrintOptions{
		NoColor:      pickBool(cmd, "no-color", flagNoColor, false, fc.NoColor),
		Duration:     res.Duration,
		FilesScanned: res.FilesScanned,
		FilesSkipped: res.FilesSkipped,
	}
	if err := writeFindings(cmd.OutOrStdout(), findings, opts, map[string]int{
		"filesScanned":  res.FilesScanned,
		"filesSkipped":  res.FilesSkipped,
		"totalFindings": len(res.Findings),
	}); err != nil {
		return err
	}

	if failEnabled && report.ShouldFail(findings, failOn) {
		return errFindings
	}
	return nil
}

// scanConfig builds the engine config with CLI > config file precedence.
func scanConfig(cmd *cobra.Command, root string, fc config.FileConfig) (engine.Config, error) {
	minSev := pickString(flagMinSeverity, fc.MinSeverity)
	sev, err := config.Severity(&minSev, types.SevInfo)
	if err != nil {
		return engine.Config{}, err
	}
	cfg := engine.Config{
		Root:            root,
		IncludeGlobs:    pickString(flagInclude, fc.Include),
		ExcludeGlobs:    joinGlobs(pickString(flagExclude, fc.Exclude), filepath.Base(flagKnown)),
		ExcludeDirs:     append(append(splitList(flagExcludeDirs), fc.ExcludeDirs...), stateDirName),
		MaxBytes:        pickInt64(flagMaxBytes, fc.MaxBytes),
		Threads:         pickInt(flagThreads, fc.Threads),
		DefaultExcludes: pickBool(cmd, "default-excludes", flagDefaultExcludes, true, fc.DefaultExcludes),
		KnownTypesOnly:  pickBool(cmd, "known-types", flagKnownTypes, false, fc.KnownTypesOnly),
		MinSeverity:     sev,
		DryRun:          flagDryRun,
	}
	return cfg, nil
}

// writeFindings renders findings in the format selected by the output flags.
func writeFindings(w io.Writer, findings []types.Finding, opts report.PrintOptions, stats map[string]int) error {
	switch {
	case flagSARIF:
		if err := report.WriteSARIFWithStats(w, findings, stats); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
		return nil
	case flagJSON:
		return report.WriteJSON(w, findings)
	case flagText:
		report.PrintText(w, findings, opts)
		return nil
	default:
		return report.PrintTable(w, findings, opts)
	}
}

func joinGlobs(list, extra string) string {
	if list == "" {
		return extra
	}
	return list + "," + extra
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
