package envcheck

import (
	"fmt"
	"path/filepath"

	"github.com/envcheck/envcheck/internal/baseline"
	"github.com/envcheck/envcheck/internal/config"
	"github.com/envcheck/envcheck/internal/report"
	"github.com/spf13/cobra"
)

var (
	flagBaselineDir   string
	flagBaselineName  string
	flagNoPersist     bool
	flagEntropyDelta  float64
	flagLengthRatio   float64
	flagFailOnAnomaly bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Track drift of sensitive values against a stored baseline",
	}
	cmd.PersistentFlags().StringVar(&flagBaselineDir, "dir", "", "baseline directory (default .envcheck/baselines)")
	cmd.PersistentFlags().StringVar(&flagBaselineName, "name", baseline.DefaultName, "baseline name")

	check := &cobra.Command{
		Use:   "check [file...]",
		Short: "Compare env files, or the process environment, with the baseline",
		Long:  "The first run records a baseline and reports no anomalies. Later runs flag keys whose entropy or length moved past the thresholds.",
		RunE:  runBaselineCheck,
	}
	check.Flags().BoolVar(&flagNoPersist, "no-persist", false, "do not create a baseline when none exists")
	check.Flags().Float64Var(&flagEntropyDelta, "entropy-delta", 0, "absolute entropy change that counts as drift (default 2.0)")
	check.Flags().Float64Var(&flagLengthRatio, "length-ratio", 0, "relative length change that counts as drift (default 0.5)")
	check.Flags().BoolVar(&flagFailOnAnomaly, "fail-on-anomaly", false, "exit 1 when anomalies are reported")

	update := &cobra.Command{
		Use:   "update [file...]",
		Short: "Replace the baseline with the current values",
		RunE:  runBaselineUpdate,
	}

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(check, update)
}

func newTracker(cmd *cobra.Command, fc config.FileConfig) (*baseline.Tracker, error) {
	th := fc.Thresholds()
	if flagEntropyDelta > 0 {
		th.EntropyDelta = flagEntropyDelta
	}
	if flagLengthRatio > 0 {
		th.LengthRatio = flagLengthRatio
	}
	persist := !flagNoPersist
	if !cmd.Flags().Changed("no-persist") && fc.PersistBaselineIfMissing != nil {
		persist = *fc.PersistBaselineIfMissing
	}
	dir := stateDir(flagBaselineDir, fc.BaselineDir, workingDir(), filepath.Join(stateDirName, "baselines"))
	return baseline.NewTracker(dir, flagBaselineName,
		baseline.WithThresholds(th),
		baseline.WithPersistIfMissing(persist),
		baseline.WithSignatures(fc.Analyzer().Signatures),
	)
}

func runBaselineCheck(cmd *cobra.Command, args []string) error {
	fc, err := setup(cmd, workingDir())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	env, err := loadEnv(args)
	if err != nil {
		return err
	}
	tr, err := newTracker(cmd, fc)
	if err != nil {
		return err
	}
	rep, err := tr.Analyze(env)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		if err := report.WriteAnomaliesJSON(out, rep); err != nil {
			return err
		}
	} else {
		report.PrintAnomalies(out, rep)
	}
	if flagFailOnAnomaly && len(rep.Anomalies) > 0 {
		return errFindings
	}
	return nil
}

func runBaselineUpdate(cmd *cobra.Command, args []string) error {
	fc, err := setup(cmd, workingDir())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	env, err := loadEnv(args)
	if err != nil {
		return err
	}
	tr, err := newTracker(cmd, fc)
	if err != nil {
		return err
	}
	if err := tr.Rebaseline(env); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Baseline %q updated (%d keys).\n", flagBaselineName, len(env))
	return nil
}
