package envcheck

import (
	"fmt"
	"os"

	"github.com/envcheck/envcheck/internal/detectors"
	"github.com/envcheck/envcheck/internal/envfile"
	"github.com/envcheck/envcheck/internal/report"
	"github.com/envcheck/envcheck/internal/types"
	"github.com/spf13/cobra"
)

var flagEnvAll bool

func init() {
	cmd := &cobra.Command{
		Use:   "env [file...]",
		Short: "Scan env files, or the process environment, for secrets",
		Long:  "With no arguments the current process environment is analyzed. Files are scanned line by line; --all analyzes every env file below the working directory.",
		RunE:  runEnv,
	}
	cmd.Flags().BoolVar(&flagEnvAll, "all", false, "scan every .env file below the working directory")
	rootCmd.AddCommand(cmd)
}

func runEnv(cmd *cobra.Command, args []string) error {
	wd := workingDir()
	fc, err := setup(cmd, wd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	failOn, failEnabled, err := failThreshold(fc)
	if err != nil {
		return err
	}
	files := args
	if flagEnvAll {
		found, err := envfile.Find(wd)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}

	a := fc.Analyzer()
	var findings []types.Finding
	if len(files) == 0 {
		env, _ := loadEnv(nil)
		findings = a.ScanEnv("<env>", env)
	} else {
		var raw []types.Finding
		for _, f := range files {
			data, err := os.ReadFile(f)
			if err != nil {
				return err
			}
			raw = append(raw, a.Scan(f, data)...)
		}
		findings = detectors.Dedupe(raw)
	}
	if findings == nil {
		findings = []types.Finding{}
	}

	opts := report.PrintOptions{NoColor: pickBool(cmd, "no-color", flagNoColor, false, fc.NoColor)}
	if err := writeFindings(cmd.OutOrStdout(), findings, opts, map[string]int{
		"filesScanned":  len(files),
		"totalFindings": len(findings),
	}); err != nil {
		return err
	}
	if failEnabled && report.ShouldFail(findings, failOn) {
		return errFindings
	}
	return nil
}
