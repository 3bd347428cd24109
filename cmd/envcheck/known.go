package envcheck

import (
	"fmt"
	"path/filepath"

	"github.com/envcheck/envcheck/internal/engine"
	"github.com/envcheck/envcheck/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "known",
		Short: "Manage accepted findings",
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Accept every finding of the current scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			results, err := engine.Scan(cmd.Context(), cfg, fc.Analyzer())
			if err != nil {
				return err
			}
			out := flagKnown
			if !filepath.IsAbs(out) {
				out = filepath.Join(abs, out)
			}
			if err := report.SaveKnown(out, results); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Known findings updated (%d).\n", len(results))
			return nil
		},
	}
	update.Flags().StringVarP(&flagPath, "path", "p", ".", "path to scan")
	update.Flags().StringVar(&flagKnown, "known", knownFile, "known-findings file to write")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
