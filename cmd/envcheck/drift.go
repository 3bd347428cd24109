package envcheck

import (
	"encoding/json"
	"fmt"

	"github.com/envcheck/envcheck/internal/envfile"
	"github.com/envcheck/envcheck/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "drift <first> <second>",
		Short: "Compare the keys of two env files",
		Long:  "Reports keys missing from either file and keys whose values differ. Values are never printed.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := setup(cmd, workingDir()); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			d, err := envfile.DiffFiles(args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flagJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			report.PrintDrift(out, args[0], args[1], d)
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
