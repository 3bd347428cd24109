package envcheck

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/envcheck/envcheck/internal/report"
	"github.com/envcheck/envcheck/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	flagSnapshotDir   string
	flagSnapshotLimit int
)

func init() {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Keep a timestamped history of env files",
	}
	cmd.PersistentFlags().StringVar(&flagSnapshotDir, "dir", "", "snapshot directory (default .envcheck/snapshots)")

	save := &cobra.Command{
		Use:   "save <name> [file...]",
		Short: "Record the current values under name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshotStore(cmd)
			if err != nil {
				return err
			}
			env, err := loadEnv(args[1:])
			if err != nil {
				return err
			}
			e, err := store.Save(args[0], env)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot %s (%d keys, hash %s).\n", e.Path, len(e.Env), e.Hash)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list <name>",
		Short: "List the most recent snapshots for name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshotStore(cmd)
			if err != nil {
				return err
			}
			entries, err := store.Latest(args[0], flagSnapshotLimit)
			if err != nil {
				return err
			}
			return report.PrintSnapshots(cmd.OutOrStdout(), args[0], entries)
		},
	}
	list.Flags().IntVarP(&flagSnapshotLimit, "limit", "n", 10, "number of snapshots to show")

	compare := &cobra.Command{
		Use:   "compare <name>",
		Short: "Diff the two most recent snapshots for name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshotStore(cmd)
			if err != nil {
				return err
			}
			c, err := store.Compare(args[0])
			if errors.Is(err, snapshot.ErrNoHistory) {
				return fmt.Errorf("%w (save at least two)", err)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flagJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(c)
			}
			report.PrintComparison(out, args[0], c)
			return nil
		},
	}

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(save, list, compare)
}

func snapshotStore(cmd *cobra.Command) (*snapshot.Store, error) {
	wd := workingDir()
	fc, err := setup(cmd, wd)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return snapshot.NewStore(stateDir(flagSnapshotDir, fc.SnapshotDir, wd, filepath.Join(stateDirName, "snapshots"))), nil
}
