package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sagarc03/duplo"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Sweep expired files from the transient pool now",
	Long: `Run one expiry sweep of the transient pool and exit.

Regular files whose age is at least cleanup.max_hours are removed.
Directories, symlinks and files with unreadable or future modification
times are left alone.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := configFrom(ctx)
	if err != nil {
		return err
	}

	journal, closeJournal, err := openJournal(ctx, cfg.Journal)
	if err != nil {
		return err
	}
	defer closeJournal()

	pools, err := openPools(ctx, cfg, duplo.PoolConfig{Journal: journal})
	if err != nil {
		return err
	}
	defer pools.Close()

	reaper, err := newReaper(cfg, pools.transient)
	if err != nil {
		return fmt.Errorf("create reaper: %w", err)
	}

	res, err := reaper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d files (%s), retained %d, failed %d, skipped %d\n",
		res.Removed, humanize.IBytes(res.FreedBytes), res.Retained, res.Failed, res.Skipped)
	return nil
}
