package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sagarc03/duplo"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Print how much of each pool's quota is in use",
	Long: `Scan both pool directories the same way the server does at startup
and print the counted totals against the configured ceilings.`,
	RunE: runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := configFrom(ctx)
	if err != nil {
		return err
	}

	pools, err := openPools(ctx, cfg, duplo.PoolConfig{})
	if err != nil {
		return err
	}
	defer pools.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "POOL\tFILES\tBYTES\tSTATUS")
	for _, p := range pools.all() {
		u := p.Quotas().Snapshot()
		_, _ = fmt.Fprintf(w, "%s\t%d/%d\t%s/%s\t%s\n",
			p.Name(),
			u.Files, u.FilesCeiling,
			humanize.IBytes(u.Bytes), humanize.IBytes(u.BytesCeiling),
			usageStatus(p.Quotas()),
		)
	}
	return w.Flush()
}

func usageStatus(q *duplo.QuotaSet) string {
	switch {
	case q.Files.IsExceeded():
		return duplo.WarnTooManyFiles
	case q.Bytes.IsExceeded():
		return duplo.WarnStorageFull
	case q.Bytes.IsNearExceeded():
		return duplo.WarnStorageNear
	default:
		return "ok"
	}
}
