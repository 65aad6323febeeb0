package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/duplo"
	"github.com/sagarc03/duplo/config"
)

var version = "dev"

// exitReaperFatal is the process status when the expiry sweep can no longer
// list the transient pool.
const exitReaperFatal = 4

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "duplo",
	Short:   "Anonymous file drop with quota-enforced streaming uploads",
	Long: `Duplo is a small HTTP server that lets anyone upload, share text,
list, download and remove files in two directories: a transient pool
that is swept of old files every day, and a permanent pool.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringSlice("config", nil, "config file path, repeatable; later files override earlier ones (default: ./duplo.yaml)")
	flags.String("listen", "", "socket address to listen on (default: :5708, env: DUPLO_SERVER_ADDR)")
	flags.StringP("transient-dir", "t", "", "directory served at /transient/ (default: ./transient)")
	flags.StringP("permanent-dir", "p", "", "directory served at /permanent/ (default: ./permanent)")
	flags.Uint64("max-files", 0, "maximum number of files in each pool (default: 1000)")
	flags.Uint64("max-bytes", 0, "maximum number of bytes in each pool (default: 10GB)")
	flags.String("cleanup-time-utc", "", "time of day (UTC) of the daily sweep, HH:MM:SS (default: 00:00:00)")
	flags.Int("cleanup-maxhours", 0, "remove transient files older than this many hours (default: 24)")
	flags.String("journal-type", "", "operation journal: none, sqlite, postgres (default: none)")
	flags.String("journal-dsn", "", "journal connection string (default: duplo.db)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, duplo.ErrReaperFatal) {
			os.Exit(exitReaperFatal)
		}
		os.Exit(1)
	}
}
