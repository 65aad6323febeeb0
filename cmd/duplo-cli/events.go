package main

import (
	"os"

	"github.com/spf13/cobra"
)

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent operations on the pool",
	Long: `Show the pool's most recent uploads, removals and sweeps, newest first.

The server keeps this history only when its journal is enabled.`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "l", 50, "number of events (max: 1000)")
}

func runEvents(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	events, err := client.Events(cmd.Context(), eventsLimit)
	if err != nil {
		return err
	}

	return getFormatter().FormatEvents(os.Stdout, events)
}
