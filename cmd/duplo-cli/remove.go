package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/duplo/clientcli"
)

var removeCmd = &cobra.Command{
	Use:     "remove <name>...",
	Aliases: []string{"rm"},
	Short:   "Remove files from the pool",
	Long: `Remove one or more files from the pool. A failure on one name does not
stop the others.

Examples:
  duplo-cli remove report.pdf
  duplo-cli rm -p permanent a.png b.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Remove(cmd.Context(), clientcli.RemoveOptions{Names: args})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatRemove(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasRemoveErrors(results) {
		return errors.New("some removals failed")
	}
	return nil
}
