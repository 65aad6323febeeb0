package main

import (
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List files in the pool",
	Long: `List the files in the pool with their sizes and modification times,
followed by the pool's quota usage and any quota warnings.

Examples:
  duplo-cli list
  duplo-cli ls -p permanent --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context())
	if err != nil {
		return err
	}

	return getFormatter().FormatList(os.Stdout, result)
}
