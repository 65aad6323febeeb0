package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/duplo/clientcli"
)

var shareCmd = &cobra.Command{
	Use:   "share <title> [text]",
	Short: "Share a piece of text as a file",
	Long: `Store text in the pool as "<title>.txt". Without a text argument the
text is read from standard input.

Examples:
  duplo-cli share wifi "guest / hunter2"
  git log -5 | duplo-cli share changes`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runShare,
}

func runShare(cmd *cobra.Command, args []string) error {
	title := args[0]

	var body string
	if len(args) == 2 {
		body = args[1]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		body = string(data)
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	res, err := client.ShareText(cmd.Context(), clientcli.ShareOptions{Title: title, Body: body})
	if err != nil {
		return err
	}

	return getFormatter().FormatUpload(os.Stdout, []clientcli.UploadResult{res})
}
