package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/duplo/clientcli"
)

var downloadCmd = &cobra.Command{
	Use:   "download <name> [local-path]",
	Short: "Download a file from the pool",
	Long: `Download a file from the pool.

If local-path is omitted, the file is saved under its remote name in the
current directory. Use "-" as local-path to write to stdout.

Examples:
  duplo-cli download report.pdf
  duplo-cli download report.pdf ./backup/report.pdf
  duplo-cli download notes.txt - | less`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	opts := clientcli.DownloadOptions{Name: args[0]}
	if len(args) > 1 {
		opts.LocalPath = args[1]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Download(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		written, copyErr := io.Copy(os.Stdout, reader)
		if copyErr != nil {
			return fmt.Errorf("write to stdout: %w", copyErr)
		}
		result.Size = written
		// Keep stdout clean for the content itself.
		return getFormatter().FormatDownload(os.Stderr, result)
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
