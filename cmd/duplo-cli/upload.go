package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/duplo/clientcli"
)

var uploadName string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload files to the pool",
	Long: `Upload one or more files to the pool, each under its base name.

If the server already holds a file with that name, the upload is stored
under a numbered name instead. When the pool's byte quota runs out
mid-upload, the part received so far is kept as "<name>.partial" and the
command fails.

Examples:
  duplo-cli upload ./report.pdf
  duplo-cli upload -p permanent ./a.png ./b.png
  tar c ./site | duplo-cli upload --name site.tar -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "remote file name (single file only; required for -)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		Paths: args,
		Name:  uploadName,
	})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return errors.New("some uploads failed")
	}
	return nil
}
