package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagarc03/duplo/clientcli"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	endpoint    string
	pool        string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "duplo-cli",
	Version: version,
	Short:   "Client for the duplo file drop",
	Long: `duplo-cli - client for a duplo server

Every command works on one pool of the server, "transient" unless
--pool or the selected profile says otherwise. Files in the transient
pool are removed by the server once they are older than its cleanup age.

Settings are resolved in this order, later ones winning:
  profile from ~/.duplo/config.yaml, DUPLO_ENDPOINT / DUPLO_POOL, flags`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.duplo/config.yaml, env: DUPLO_CLIENT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "profile to use (env: DUPLO_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:5708, env: DUPLO_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&pool, "pool", "p", "", "pool to use: transient or permanent (env: DUPLO_POOL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		os.Exit(1)
	}
}

// getConfigPath returns the config file path from flag, env, or default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges the profile, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	name := profileName
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}

	configFile, err := clientcli.LoadConfigFile(getConfigPath())
	switch {
	case err != nil:
		// Only a missing default file may be skipped
		if cfgFile != "" || name != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	case configFile != nil:
		p, profileErr := configFile.GetProfile(name)
		switch {
		case profileErr == nil:
			configs = append(configs, clientcli.ConfigFromProfile(p))
		case name != "":
			return nil, profileErr
		}
	}

	configs = append(configs, clientcli.ConfigFromEnv())
	configs = append(configs, &clientcli.Config{
		Endpoint: strings.TrimSuffix(endpoint, "/"),
		Pool:     pool,
	})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}

	return clientcli.New(cfg)
}
