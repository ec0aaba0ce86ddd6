package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/justiceconnect/internal/config"
	"github.com/PabloGalante/justiceconnect/internal/observability"
)

var (
	configPath string
	version    = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "justiceconnect",
	Short: "Philippine-law legal information assistant",
	Long: `JusticeConnect answers questions about Philippine law in English,
Tagalog and Bisaya.

  justiceconnect serve     # run the HTTP API
  justiceconnect chat      # talk to a running server from the terminal`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")
	rootCmd.AddCommand(serveCmd, chatCmd)
}

// loadConfig reads the configuration, checks it with validate and sets up
// logging. serve and chat need different settings, so each brings its own check.
func loadConfig(validate func(*config.Config) error) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if err := observability.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}
