package main

import (
	"fmt"
	"os"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/spf13/cobra"
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:           "linkbot",
		Short:         "Deep-link bot with reports, roles, broadcasts and a subscription gate",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv("CONFIG_FILE"), "optional YAML config overlay")
	rootCmd.AddCommand(serveCmd, backupCmd, restoreCmd, tokenCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
