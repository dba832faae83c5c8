package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	flagConfig   string
	flagEndpoint string
	flagLogFile  string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "dupexport",
	Short:         "Select classes and fields and export them as a DUP package",
	Long:          "dupexport browses the class catalog of a repository, lets you pick classes and fields, and asks the export service to build a DUP package from the selection.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dupexport %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default $XDG_CONFIG_HOME/dupexport/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "export service base URL")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "log file path")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(reposCmd)
	rootCmd.AddCommand(classesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
