package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dupexport/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the dupexport configuration file",
}

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a configuration file with the default settings",
	Long: `Write a configuration file with the default settings.

--endpoint and --log-level are stored in the new file when given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := createConfig(configService(), flagEndpoint, flagLogLevel)
		if err != nil {
			return err
		}
		fmt.Printf("Config written to %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(configService().Path())
	},
}

// createConfig saves the defaults plus overrides to the service's path. An
// existing file is never replaced.
func createConfig(svc config.ConfigService, endpoint, level string) (string, error) {
	path := svc.Path()
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config already exists at %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("check config: %w", err)
	}

	cfg := config.DefaultConfig()
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("config validation: %w", err)
	}

	if err := svc.SaveToPath(cfg, path); err != nil {
		return "", err
	}
	return path, nil
}

func init() {
	configCmd.AddCommand(configCreateCmd)
	configCmd.AddCommand(configPathCmd)
}
