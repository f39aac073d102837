// Package cli implements the dmxctl command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tOgg1/dmxctl/internal/api"
	"github.com/tOgg1/dmxctl/internal/config"
	"github.com/tOgg1/dmxctl/internal/logging"
)

// Execute runs the dmxctl CLI with the given version string.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dmxctl",
		Short: "Control a Govee Art-Net bridge from the terminal",
		Long: "dmxctl talks to a local Govee Art-Net bridge over its REST API.\n" +
			"Run without arguments to start the interactive console.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, version)
		},
	}
	cmd.PersistentFlags().String("config", "", "Config file (default ~/.config/dmxctl/config.yaml)")
	cmd.PersistentFlags().String("server", "", "Bridge base URL (overrides config)")
	cmd.PersistentFlags().String("log-level", "", "Minimum log level (debug, info, warn, error)")

	cmd.AddCommand(
		newConsoleCmd(version),
		newDevicesCmd(),
		newScenesCmd(),
		newStatusCmd(),
		newLogsCmd(),
		newVersionCmd(version),
	)

	return cmd
}

// loadConfig builds the effective configuration from the config file and
// the root command's persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader.SetConfigFile(path)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if server, _ := cmd.Flags().GetString("server"); server != "" {
		cfg.Server.URL = server
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupCLI prepares config, stderr logging, and a bridge client for
// non-interactive subcommands.
func setupCLI(cmd *cobra.Command) (*config.Config, *api.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       os.Stderr,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	logging.Debug().Str("server", logging.RedactURL(cfg.Server.URL)).Msg("using bridge")

	return cfg, api.New(cfg.Server.URL, cfg.Server.Timeout), nil
}
