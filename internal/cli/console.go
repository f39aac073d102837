package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/dmxctl/internal/api"
	"github.com/tOgg1/dmxctl/internal/bridgetest"
	"github.com/tOgg1/dmxctl/internal/config"
	"github.com/tOgg1/dmxctl/internal/console"
	"github.com/tOgg1/dmxctl/internal/history"
	"github.com/tOgg1/dmxctl/internal/logging"
)

func newConsoleCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Start the interactive console",
		Long: "Start the full-screen interactive console. The console logs to a file\n" +
			"rather than the terminal; see 'logging.file' in the config.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, version)
		},
	}
	cmd.Flags().Bool("demo", false, "Run against a built-in demo bridge instead of a real one")
	cmd.Flags().String("theme", "", "Color theme (default, high-contrast)")
	return cmd
}

func runConsole(cmd *cobra.Command, version string) error {
	if !hasTTY() {
		return fmt.Errorf("the interactive console requires a terminal; use subcommands for scripting")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	// The console owns the terminal, so logs go to a file for the whole
	// session.
	closeLog, err := logging.InitFile(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	}, cfg.LogFilePath())
	if err != nil {
		return err
	}
	defer closeLog()

	serverURL := cfg.Server.URL
	if demo, _ := cmd.Flags().GetBool("demo"); demo {
		srv := bridgetest.NewServer()
		defer srv.Close()
		srv.SeedLogs(250)
		stopFeed := srv.StartFeed(1500 * time.Millisecond)
		defer stopFeed()
		serverURL = srv.URL()
		logging.Info().Str("url", serverURL).Msg("demo bridge started")
	}
	logging.Info().Str("server", logging.RedactURL(serverURL)).Msg("console starting")
	client := api.New(serverURL, cfg.Server.Timeout)

	hist := openHistory(cfg)
	if hist != nil {
		defer hist.Close()
	}

	theme := cfg.Console.Theme
	if flagTheme, _ := cmd.Flags().GetString("theme"); flagTheme != "" {
		theme = flagTheme
	}

	return console.Run(console.Config{
		Client:        client,
		History:       hist,
		Contexts:      config.NewContextStore(cfg.ContextPath()),
		Theme:         theme,
		WatchInterval: cfg.Console.WatchInterval,
		LogPageSize:   cfg.Console.LogPageSize,
		Version:       version,
	})
}

// openHistory opens and prunes the command history store. History is
// optional: the console starts without recall if the store cannot be
// opened.
func openHistory(cfg *config.Config) *history.Store {
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logging.Warn().Err(err).Str("path", cfg.HistoryPath()).Msg("command history unavailable")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := store.Prune(ctx, cfg.History.MaxEntries); err != nil {
		logging.Warn().Err(err).Msg("history prune failed")
	}
	return store
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
