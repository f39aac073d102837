package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tOgg1/dmxctl/internal/api"
)

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Query or follow bridge logs",
		Long: "Query a page of bridge log entries, or stream new entries with\n" +
			"--follow until interrupted.",
		Args: cobra.NoArgs,
		RunE: runLogs,
	}
	cmd.Flags().Bool("follow", false, "Stream new log entries until interrupted")
	cmd.Flags().String("level", "", "Only entries at this level (debug, info, warning, error)")
	cmd.Flags().String("logger", "", "Only entries from this logger")
	cmd.Flags().String("search", "", "Only entries whose message contains this text")
	cmd.Flags().Int("page", 1, "Page to show, newest first")
	cmd.Flags().Int("page-size", 50, "Entries per page")
	return cmd
}

func runLogs(cmd *cobra.Command, _ []string) error {
	_, client, err := setupCLI(cmd)
	if err != nil {
		return err
	}

	level, _ := cmd.Flags().GetString("level")
	logger, _ := cmd.Flags().GetString("logger")
	level = strings.ToLower(level)

	if follow, _ := cmd.Flags().GetBool("follow"); follow {
		filter := api.LogFilter{Level: level, Logger: logger}
		return followLogs(cmd.Context(), cmd.OutOrStdout(), client, filter)
	}

	page, _ := cmd.Flags().GetInt("page")
	if page < 1 {
		page = 1
	}
	pageSize, _ := cmd.Flags().GetInt("page-size")
	search, _ := cmd.Flags().GetString("search")

	result, err := client.QueryLogs(cmd.Context(), api.LogQuery{
		Page:     page - 1,
		PageSize: pageSize,
		Level:    level,
		Logger:   logger,
		Search:   search,
	})
	if err != nil {
		return fmt.Errorf("querying logs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(result.Entries) == 0 {
		fmt.Fprintln(out, "No log entries match.")
		return nil
	}
	for _, e := range result.Entries {
		fmt.Fprintln(out, formatLogLine(e))
	}
	fmt.Fprintf(out, "Page %d/%d", result.Page+1, result.TotalPages)
	if result.HasNext {
		fmt.Fprintf(out, "  (--page %d for older entries)", page+1)
	}
	fmt.Fprintln(out)
	return nil
}

// followLogs streams log entries until the context is cancelled. Returns
// nil on interrupt.
func followLogs(ctx context.Context, out io.Writer, client *api.Client, filter api.LogFilter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	events, stop := client.SubscribeLogs(ctx, filter)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Err != nil {
				fmt.Fprintf(os.Stderr, "[log stream error: %v - retrying]\n", ev.Err)
				continue
			}
			if !filter.Matches(ev.Entry) {
				continue
			}
			fmt.Fprintln(out, formatLogLine(ev.Entry))
		}
	}
}

func formatLogLine(e api.LogEntry) string {
	return fmt.Sprintf("%s %-7s %-18s %s",
		e.Time.Format("15:04:05"), strings.ToUpper(e.Level), e.Logger, e.Message)
}
