package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/dmxctl/internal/api"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show bridge status",
		Long: "Show a bridge status snapshot: uptime, device summary, and Art-Net\n" +
			"transmit statistics. With --watch, refresh until interrupted.",
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
	cmd.Flags().Duration("watch", 0, "Refresh at this interval until interrupted (e.g. 2s)")
	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	_, client, err := setupCLI(cmd)
	if err != nil {
		return err
	}

	interval, _ := cmd.Flags().GetDuration("watch")
	if interval <= 0 {
		snapshot, err := client.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("querying status: %w", err)
		}
		return writeStatus(cmd.OutOrStdout(), snapshot)
	}
	if interval < 500*time.Millisecond {
		interval = 500 * time.Millisecond
	}
	return watchStatus(cmd.Context(), cmd.OutOrStdout(), client, interval)
}

// watchStatus polls the bridge until the context is cancelled. Returns nil
// on interrupt.
func watchStatus(ctx context.Context, out io.Writer, client *api.Client, interval time.Duration) error {
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

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snapshot, err := client.Status(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			fmt.Fprintf(out, "[status query failed: %v]\n", err)
		default:
			if err := writeStatus(out, snapshot); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, "---")

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func writeStatus(out io.Writer, s api.StatusSnapshot) error {
	uptime := time.Duration(s.UptimeSeconds * float64(time.Second)).Truncate(time.Second)
	fmt.Fprintf(out, "Bridge %s  up %s\n", s.Version, uptime)

	online, powered := 0, 0
	for _, d := range s.Devices {
		if d.Online {
			online++
		}
		if d.Power {
			powered++
		}
	}
	fmt.Fprintf(out, "Devices: %d total, %d online, %d powered\n", len(s.Devices), online, powered)

	if len(s.Devices) > 0 {
		headers := []string{"NAME", "ONLINE", "STATE", "LAST SEEN"}
		rows := make([][]string, 0, len(s.Devices))
		for _, d := range s.Devices {
			rows = append(rows, []string{
				d.Name,
				formatYesNo(d.Online),
				deviceStatusCell(d),
				d.LastSeen.Format("15:04:05"),
			})
		}
		if err := writeTable(out, headers, rows); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Art-Net: %d universe(s)  %.1f pkt/s  %.1f fps  %d packets  %d dropped\n",
		s.ArtNet.Universes, s.ArtNet.PacketsPerSecond, s.ArtNet.FramesPerSecond,
		s.ArtNet.PacketsTotal, s.ArtNet.DroppedFrames)
	return nil
}

func deviceStatusCell(d api.DeviceStatus) string {
	switch {
	case !d.Online:
		return "-"
	case !d.Power:
		return "off"
	default:
		return fmt.Sprintf("on %d%%", d.Brightness)
	}
}
