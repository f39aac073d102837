package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tOgg1/dmxctl/internal/api"
)

func newDevicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List and control bridge devices",
		Args:  cobra.NoArgs,
		RunE:  runDevicesList,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List devices known to the bridge",
		Args:  cobra.NoArgs,
		RunE:  runDevicesList,
	}

	cmd.AddCommand(
		listCmd,
		newDevicePowerCmd("on", true),
		newDevicePowerCmd("off", false),
	)
	return cmd
}

func runDevicesList(cmd *cobra.Command, _ []string) error {
	_, client, err := setupCLI(cmd)
	if err != nil {
		return err
	}

	devices, err := client.Devices(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}
	if len(devices) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No devices registered with the bridge.")
		return nil
	}

	headers := []string{"ID", "NAME", "MODEL", "ADDRESS", "UNI/CH", "ONLINE", "STATE"}
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{
			d.ID,
			d.Name,
			d.Model,
			d.Address,
			fmt.Sprintf("%d/%d", d.Universe, d.Channel),
			formatYesNo(d.Online),
			deviceStateCell(d),
		})
	}
	return writeTable(cmd.OutOrStdout(), headers, rows)
}

func deviceStateCell(d api.Device) string {
	switch {
	case !d.Online:
		return "-"
	case !d.Power:
		return "off"
	default:
		return fmt.Sprintf("on %d%% %s", d.Brightness, d.Color)
	}
}

func newDevicePowerCmd(verb string, on bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <device>",
		Short: "Turn a device " + verb,
		Long:  "Turn a device " + verb + ". Accepts a device ID, name, or unique prefix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := setupCLI(cmd)
			if err != nil {
				return err
			}

			d, err := api.ResolveDevice(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			if err := client.SetPower(cmd.Context(), d.ID, on); err != nil {
				return fmt.Errorf("setting power: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Turned %s %s.\n", d.Name, verb)
			return nil
		},
	}
}
