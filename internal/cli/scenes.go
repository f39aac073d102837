package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tOgg1/dmxctl/internal/api"
)

func newScenesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List and activate bridge scenes",
		Args:  cobra.NoArgs,
		RunE:  runScenesList,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List scenes configured on the bridge",
		Args:  cobra.NoArgs,
		RunE:  runScenesList,
	}

	setCmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Activate a scene by name",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenesSet,
	}

	cmd.AddCommand(listCmd, setCmd)
	return cmd
}

func runScenesList(cmd *cobra.Command, _ []string) error {
	_, client, err := setupCLI(cmd)
	if err != nil {
		return err
	}

	scenes, err := client.Scenes(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing scenes: %w", err)
	}
	if len(scenes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No scenes configured on the bridge.")
		return nil
	}

	headers := []string{"NAME", "DEVICES", "ACTIVE"}
	rows := make([][]string, 0, len(scenes))
	for _, sc := range scenes {
		rows = append(rows, []string{
			sc.Name,
			strconv.Itoa(len(sc.DeviceIDs)),
			formatYesNo(sc.Active),
		})
	}
	return writeTable(cmd.OutOrStdout(), headers, rows)
}

func runScenesSet(cmd *cobra.Command, args []string) error {
	_, client, err := setupCLI(cmd)
	if err != nil {
		return err
	}

	name := args[0]
	if err := client.ActivateScene(cmd.Context(), name); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("no scene named %q", name)
		}
		return fmt.Errorf("activating scene: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Scene %q activated.\n", name)
	return nil
}
