// Package incidentcmd implements "watchdog incident list" and
// "watchdog incident inspect".
package incidentcmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"watchdog/cmd/watchdog/cmdutil"
	"watchdog/cmd/watchdog/ui"
)

func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incident",
		Short: "Inspect recorded incidents",
	}
	cmd.AddCommand(listCmd())
	cmd.AddCommand(inspectCmd())
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every recorded incident",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := cmdutil.Connect()
			if err != nil {
				return err
			}

			incidents, err := client.Incidents(cmd.Context())
			if err != nil {
				return err
			}
			if len(incidents) == 0 {
				fmt.Println(ui.SuccessMsg("No incidents recorded"))
				return nil
			}

			rows := make([][]string, 0, len(incidents))
			for _, incident := range incidents {
				rows = append(rows, []string{
					strconv.FormatUint(uint64(incident.ID), 10),
					incident.Message,
					incident.Timestamp,
				})
			}
			fmt.Println(ui.Table([]string{"ID", "Message", "Timestamp"}, rows))
			return nil
		},
	}
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <id>",
		Short: "Show one incident in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid incident id %q", args[0])
			}

			client, err := cmdutil.Connect()
			if err != nil {
				return err
			}

			incident, err := client.Incident(cmd.Context(), uint32(id))
			if err != nil {
				return err
			}

			pairs := []ui.Pair{
				ui.KV("ID", strconv.FormatUint(uint64(incident.ID), 10)),
				ui.KV("Message", incident.Message),
				ui.KV("Timestamp", incident.Timestamp),
			}
			if incident.Error != "" {
				pairs = append(pairs, ui.KV("Error", incident.Error))
			}
			if incident.Details != "" {
				pairs = append(pairs, ui.KV("Details", incident.Details))
			}
			fmt.Print(ui.KeyValues("  ", pairs...))
			return nil
		},
	}
}
