// Package statuscmd implements "watchdog status", the analytics snapshot view.
package statuscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"watchdog/cmd/watchdog/cmdutil"
	"watchdog/cmd/watchdog/ui"
)

func Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of every region and group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := cmdutil.Connect()
			if err != nil {
				return err
			}

			summary, err := client.Analytics(cmd.Context())
			if err != nil {
				return err
			}

			regionRows := make([][]string, 0, len(summary.Regions))
			for _, region := range summary.Regions {
				regionRows = append(regionRows, []string{
					region.Name, ui.Status(region.Status), region.LastUpdate,
				})
			}
			fmt.Println(ui.Bold("Regions"))
			fmt.Println(ui.Table([]string{"Name", "Status", "Last update"}, regionRows))

			groupRows := make([][]string, 0, len(summary.Groups))
			for _, group := range summary.Groups {
				groupRows = append(groupRows, []string{
					group.Name, ui.Status(group.Status), group.LastUpdate, group.LastError,
				})
			}
			fmt.Println(ui.Bold("Groups"))
			fmt.Println(ui.Table([]string{"Name", "Status", "Last update", "Last error"}, groupRows))

			if n := len(summary.Incidents); n > 0 {
				fmt.Println(ui.WarnMsg("%d recorded incident(s) — see 'watchdog incident list'", n))
			}
			return nil
		},
	}
}
