// Package alertingcmd implements "watchdog alerting test".
package alertingcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"watchdog/cmd/watchdog/cmdutil"
	"watchdog/cmd/watchdog/ui"
)

func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerting",
		Short: "Manage alerting mediums",
	}
	cmd.AddCommand(testCmd())
	return cmd
}

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test message through every configured medium",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := cmdutil.Connect()
			if err != nil {
				return err
			}

			resp, err := client.TestAlerts(cmd.Context())
			if err != nil {
				return err
			}
			if !resp.AlertsSent {
				return fmt.Errorf("alert test failed: %s", resp.Error)
			}

			fmt.Println(ui.SuccessMsg("Test alerts sent to all configured mediums"))
			return nil
		},
	}
}
