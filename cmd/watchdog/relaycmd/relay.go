// Package relaycmd implements "watchdog relay", the probe agent process.
package relaycmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"watchdog/cmd/watchdog/ui"
	"watchdog/internal/logging"
	"watchdog/internal/probe"
	"watchdog/internal/relay"
)

func Cmd() *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run a relay probing its region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The CLI default is warn; a daemon logs at info.
			if debug, _ := cmd.Flags().GetBool("debug"); !debug {
				if err := logging.Configure(logging.LevelInfo); err != nil {
					return err
				}
			}

			token := os.Getenv("WATCHDOG_TOKEN")
			if token == "" {
				return fmt.Errorf("WATCHDOG_TOKEN is not set")
			}
			addr := os.Getenv("WATCHDOG_ADDR")
			if addr == "" {
				return fmt.Errorf("WATCHDOG_ADDR is not set")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			fmt.Println(ui.InfoMsg("Starting relay for region %s", ui.Bold(region)))

			client := relay.NewClient(addr, token)
			err := relay.New(client, probe.NewRunner(), region).Run(ctx)
			if errors.Is(err, context.Canceled) {
				fmt.Println(ui.SuccessMsg("Relay stopped"))
				return nil
			}

			fmt.Fprintln(os.Stderr, ui.ErrorMsg("Could not fetch configuration from server"))
			fmt.Fprintln(os.Stderr, ui.Muted("  Check your token and region name"))
			return err
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "Region this relay reports for")
	cmd.MarkFlagRequired("region")
	return cmd
}
