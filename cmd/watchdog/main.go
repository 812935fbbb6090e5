package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"watchdog/cmd/watchdog/alertingcmd"
	"watchdog/cmd/watchdog/incidentcmd"
	"watchdog/cmd/watchdog/relaycmd"
	"watchdog/cmd/watchdog/servercmd"
	"watchdog/cmd/watchdog/statuscmd"
	"watchdog/internal/logging"
)

func main() {
	var debug bool

	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "watchdog",
		Short:         "Distributed network health monitoring",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelWarn
			if debug {
				level = logging.LevelDebug
			}
			return logging.Configure(level)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(servercmd.Cmd())
	root.AddCommand(relaycmd.Cmd())
	root.AddCommand(statuscmd.Cmd())
	root.AddCommand(incidentcmd.Cmd())
	root.AddCommand(alertingcmd.Cmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
