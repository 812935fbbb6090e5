// Package servercmd implements "watchdog server", the controller process.
package servercmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"watchdog/cmd/watchdog/ui"
	"watchdog/internal/alert"
	"watchdog/internal/config"
	"watchdog/internal/logging"
	"watchdog/internal/scheduler"
	"watchdog/internal/server"
	"watchdog/internal/store"
)

const shutdownTimeout = 5 * time.Second

func Cmd() *cobra.Command {
	var (
		configPath string
		address    string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the watchdog controller",
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

			conf, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			alerts, err := alert.FromConfig(conf.Alerts)
			if err != nil {
				return fmt.Errorf("configure alerting: %w", err)
			}
			warnUnknownMediums(conf)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return run(ctx, conf, alerts, token, net.JoinHostPort(address, strconv.Itoa(port)))
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "watchdog.yaml", "Path to the controller configuration file")
	cmd.Flags().StringVar(&address, "address", "127.0.0.1", "Address to listen on")
	cmd.Flags().IntVar(&port, "port", 3030, "Port to listen on")
	return cmd
}

func run(ctx context.Context, conf *config.Config, alerts *alert.Manager, token, addr string) error {
	st := store.New(nil)
	for _, region := range conf.Regions {
		var linked []string
		for _, group := range region.Groups {
			linked = append(linked, group.Name)
		}
		st.InitRegion(region.Name, linked)
		for _, group := range region.Groups {
			st.InitGroup(region.Name, group.Name)
		}
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.New(conf, st, alerts, token).Handler(),
	}
	sched := scheduler.NewScheduler(conf, st, alerts, nil)
	drift := scheduler.NewNTPChecker(nil)

	fmt.Println(ui.InfoMsg("Watchdog controller listening on %s", ui.Bold(addr)))
	fmt.Println(ui.Muted(fmt.Sprintf("  regions: %d, configuration version %s", len(conf.Regions), conf.Version)))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := sched.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		drift.Run(ctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Println(ui.SuccessMsg("Controller stopped"))
	return nil
}

// warnUnknownMediums flags groups that route alerts to a medium nothing
// declared; those alerts would fail at incident time.
func warnUnknownMediums(conf *config.Config) {
	for _, region := range conf.Regions {
		for _, group := range region.Groups {
			if group.Medium != "" && !conf.HasAlertEntry(group.Medium) {
				fmt.Println(ui.WarnMsg("group %s.%s routes alerts to unknown medium %q",
					region.Name, group.Name, group.Medium))
			}
		}
	}
}
