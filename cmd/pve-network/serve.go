package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pve-project/pve-network-go/internal/config"
	"github.com/pve-project/pve-network-go/internal/eventbus"
	"github.com/pve-project/pve-network-go/internal/logging"
)

// newServeCmd runs pve-network as a long-lived process: the event bus
// stays up with a single listener that logs each event's kind, and
// the process blocks until SIGINT/SIGTERM. §1's Non-goals exclude an HTTP/API
// surface, so "serve" is process supervision, not a web server.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a long-lived process reacting to the event bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			log, err := logging.New(logging.Options{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			bus := eventbus.New(8, 256, log)
			defer bus.StopAndWait()

			bus.Subscribe("log", func(ev eventbus.Event) {
				log.Infow("event", "kind", ev.Kind())
			})

			log.Infow("pve-network serve started", "listen_address", cfg.ListenAddress)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			log.Info("shutting down")
			return nil
		},
	}
	return cmd
}
