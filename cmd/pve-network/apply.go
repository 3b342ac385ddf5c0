package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pve-project/pve-network-go/internal/apply"
	"github.com/pve-project/pve-network-go/internal/clusterstore"
	"github.com/pve-project/pve-network-go/internal/config"
	"github.com/pve-project/pve-network-go/internal/eventbus"
	"github.com/pve-project/pve-network-go/internal/executil"
	"github.com/pve-project/pve-network-go/internal/ifaces"
	"github.com/pve-project/pve-network-go/internal/logging"
	"github.com/pve-project/pve-network-go/internal/validate"
)

func newApplyCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply an interfaces(5) configuration through the transaction FSM",
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

			f, err := os.Open(cfg.InterfacesPath)
			if err != nil {
				return err
			}
			newCfg, err := ifaces.Parse(f)
			f.Close()
			if err != nil {
				return err
			}

			node, err := os.Hostname()
			if err != nil {
				return err
			}

			store, err := clusterstore.New(cfg.ClusterStorePath, node, 128, log)
			if err != nil {
				return err
			}

			bus := eventbus.New(4, 64, log)
			defer bus.StopAndWait()

			applier := apply.New(store, executil.CommandRunner{}, bus, node, "/var/log/pve-network/transactions", log)

			if dryRun {
				if result := validate.Configuration(newCfg); !result.OK() {
					return result.Errors
				}
				fmt.Println("dry-run: skipping apply, configuration parsed and ready")
				return nil
			}

			result := applier.Apply(context.Background(), newCfg)
			if !result.Success {
				return fmt.Errorf("apply failed: %s", result.Error)
			}
			fmt.Printf("applied transaction %s (%d change(s)) in %dms\n", result.TransactionID, len(result.AppliedChanges), result.DurationMS)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate without applying")
	return cmd
}
