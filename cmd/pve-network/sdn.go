package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pve-project/pve-network-go/internal/clusterstore"
	"github.com/pve-project/pve-network-go/internal/config"
	"github.com/pve-project/pve-network-go/internal/logging"
	"github.com/pve-project/pve-network-go/internal/model"
	"github.com/pve-project/pve-network-go/internal/sdn/drivers"
	"github.com/pve-project/pve-network-go/internal/sdnstore"
)

func newSdnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sdn",
		Short: "Manage the SDN entity graph (zones/vnets/subnets/controllers)",
	}
	cmd.AddCommand(newSdnRenderCmd())
	return cmd
}

func openSDNStore(cfg *config.Config, log *zap.SugaredLogger) (*sdnstore.Store, error) {
	node, err := os.Hostname()
	if err != nil {
		return nil, err
	}
	cluster, err := clusterstore.New(cfg.ClusterStorePath, node, 128, log)
	if err != nil {
		return nil, err
	}
	return sdnstore.New(cluster, cfg.ClusterStorePath), nil
}

func newSdnRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render every zone and controller's driver artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			log, err := logging.New(logging.Options{Level: cfg.LogLevel})
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			store, err := openSDNStore(cfg, log)
			if err != nil {
				return err
			}

			sdnCfg, err := store.ReadSDNConfig()
			if err != nil {
				return err
			}

			zoneNames := make([]string, 0, len(sdnCfg.Zones))
			for name := range sdnCfg.Zones {
				zoneNames = append(zoneNames, name)
			}
			sort.Strings(zoneNames)

			for _, name := range zoneNames {
				zone := sdnCfg.Zones[name]
				driver, err := drivers.ZoneDriverFor(zone.Kind)
				if err != nil {
					return err
				}

				var zoneVNets []*model.VNet
				for _, v := range sdnCfg.VNets {
					if v.Zone == name {
						zoneVNets = append(zoneVNets, v)
					}
				}
				artifacts, err := driver.Render(zone, zoneVNets)
				if err != nil {
					return fmt.Errorf("render zone %s: %w", name, err)
				}
				printArtifacts("zone:"+name, artifacts)
			}

			ctrlNames := make([]string, 0, len(sdnCfg.Controllers))
			for name := range sdnCfg.Controllers {
				ctrlNames = append(ctrlNames, name)
			}
			sort.Strings(ctrlNames)

			for _, name := range ctrlNames {
				ctrl := sdnCfg.Controllers[name]
				driver, err := drivers.ControllerDriverFor(ctrl.Kind)
				if err != nil {
					return err
				}
				artifacts, err := driver.Render(ctrl)
				if err != nil {
					return fmt.Errorf("render controller %s: %w", name, err)
				}
				printArtifacts("controller:"+name, artifacts)
			}
			return nil
		},
	}
	return cmd
}

func printArtifacts(label string, artifacts drivers.Artifacts) {
	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("=== %s/%s ===\n%s\n", label, name, artifacts[name])
	}
}
