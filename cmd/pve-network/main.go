// Command pve-network is the SDN network control-plane CLI: validate
// and apply interfaces(5) configurations, manage IPAM allocations,
// render SDN driver artifacts, and run as a long-lived process that
// reacts to the event bus. Grounded on Cray-HPE-cray-site-init's
// root.go/Execute() entrypoint convention, generalized from a single
// global viper/cobra pair to an explicit *config.Config threaded into
// each subcommand's RunE.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pve-network",
	Short: "SDN network control-plane for Proxmox VE nodes",
	Long: `pve-network validates and applies interfaces(5) configurations,
manages IPAM allocations, renders SDN zone/controller driver artifacts,
and binds container/storage network integrations.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default /etc/pve/network.yaml)")
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newIpamCmd())
	rootCmd.AddCommand(newSdnCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
