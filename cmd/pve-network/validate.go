package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pve-project/pve-network-go/internal/config"
	"github.com/pve-project/pve-network-go/internal/ifaces"
	"github.com/pve-project/pve-network-go/internal/validate"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an interfaces(5) configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			f, err := os.Open(cfg.InterfacesPath)
			if err != nil {
				return err
			}
			defer f.Close()

			netCfg, err := ifaces.Parse(f)
			if err != nil {
				return err
			}

			result := validate.Configuration(netCfg)
			if result.OK() {
				fmt.Println("configuration valid")
				return nil
			}
			for _, verr := range result.Errors {
				fmt.Fprintln(os.Stderr, verr.Error())
			}
			return fmt.Errorf("%d validation error(s)", len(result.Errors))
		},
	}
	return cmd
}
