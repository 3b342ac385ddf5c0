package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// version, gitCommit and buildDate are overridden at build time via
// -ldflags, the same convention the teacher's pkg/cli/version uses.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

type buildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
}

// newVersionCmd prints pve-network's build signature. Adapted from the
// teacher's pkg/cli/version.NewCommand, dropping its dependency on
// pkg/version in favor of package-level vars set through -ldflags.
func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the pve-network build signature",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildInfo{Version: version, GitCommit: gitCommit, BuildDate: buildDate}
			if asJSON {
				b, err := json.Marshal(info)
				if err != nil {
					return err
				}
				fmt.Println(string(b))
				return nil
			}
			fmt.Printf("%-10s: %s\n", "Version", info.Version)
			fmt.Printf("%-10s: %s\n", "Commit", info.GitCommit)
			fmt.Printf("%-10s: %s\n", "Built", info.BuildDate)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print build info as JSON")
	return cmd
}
