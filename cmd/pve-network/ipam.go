package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pve-project/pve-network-go/internal/ipam"
)

func newIpamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ipam",
		Short: "Manage built-in IPAM allocations",
	}
	cmd.AddCommand(newIpamAllocateCmd())
	cmd.AddCommand(newIpamReleaseCmd())
	cmd.AddCommand(newIpamListCmd())
	return cmd
}

func builtinAllocator() ipam.Allocator {
	return ipam.NewBuiltinAllocator()
}

func newIpamAllocateCmd() *cobra.Command {
	var subnet, cidr, gateway, wantIP, vmid, hostname string

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate an address from a subnet",
		RunE: func(cmd *cobra.Command, args []string) error {
			alloc, err := builtinAllocator().Allocate(ipam.AllocateRequest{
				Subnet:   subnet,
				CIDR:     cidr,
				Gateway:  gateway,
				WantIP:   wantIP,
				VMID:     vmid,
				Hostname: hostname,
			})
			if err != nil {
				return err
			}
			fmt.Println(alloc.IP)
			return nil
		},
	}
	cmd.Flags().StringVar(&subnet, "subnet", "", "subnet name (required)")
	cmd.Flags().StringVar(&cidr, "cidr", "", "subnet CIDR (required)")
	cmd.Flags().StringVar(&gateway, "gateway", "", "subnet gateway, excluded from allocation")
	cmd.Flags().StringVar(&wantIP, "ip", "", "request a specific address instead of the next free one")
	cmd.Flags().StringVar(&vmid, "vmid", "", "owning VM/CT id, recorded on the allocation")
	cmd.Flags().StringVar(&hostname, "hostname", "", "owning hostname, recorded on the allocation")
	cmd.MarkFlagRequired("subnet")
	cmd.MarkFlagRequired("cidr")
	return cmd
}

func newIpamReleaseCmd() *cobra.Command {
	var subnet, cidr, ip string

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Release a previously allocated address",
		RunE: func(cmd *cobra.Command, args []string) error {
			return builtinAllocator().Release(ipam.ReleaseRequest{
				Subnet: subnet,
				CIDR:   cidr,
				IP:     ip,
			})
		},
	}
	cmd.Flags().StringVar(&subnet, "subnet", "", "subnet name (required)")
	cmd.Flags().StringVar(&cidr, "cidr", "", "subnet CIDR (required)")
	cmd.Flags().StringVar(&ip, "ip", "", "address to release (required)")
	cmd.MarkFlagRequired("subnet")
	cmd.MarkFlagRequired("cidr")
	cmd.MarkFlagRequired("ip")
	return cmd
}

func newIpamListCmd() *cobra.Command {
	var subnet string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List allocations in a subnet",
		RunE: func(cmd *cobra.Command, args []string) error {
			allocations, err := builtinAllocator().List(subnet)
			if err != nil {
				return err
			}
			for _, a := range allocations {
				fmt.Printf("%s\t%s\t%s\n", a.IP, a.VMID, a.Hostname)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&subnet, "subnet", "", "subnet name (required)")
	cmd.MarkFlagRequired("subnet")
	return cmd
}
