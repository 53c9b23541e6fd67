package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuuji/nlink/rtnl"
)

var addrCmd = &cobra.Command{
	Use:   "addr",
	Short: "Inspect and modify interface addresses",
}

var addrListCmd = &cobra.Command{
	Use:   "list [link]",
	Short: "List addresses, optionally restricted to one link",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAddrList,
}

var addrAddCmd = &cobra.Command{
	Use:   "add <link> <cidr>",
	Short: "Add an address to a link",
	Args:  cobra.ExactArgs(2),
	RunE:  runAddrAdd,
}

var addrDelCmd = &cobra.Command{
	Use:   "del <link> <cidr>",
	Short: "Remove an address from a link",
	Args:  cobra.ExactArgs(2),
	RunE:  runAddrDel,
}

func init() {
	addrCmd.AddCommand(addrListCmd, addrAddCmd, addrDelCmd)
}

func runAddrList(cmd *cobra.Command, args []string) error {
	conn, err := dialRTNL()
	if err != nil {
		return fmt.Errorf("dialing rtnl: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ref := rtnl.InterfaceRef{}
	if len(args) == 1 {
		ref = rtnl.ByName(args[0])
	}

	addrs, err := conn.AddrList(ctx, ref)
	if err != nil {
		return fmt.Errorf("listing addresses: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tADDRESS\tSCOPE\tLABEL")
	for _, a := range addrs {
		fmt.Fprintf(w, "%d\t%s/%d\t%d\t%s\n", a.Index, a.IP, a.Prefixlen, a.Scope, a.Label)
	}
	return w.Flush()
}

func parseCIDRArg(s string) (net.IP, uint8, error) {
	ip, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid CIDR %q: %w", s, err)
	}
	ones, _ := ipnet.Mask.Size()
	return ip, uint8(ones), nil
}

func runAddrAdd(cmd *cobra.Command, args []string) error {
	ip, prefixlen, err := parseCIDRArg(args[1])
	if err != nil {
		return err
	}

	conn, err := dialRTNL()
	if err != nil {
		return fmt.Errorf("dialing rtnl: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return conn.AddrAdd(ctx, rtnl.AddrSpec{
		Link:      rtnl.ByName(args[0]),
		IP:        ip,
		Prefixlen: prefixlen,
	})
}

func runAddrDel(cmd *cobra.Command, args []string) error {
	ip, prefixlen, err := parseCIDRArg(args[1])
	if err != nil {
		return err
	}

	conn, err := dialRTNL()
	if err != nil {
		return fmt.Errorf("dialing rtnl: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return conn.AddrDel(ctx, rtnl.AddrSpec{
		Link:      rtnl.ByName(args[0]),
		IP:        ip,
		Prefixlen: prefixlen,
	})
}
