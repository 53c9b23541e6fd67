package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuuji/nlink/rtnl"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Inspect and modify network interfaces",
}

var linkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List network interfaces",
	RunE:  runLinkList,
}

var linkSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Bring a link up or down",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkSet,
}

var (
	linkSetUp   bool
	linkSetDown bool
)

func init() {
	linkSetCmd.Flags().BoolVar(&linkSetUp, "up", false, "bring the link up")
	linkSetCmd.Flags().BoolVar(&linkSetDown, "down", false, "bring the link down")
	linkCmd.AddCommand(linkListCmd, linkSetCmd)
}

func runLinkList(cmd *cobra.Command, args []string) error {
	conn, err := dialRTNL()
	if err != nil {
		return fmt.Errorf("dialing rtnl: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	links, err := conn.LinkList(ctx)
	if err != nil {
		return fmt.Errorf("listing links: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tNAME\tKIND\tMTU\tSTATE\tADDRESS")
	for _, l := range links {
		state := "DOWN"
		if l.Up() {
			state = "UP"
		}
		kind := l.Kind
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", l.Index, l.Name, kind, l.MTU, state, l.Address)
	}
	return w.Flush()
}

func runLinkSet(cmd *cobra.Command, args []string) error {
	if linkSetUp == linkSetDown {
		return fmt.Errorf("specify exactly one of --up or --down")
	}

	conn, err := dialRTNL()
	if err != nil {
		return fmt.Errorf("dialing rtnl: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ref := rtnl.ByName(args[0])
	if linkSetUp {
		return conn.LinkSetUp(ctx, ref)
	}
	return conn.LinkSetDown(ctx, ref)
}
