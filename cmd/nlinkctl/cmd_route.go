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

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Inspect and modify the routing table",
}

var routeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List routes across all address families",
	RunE:  runRouteList,
}

var routeGetCmd = &cobra.Command{
	Use:   "get <dest>",
	Short: "Resolve the route the kernel would use for a destination",
	Args:  cobra.ExactArgs(1),
	RunE:  runRouteGet,
}

var routeAddCmd = &cobra.Command{
	Use:   "add <cidr-or-default> --gw <gateway> [--oif <link>]",
	Short: "Add a route",
	Args:  cobra.ExactArgs(1),
	RunE:  runRouteAdd,
}

var routeDelCmd = &cobra.Command{
	Use:   "del <cidr-or-default> --gw <gateway> [--oif <link>]",
	Short: "Remove a route",
	Args:  cobra.ExactArgs(1),
	RunE:  runRouteDel,
}

var (
	routeGateway string
	routeOif     string
)

func init() {
	for _, c := range []*cobra.Command{routeAddCmd, routeDelCmd} {
		c.Flags().StringVar(&routeGateway, "gw", "", "gateway address")
		c.Flags().StringVar(&routeOif, "oif", "", "outgoing interface")
	}
	routeCmd.AddCommand(routeListCmd, routeGetCmd, routeAddCmd, routeDelCmd)
}

func runRouteList(cmd *cobra.Command, args []string) error {
	conn, err := dialRTNL()
	if err != nil {
		return fmt.Errorf("dialing rtnl: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	routes, err := conn.RouteList(ctx, 0)
	if err != nil {
		return fmt.Errorf("listing routes: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DST\tGATEWAY\tOIF\tTABLE\tMETRIC")
	for _, r := range routes {
		dst := "default"
		if r.Dst != nil {
			dst = r.Dst.String()
		}
		gw := "-"
		if r.Gateway != nil {
			gw = r.Gateway.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", dst, gw, r.OifIndex, r.Table, r.Priority)
	}
	return w.Flush()
}

func runRouteGet(cmd *cobra.Command, args []string) error {
	dest := net.ParseIP(args[0])
	if dest == nil {
		return fmt.Errorf("invalid destination address %q", args[0])
	}

	conn, err := dialRTNL()
	if err != nil {
		return fmt.Errorf("dialing rtnl: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	route, err := conn.RouteGetByDest(ctx, dest)
	if err != nil {
		return fmt.Errorf("resolving route to %s: %w", dest, err)
	}

	fmt.Printf("oif=%d gateway=%s table=%d\n", route.OifIndex, route.Gateway, route.Table)
	return nil
}

func parseRouteDst(s string) (*net.IPNet, error) {
	if s == "default" {
		return nil, nil
	}
	_, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		return nil, fmt.Errorf("invalid destination %q: %w", s, err)
	}
	return ipnet, nil
}

func buildRouteSpec(args []string) (rtnl.RouteSpec, error) {
	dst, err := parseRouteDst(args[0])
	if err != nil {
		return rtnl.RouteSpec{}, err
	}
	spec := rtnl.RouteSpec{Dst: dst}
	if routeGateway != "" {
		gw := net.ParseIP(routeGateway)
		if gw == nil {
			return rtnl.RouteSpec{}, fmt.Errorf("invalid gateway %q", routeGateway)
		}
		spec.Gateway = gw
	}
	if routeOif != "" {
		spec.Oif = rtnl.ByName(routeOif)
	}
	return spec, nil
}

func runRouteAdd(cmd *cobra.Command, args []string) error {
	spec, err := buildRouteSpec(args)
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

	return conn.RouteAdd(ctx, spec)
}

func runRouteDel(cmd *cobra.Command, args []string) error {
	spec, err := buildRouteSpec(args)
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

	return conn.RouteDel(ctx, spec)
}
