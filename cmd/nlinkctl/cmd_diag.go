package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuuji/nlink/diag"
)

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Run derived diagnostics over live network state",
}

var diagScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan every interface and qdisc for issues",
	RunE:  runDiagScan,
}

var diagConnectivityCmd = &cobra.Command{
	Use:   "connectivity <dest>",
	Short: "Check reachability of a destination through the current routing table",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagConnectivity,
}

var diagBottleneckCmd = &cobra.Command{
	Use:   "bottleneck",
	Short: "Find the single worst-scoring resource constraint",
	RunE:  runDiagBottleneck,
}

func init() {
	diagCmd.AddCommand(diagScanCmd, diagConnectivityCmd, diagBottleneckCmd)
}

func dialDiag() (*diag.Diagnostics, func(), error) {
	rt, err := dialRTNL()
	if err != nil {
		return nil, nil, fmt.Errorf("dialing rtnl: %w", err)
	}
	tcConn, err := dialTC()
	if err != nil {
		rt.Close()
		return nil, nil, fmt.Errorf("dialing tc: %w", err)
	}
	return diag.New(rt, tcConn), func() { rt.Close(); tcConn.Close() }, nil
}

func printIssues(issues []diag.Issue) {
	for _, i := range issues {
		where := i.Interface
		if where == "" {
			where = "-"
		}
		fmt.Printf("[%s] %s %s: %s\n", i.Severity, where, i.Category, i.Message)
	}
}

func runDiagScan(cmd *cobra.Command, args []string) error {
	d, closeFn, err := dialDiag()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	report, err := d.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	for _, ir := range report.Interfaces {
		state := "down"
		if ir.Up {
			state = "up"
		}
		fmt.Printf("%s (%s, mtu %d)\n", ir.Name, state, ir.MTU)
	}
	fmt.Printf("routes: %d ipv4, %d ipv6, default v4=%v v6=%v\n",
		report.Routes.IPv4RouteCount, report.Routes.IPv6RouteCount, report.Routes.HasDefaultV4, report.Routes.HasDefaultV6)
	printIssues(report.Issues)
	return nil
}

func runDiagConnectivity(cmd *cobra.Command, args []string) error {
	dest := net.ParseIP(args[0])
	if dest == nil {
		return fmt.Errorf("invalid destination address %q", args[0])
	}

	d, closeFn, err := dialDiag()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	report, err := d.CheckConnectivity(ctx, dest)
	if err != nil {
		return fmt.Errorf("checking connectivity to %s: %w", dest, err)
	}

	if report.Route != nil {
		fmt.Printf("route via oif=%d gateway=%s\n", report.Route.OifIndex, report.Gateway)
	}
	if report.GatewayReachable != nil {
		fmt.Printf("gateway reachable: %v\n", *report.GatewayReachable)
	}
	printIssues(report.Issues)
	return nil
}

func runDiagBottleneck(cmd *cobra.Command, args []string) error {
	d, closeFn, err := dialDiag()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	b, err := d.FindBottleneck(ctx)
	if err != nil {
		return fmt.Errorf("finding bottleneck: %w", err)
	}
	if b == nil {
		fmt.Println("no bottleneck found")
		return nil
	}
	fmt.Printf("%s at %s (score %.3f): %s\n", b.Type, b.Location, b.Score, b.Recommendation)
	return nil
}
