package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuuji/nlink/netconf"
)

var applyCmd = &cobra.Command{
	Use:   "apply <config.toml>",
	Short: "Reconcile live network state against a declarative config file",
	Args:  cobra.ExactArgs(1),
	RunE:  runApply,
}

var (
	applyDryRun          bool
	applyPurge           bool
	applyContinueOnError bool
)

func init() {
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "compute and print the diff without changing anything")
	applyCmd.Flags().BoolVar(&applyPurge, "purge", false, "remove resources observed but not declared")
	applyCmd.Flags().BoolVar(&applyContinueOnError, "continue-on-error", false, "keep applying remaining steps after one fails")
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := netconf.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}

	rt, err := dialRTNL()
	if err != nil {
		return fmt.Errorf("dialing rtnl: %w", err)
	}
	defer rt.Close()

	tcConn, err := dialTC()
	if err != nil {
		return fmt.Errorf("dialing tc: %w", err)
	}
	defer tcConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := cfg.ApplyWithOptions(ctx, rt, tcConn, netconf.ApplyOptions{
		DryRun:          applyDryRun,
		Purge:           applyPurge,
		ContinueOnError: applyContinueOnError,
	})
	if result != nil && result.Diff != nil {
		fmt.Println(result.Diff.Summary())
	}
	if err != nil {
		return fmt.Errorf("applying %s: %w", args[0], err)
	}
	if result != nil {
		fmt.Printf("%d change(s) applied\n", result.ChangesMade)
	}
	return nil
}
