// Command nlinkctl is an example CLI front-end over the nlink module: a
// thin cobra wrapper around rtnl, tc, netconf, and diag for link,
// address, route, qdisc, config, and diagnostic inspection.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

var (
	globalVerbose   bool
	globalNamespace string
	globalLogger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "nlinkctl",
	Short: "inspect and configure Linux networking via netlink",
	Long: `nlinkctl is an example CLI built on the nlink library. It exercises
the rtnl, tc, netconf, and diag packages: link/address/route/qdisc
inspection, declarative configuration apply, and derived diagnostics.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if globalVerbose {
			level = slog.LevelDebug
		}
		globalLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globalNamespace, "netns", "", "network namespace to operate in (default: current)")

	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(addrCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(qdiscCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the nlinkctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
