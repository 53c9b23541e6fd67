package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kuuji/nlink/tc"
	"github.com/kuuji/nlink/tc/options"
)

var qdiscCmd = &cobra.Command{
	Use:   "qdisc",
	Short: "Inspect and modify queueing disciplines",
}

var qdiscListCmd = &cobra.Command{
	Use:   "list <ifindex>",
	Short: "List qdiscs attached to an interface",
	Args:  cobra.ExactArgs(1),
	RunE:  runQdiscList,
}

var qdiscAddCmd = &cobra.Command{
	Use:   "add <ifindex> --kind <htb|fq_codel> [--parent <handle>] [--handle <handle>]",
	Short: "Attach a qdisc to an interface",
	Args:  cobra.ExactArgs(1),
	RunE:  runQdiscAdd,
}

var qdiscDelCmd = &cobra.Command{
	Use:   "del <ifindex> --handle <handle>",
	Short: "Remove a qdisc",
	Args:  cobra.ExactArgs(1),
	RunE:  runQdiscDel,
}

var (
	qdiscKind    string
	qdiscParent  string
	qdiscHandle  string
	htbDefault   uint32
	htbR2Q       uint32
	fqcTarget    uint32
	fqcLimit     uint32
)

func init() {
	qdiscAddCmd.Flags().StringVar(&qdiscKind, "kind", "", "qdisc kind: htb or fq_codel")
	qdiscAddCmd.Flags().StringVar(&qdiscParent, "parent", "root", "parent handle")
	qdiscAddCmd.Flags().StringVar(&qdiscHandle, "handle", "", "handle to assign, e.g. 1:")
	qdiscAddCmd.Flags().Uint32Var(&htbDefault, "htb-default", 0, "htb: minor number of the default class")
	qdiscAddCmd.Flags().Uint32Var(&htbR2Q, "htb-r2q", 0, "htb: rate2quantum")
	qdiscAddCmd.Flags().Uint32Var(&fqcTarget, "fq-codel-target", 0, "fq_codel: target latency in microseconds")
	qdiscAddCmd.Flags().Uint32Var(&fqcLimit, "fq-codel-limit", 0, "fq_codel: queue limit in packets")

	qdiscDelCmd.Flags().StringVar(&qdiscHandle, "handle", "", "handle to remove, e.g. 1:")

	qdiscCmd.AddCommand(qdiscListCmd, qdiscAddCmd, qdiscDelCmd)
}

func parseIfindexArg(s string) (uint32, error) {
	var idx uint32
	if _, err := fmt.Sscanf(s, "%d", &idx); err != nil {
		return 0, fmt.Errorf("invalid ifindex %q: %w", s, err)
	}
	return idx, nil
}

func runQdiscList(cmd *cobra.Command, args []string) error {
	ifindex, err := parseIfindexArg(args[0])
	if err != nil {
		return err
	}

	conn, err := dialTC()
	if err != nil {
		return fmt.Errorf("dialing tc: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	qdiscs, err := conn.QdiscList(ctx, ifindex)
	if err != nil {
		return fmt.Errorf("listing qdiscs: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HANDLE\tPARENT\tKIND\tBACKLOG\tDROPS")
	for _, q := range qdiscs {
		backlog, drops := "-", "-"
		if q.Stats != nil {
			backlog = fmt.Sprintf("%d", q.Stats.Backlog)
			drops = fmt.Sprintf("%d", q.Stats.Drops)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", tc.FormatHandle(q.Handle), tc.FormatHandle(q.Parent), q.Kind, backlog, drops)
	}
	return w.Flush()
}

func buildQdiscOptions() (tc.QdiscOptions, error) {
	switch qdiscKind {
	case tc.QdiscHTB:
		return options.HTB{DefaultClass: htbDefault, Rate2Quantum: htbR2Q}, nil
	case tc.QdiscFQCodel:
		return options.FQCodel{Target: fqcTarget, Limit: fqcLimit}, nil
	case "":
		return nil, fmt.Errorf("--kind is required")
	default:
		return nil, fmt.Errorf("unsupported qdisc kind %q for add (use htb or fq_codel)", qdiscKind)
	}
}

func runQdiscAdd(cmd *cobra.Command, args []string) error {
	ifindex, err := parseIfindexArg(args[0])
	if err != nil {
		return err
	}

	opts, err := buildQdiscOptions()
	if err != nil {
		return err
	}

	parent, err := tc.ParseParent(qdiscParent)
	if err != nil {
		return err
	}
	handle := uint32(0)
	if qdiscHandle != "" {
		handle, err = tc.ParseHandle(qdiscHandle)
		if err != nil {
			return err
		}
	}

	conn, err := dialTC()
	if err != nil {
		return fmt.Errorf("dialing tc: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return conn.QdiscReplace(ctx, tc.QdiscSpec{
		Ifindex: ifindex,
		Handle:  handle,
		Parent:  parent,
		Options: opts,
	})
}

func runQdiscDel(cmd *cobra.Command, args []string) error {
	ifindex, err := parseIfindexArg(args[0])
	if err != nil {
		return err
	}
	if qdiscHandle == "" {
		return fmt.Errorf("--handle is required")
	}
	handle, err := tc.ParseHandle(qdiscHandle)
	if err != nil {
		return err
	}

	conn, err := dialTC()
	if err != nil {
		return fmt.Errorf("dialing tc: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return conn.QdiscDel(ctx, ifindex, handle)
}
