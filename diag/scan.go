package diag

import (
	"context"
	"fmt"

	"github.com/kuuji/nlink/rtnl"
	"github.com/kuuji/nlink/tc"
)

// InterfaceReport is one interface's state, statistics, and issues.
type InterfaceReport struct {
	Name    string
	Up      bool
	MTU     uint32
	Kind    string
	Stats   *rtnl.LinkStats
	Qdiscs  []QdiscReport
	Issues  []Issue
}

// QdiscReport is one qdisc attached to the scanned interface.
type QdiscReport struct {
	Kind   string
	Handle uint32
	Parent uint32
	Stats  *tc.Stats
}

// RouteSummary is a coarse summary of the routing table.
type RouteSummary struct {
	IPv4RouteCount int
	IPv6RouteCount int
	HasDefaultV4   bool
	HasDefaultV6   bool
	Gateways       []string
}

// ScanReport is the result of a full diagnostic scan.
type ScanReport struct {
	Interfaces []InterfaceReport
	Routes     RouteSummary
	Issues     []Issue
}

// Scan inspects every interface, its qdiscs, and the routing table, and
// returns per-interface and global issues.
func (d *Diagnostics) Scan(ctx context.Context) (*ScanReport, error) {
	links, err := d.rt.LinkList(ctx)
	if err != nil {
		return nil, fmt.Errorf("diag: listing links: %w", err)
	}
	qdiscs, err := d.tc.QdiscList(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("diag: listing qdiscs: %w", err)
	}
	routes, err := d.rt.RouteList(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("diag: listing routes: %w", err)
	}

	report := &ScanReport{}
	for _, l := range links {
		if d.cfg.SkipLoopback && isLoopback(l) {
			continue
		}
		if d.cfg.SkipDown && !l.Up() {
			continue
		}
		ir := InterfaceReport{Name: l.Name, Up: l.Up(), MTU: l.MTU, Kind: l.Kind, Stats: l.Stats}
		for _, q := range qdiscs {
			if q.Ifindex == l.Index {
				ir.Qdiscs = append(ir.Qdiscs, QdiscReport{Kind: q.Kind, Handle: q.Handle, Parent: q.Parent, Stats: q.Stats})
			}
		}
		ir.Issues = d.interfaceIssues(l, ir)
		report.Issues = append(report.Issues, ir.Issues...)
		report.Interfaces = append(report.Interfaces, ir)
	}

	for _, r := range routes {
		if r.Family == rtnl.AFInet {
			report.Routes.IPv4RouteCount++
			if r.Dst == nil {
				report.Routes.HasDefaultV4 = true
			}
		} else {
			report.Routes.IPv6RouteCount++
			if r.Dst == nil {
				report.Routes.HasDefaultV6 = true
			}
		}
		if r.Gateway != nil {
			report.Routes.Gateways = append(report.Routes.Gateways, r.Gateway.String())
		}
	}
	if !report.Routes.HasDefaultV4 && !report.Routes.HasDefaultV6 {
		report.Issues = append(report.Issues, Issue{
			Severity: Warning,
			Category: "routing",
			Message:  "no default route configured",
		})
	}

	return report, nil
}

func (d *Diagnostics) interfaceIssues(l rtnl.Link, ir InterfaceReport) []Issue {
	var issues []Issue
	if !l.Up() {
		return issues
	}
	if s := l.Stats; s != nil {
		total := s.RxPackets + s.TxPackets
		if total >= d.cfg.MinBytesForRate {
			if rate := errRate(s.RxErrors+s.TxErrors, total); rate > d.cfg.ErrorRateThreshold {
				issues = append(issues, Issue{
					Severity: Error, Category: "hardware", Interface: l.Name,
					Message: fmt.Sprintf("error rate %s exceeds threshold", fmtPercent(rate)),
				})
			}
			if rate := errRate(s.RxDropped+s.TxDropped, total); rate > d.cfg.PacketLossThreshold {
				issues = append(issues, Issue{
					Severity: Warning, Category: "drops", Interface: l.Name,
					Message: fmt.Sprintf("packet loss %s exceeds threshold", fmtPercent(rate)),
				})
			}
		}
	}
	for _, q := range ir.Qdiscs {
		if q.Stats == nil {
			continue
		}
		if q.Stats.Backlog > d.cfg.BacklogThreshold {
			issues = append(issues, Issue{
				Severity: Warning, Category: "qdisc", Interface: l.Name,
				Message: fmt.Sprintf("qdisc %s backlog %d bytes exceeds threshold", q.Kind, q.Stats.Backlog),
			})
		}
		if q.Stats.Qlen > d.cfg.QlenThreshold {
			issues = append(issues, Issue{
				Severity: Warning, Category: "qdisc", Interface: l.Name,
				Message: fmt.Sprintf("qdisc %s queue length %d exceeds threshold", q.Kind, q.Stats.Qlen),
			})
		}
		if rate := errRate(uint64(q.Stats.Drops), uint64(q.Stats.Packets)); rate > d.cfg.QdiscDropThreshold {
			issues = append(issues, Issue{
				Severity: Error, Category: "qdisc", Interface: l.Name,
				Message: fmt.Sprintf("qdisc %s drop rate %s exceeds threshold", q.Kind, fmtPercent(rate)),
			})
		}
	}
	return issues
}
