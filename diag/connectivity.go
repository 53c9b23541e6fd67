package diag

import (
	"context"
	"fmt"
	"net"

	"github.com/kuuji/nlink/rtnl"
)

// ConnectivityReport is the result of checking reachability of a
// destination address through the current routing and neighbor tables.
type ConnectivityReport struct {
	Dest             net.IP
	Route            *rtnl.Route
	Gateway          net.IP
	GatewayReachable *bool // nil when no gateway applies (directly connected route)
	Issues           []Issue
}

// CheckConnectivity looks up the route the kernel would use to reach
// dest, and — if it goes through a gateway — checks whether that gateway
// is present and reachable in the neighbor cache.
func (d *Diagnostics) CheckConnectivity(ctx context.Context, dest net.IP) (*ConnectivityReport, error) {
	report := &ConnectivityReport{Dest: dest}

	route, err := d.rt.RouteGetByDest(ctx, dest)
	if err != nil {
		report.Issues = append(report.Issues, Issue{
			Severity: Error, Category: "routing",
			Message: fmt.Sprintf("no route to %s", dest),
			Details: err.Error(),
		})
		return report, nil
	}
	report.Route = route
	report.Gateway = route.Gateway

	if route.Gateway == nil {
		return report, nil
	}

	neighbors, err := d.rt.NeighList(ctx, rtnl.ByIndex(route.OifIndex))
	if err != nil {
		return nil, fmt.Errorf("diag: listing neighbors: %w", err)
	}
	reachable := false
	found := false
	for _, n := range neighbors {
		if n.IP.Equal(route.Gateway) {
			found = true
			if n.State&(rtnl.NUDReachable|rtnl.NUDPermanent|rtnl.NUDStale) != 0 {
				reachable = true
			}
			break
		}
	}
	report.GatewayReachable = &reachable
	if !found {
		report.Issues = append(report.Issues, Issue{
			Severity: Warning, Category: "neighbor",
			Message: fmt.Sprintf("gateway %s not present in neighbor cache", route.Gateway),
		})
	} else if !reachable {
		report.Issues = append(report.Issues, Issue{
			Severity: Warning, Category: "neighbor",
			Message: fmt.Sprintf("gateway %s may be unreachable", route.Gateway),
		})
	}

	return report, nil
}
