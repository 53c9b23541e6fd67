package netconf

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/kuuji/nlink/rtnl"
	"github.com/kuuji/nlink/tc"
)

// LinkModification describes an attribute change needed on an existing link.
type LinkModification struct {
	Desired  DeclaredLink
	Observed rtnl.Link

	MTU    bool
	Up     bool
	Master bool
}

// QdiscModification describes an existing qdisc whose options diverge from
// the declared ones and must be replaced.
type QdiscModification struct {
	Desired  DeclaredQdisc
	Observed tc.Qdisc
}

// ConfigDiff is the set of changes needed to move observed network state to
// the state described by a NetworkConfig. Each resource class is computed
// independently: additions are declared resources with no observed
// counterpart, removals are observed resources with no declared
// counterpart (only acted on when pruning is enabled, see ApplyOptions),
// and modifications are resources present in both whose compared
// attributes diverge.
type ConfigDiff struct {
	LinksToAdd     []DeclaredLink
	LinksToModify  []LinkModification
	LinksToRemove  []rtnl.Link

	AddressesToAdd    []DeclaredAddress
	AddressesToRemove []rtnl.Address

	RoutesToAdd    []DeclaredRoute
	RoutesToRemove []rtnl.Route

	QdiscsToAdd    []DeclaredQdisc
	QdiscsToModify []QdiscModification
	QdiscsToRemove []tc.Qdisc
}

// IsEmpty reports whether applying the diff would change anything.
func (d *ConfigDiff) IsEmpty() bool {
	return len(d.LinksToAdd) == 0 && len(d.LinksToModify) == 0 && len(d.LinksToRemove) == 0 &&
		len(d.AddressesToAdd) == 0 && len(d.AddressesToRemove) == 0 &&
		len(d.RoutesToAdd) == 0 && len(d.RoutesToRemove) == 0 &&
		len(d.QdiscsToAdd) == 0 && len(d.QdiscsToModify) == 0 && len(d.QdiscsToRemove) == 0
}

// Summary renders a short human-readable report of the computed changes.
func (d *ConfigDiff) Summary() string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}
	for _, l := range d.LinksToAdd {
		line("+ link %s (%s)", l.Name, l.Spec.Kind)
	}
	for _, l := range d.LinksToModify {
		line("~ link %s", l.Desired.Name)
	}
	for _, l := range d.LinksToRemove {
		line("- link %s", l.Name)
	}
	for _, a := range d.AddressesToAdd {
		line("+ address %s on %s", a.CIDR(), a.Link)
	}
	for _, a := range d.AddressesToRemove {
		line("- address %s/%d on ifindex %d", a.IP, a.Prefixlen, a.Index)
	}
	for _, r := range d.RoutesToAdd {
		line("+ route %s", routeDst(r))
	}
	for _, r := range d.RoutesToRemove {
		line("- route %v", r.Dst)
	}
	for _, q := range d.QdiscsToAdd {
		line("+ qdisc %s on %s", q.Options.Kind(), q.Device)
	}
	for _, q := range d.QdiscsToModify {
		line("~ qdisc %s on ifindex %d", q.Desired.Options.Kind(), q.Observed.Ifindex)
	}
	for _, q := range d.QdiscsToRemove {
		line("- qdisc %s on ifindex %d", q.Kind, q.Ifindex)
	}
	if b.Len() == 0 {
		return "(no changes)"
	}
	return b.String()
}

// Diff fetches current network state through rt and tcConn and compares it
// against the desired configuration, independently per resource class.
func (c *NetworkConfig) Diff(ctx context.Context, rt *rtnl.Conn, tcConn *tc.Conn) (*ConfigDiff, error) {
	diff := &ConfigDiff{}

	observedLinks, err := rt.LinkList(ctx)
	if err != nil {
		return nil, fmt.Errorf("netconf: listing links: %w", err)
	}
	byName := make(map[string]rtnl.Link, len(observedLinks))
	byIndex := make(map[uint32]rtnl.Link, len(observedLinks))
	for _, l := range observedLinks {
		byName[l.Name] = l
		byIndex[l.Index] = l
	}
	declaredNames := make(map[string]bool, len(c.links))
	for _, dl := range c.links {
		declaredNames[dl.Name] = true
		obs, ok := byName[dl.Name]
		if !ok {
			diff.LinksToAdd = append(diff.LinksToAdd, dl)
			continue
		}
		mod := diffLink(dl, obs, byIndex)
		if mod.MTU || mod.Up || mod.Master {
			diff.LinksToModify = append(diff.LinksToModify, mod)
		}
	}
	for _, obs := range observedLinks {
		if !declaredNames[obs.Name] {
			diff.LinksToRemove = append(diff.LinksToRemove, obs)
		}
	}

	observedAddrs, err := rt.AddrList(ctx, rtnl.InterfaceRef{})
	if err != nil {
		return nil, fmt.Errorf("netconf: listing addresses: %w", err)
	}
	declaredAddrKeys := make(map[string]bool, len(c.addresses))
	for _, da := range c.addresses {
		key := addrKey(da.Link, da.CIDR())
		declaredAddrKeys[key] = true
		found := false
		for _, oa := range observedAddrs {
			if ol, ok := byIndex[oa.Index]; ok && ol.Name == da.Link && sameAddr(oa, da) {
				found = true
				break
			}
		}
		if !found {
			diff.AddressesToAdd = append(diff.AddressesToAdd, da)
		}
	}
	for _, oa := range observedAddrs {
		ol, ok := byIndex[oa.Index]
		if !ok {
			continue
		}
		key := addrKey(ol.Name, &net.IPNet{IP: oa.IP, Mask: net.CIDRMask(int(oa.Prefixlen), addrBits(oa.IP))})
		if !declaredAddrKeys[key] {
			diff.AddressesToRemove = append(diff.AddressesToRemove, oa)
		}
	}

	observedRoutes, err := rt.RouteList(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("netconf: listing routes: %w", err)
	}
	declaredRouteKeys := make(map[string]bool, len(c.routes))
	for _, dr := range c.routes {
		declaredRouteKeys[routeIdentityKey(routeDst(dr), dr.Table, dr.Metric)] = true
		found := false
		for _, or := range observedRoutes {
			if sameObservedRoute(dr, or) {
				found = true
				break
			}
		}
		if !found {
			diff.RoutesToAdd = append(diff.RoutesToAdd, dr)
		}
	}
	for _, or := range observedRoutes {
		dst := "default"
		if or.Dst != nil {
			dst = or.Dst.String()
		}
		if !declaredRouteKeys[routeIdentityKey(dst, or.Table, or.Priority)] {
			diff.RoutesToRemove = append(diff.RoutesToRemove, or)
		}
	}

	observedQdiscs, err := tcConn.QdiscList(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("netconf: listing qdiscs: %w", err)
	}
	declaredQdiscKeys := make(map[string]bool, len(c.qdiscs))
	for _, dq := range c.qdiscs {
		ifindex, ok := byName[dq.Device]
		if !ok {
			diff.QdiscsToAdd = append(diff.QdiscsToAdd, dq)
			continue
		}
		key := qdiscIdentityKey(ifindex.Index, dq.Parent, dq.Handle)
		declaredQdiscKeys[key] = true
		var match *tc.Qdisc
		for i := range observedQdiscs {
			oq := observedQdiscs[i]
			if oq.Ifindex == ifindex.Index && oq.Parent == dq.Parent && (dq.Handle == 0 || oq.Handle == dq.Handle) {
				match = &observedQdiscs[i]
				break
			}
		}
		if match == nil {
			diff.QdiscsToAdd = append(diff.QdiscsToAdd, dq)
			continue
		}
		if dq.Options != nil && dq.Options.Kind() != match.Kind {
			diff.QdiscsToModify = append(diff.QdiscsToModify, QdiscModification{Desired: dq, Observed: *match})
		}
	}
	for _, oq := range observedQdiscs {
		ol, ok := byIndex[oq.Ifindex]
		if !ok {
			continue
		}
		if !declaredQdiscKeys[qdiscIdentityKey(oq.Ifindex, oq.Parent, oq.Handle)] {
			_ = ol // device name not needed beyond lookup existing
			diff.QdiscsToRemove = append(diff.QdiscsToRemove, oq)
		}
	}

	return diff, nil
}

func diffLink(dl DeclaredLink, obs rtnl.Link, byIndex map[uint32]rtnl.Link) LinkModification {
	mod := LinkModification{Desired: dl, Observed: obs}
	if dl.MTU != 0 && dl.MTU != obs.MTU {
		mod.MTU = true
	}
	if dl.Up && !obs.Up() {
		mod.Up = true
	}
	if dl.Master != "" {
		master, ok := byIndex[obs.Master]
		if !ok || master.Name != dl.Master {
			mod.Master = true
		}
	}
	return mod
}

func addrKey(link string, cidr *net.IPNet) string {
	return link + "|" + cidr.String()
}

func sameAddr(oa rtnl.Address, da DeclaredAddress) bool {
	return oa.IP.Equal(da.IP) && int(oa.Prefixlen) == maskBits(da.Mask)
}

func maskBits(m net.IPMask) int {
	ones, _ := m.Size()
	return ones
}

func addrBits(ip net.IP) int {
	if ip.To4() != nil {
		return 32
	}
	return 128
}

func routeIdentityKey(dst string, table, metric uint32) string {
	return fmt.Sprintf("%s|%d|%d", dst, table, metric)
}

func sameObservedRoute(dr DeclaredRoute, or rtnl.Route) bool {
	dst := "default"
	if or.Dst != nil {
		dst = or.Dst.String()
	}
	return dst == routeDst(dr) && or.Table == dr.Table && or.Priority == dr.Metric
}

func qdiscIdentityKey(ifindex uint32, parent, handle uint32) string {
	return fmt.Sprintf("%d|%d|%d", ifindex, parent, handle)
}
