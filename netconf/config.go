// Package netconf provides a declarative API for network configuration:
// describe the desired set of links, addresses, routes, and qdiscs and let
// Diff/Apply compute and issue the rtnl/tc calls needed to reach that state.
package netconf

import (
	"net"

	"github.com/kuuji/nlink/rtnl"
	"github.com/kuuji/nlink/tc"
)

// DeclaredLink is a desired network interface.
type DeclaredLink struct {
	Name string
	Spec rtnl.LinkSpec

	MTU    uint32 // 0 leaves the link's current MTU alone
	Up     bool
	Master string // name of the desired master (bridge) device, "" for none
}

// DeclaredAddress is a desired interface address, identified by the pair
// (interface, CIDR).
type DeclaredAddress struct {
	Link  string
	IP    net.IP
	Mask  net.IPMask
	Label string
}

// CIDR renders the address as a net.IPNet for comparison and diagnostics.
func (d DeclaredAddress) CIDR() *net.IPNet {
	return &net.IPNet{IP: d.IP, Mask: d.Mask}
}

// DeclaredRoute is a desired route, identified by the triple
// (destination prefix, table, metric).
type DeclaredRoute struct {
	Dst      *net.IPNet // nil means the default route
	Gateway  net.IP
	Oif      string
	Table    uint32
	Protocol uint8
	Metric   uint32

	Multipath []DeclaredNextHop
}

// DeclaredNextHop is one leg of a declared multipath route.
type DeclaredNextHop struct {
	Gateway net.IP
	Oif     string
	Weight  uint8
}

// DeclaredQdisc is a desired queueing discipline, identified by the triple
// (device, parent, handle).
type DeclaredQdisc struct {
	Device  string
	Parent  uint32
	Handle  uint32
	Options tc.QdiscOptions
}

// NetworkConfig is a declarative description of desired network state:
// the set of links, addresses, routes, and qdiscs that should exist.
// The zero value is an empty configuration.
type NetworkConfig struct {
	links     []DeclaredLink
	addresses []DeclaredAddress
	routes    []DeclaredRoute
	qdiscs    []DeclaredQdisc
}

// New returns an empty configuration.
func New() *NetworkConfig {
	return &NetworkConfig{}
}

// Link adds a declared link. Identity is the link's Name; a later call
// naming the same link replaces the earlier one.
func (c *NetworkConfig) Link(l DeclaredLink) *NetworkConfig {
	for i, existing := range c.links {
		if existing.Name == l.Name {
			c.links[i] = l
			return c
		}
	}
	c.links = append(c.links, l)
	return c
}

// Address adds a declared address. Identity is (Link, CIDR).
func (c *NetworkConfig) Address(a DeclaredAddress) *NetworkConfig {
	for i, existing := range c.addresses {
		if existing.Link == a.Link && sameCIDR(existing.CIDR(), a.CIDR()) {
			c.addresses[i] = a
			return c
		}
	}
	c.addresses = append(c.addresses, a)
	return c
}

// Route adds a declared route. Identity is (Dst, Table, Metric).
func (c *NetworkConfig) Route(r DeclaredRoute) *NetworkConfig {
	for i, existing := range c.routes {
		if sameRouteIdentity(existing, r) {
			c.routes[i] = r
			return c
		}
	}
	c.routes = append(c.routes, r)
	return c
}

// Qdisc adds a declared qdisc. Identity is (Device, Parent, Handle).
func (c *NetworkConfig) Qdisc(q DeclaredQdisc) *NetworkConfig {
	for i, existing := range c.qdiscs {
		if existing.Device == q.Device && existing.Parent == q.Parent && existing.Handle == q.Handle {
			c.qdiscs[i] = q
			return c
		}
	}
	c.qdiscs = append(c.qdiscs, q)
	return c
}

// Links returns the declared links.
func (c *NetworkConfig) Links() []DeclaredLink { return c.links }

// Addresses returns the declared addresses.
func (c *NetworkConfig) Addresses() []DeclaredAddress { return c.addresses }

// Routes returns the declared routes.
func (c *NetworkConfig) Routes() []DeclaredRoute { return c.routes }

// Qdiscs returns the declared qdiscs.
func (c *NetworkConfig) Qdiscs() []DeclaredQdisc { return c.qdiscs }

func sameCIDR(a, b *net.IPNet) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.IP.Equal(b.IP) && a.Mask.String() == b.Mask.String()
}

func routeDst(r DeclaredRoute) string {
	if r.Dst == nil {
		return "default"
	}
	return r.Dst.String()
}

func sameRouteIdentity(a, b DeclaredRoute) bool {
	return routeDst(a) == routeDst(b) && a.Table == b.Table && a.Metric == b.Metric
}
