package netconf

import (
	"net"
	"testing"

	"github.com/kuuji/nlink/rtnl"
)

func TestNetworkConfigLinkReplacesByName(t *testing.T) {
	t.Parallel()

	cfg := New()
	cfg.Link(DeclaredLink{Name: "br0", Spec: rtnl.LinkSpec{Name: "br0", Kind: rtnl.KindBridge}})
	cfg.Link(DeclaredLink{Name: "br0", Spec: rtnl.LinkSpec{Name: "br0", Kind: rtnl.KindBridge}, Up: true})

	links := cfg.Links()
	if len(links) != 1 {
		t.Fatalf("len(Links()) = %d, want 1", len(links))
	}
	if !links[0].Up {
		t.Error("second Link() call should have replaced the first")
	}
}

func TestNetworkConfigAddressIdentity(t *testing.T) {
	t.Parallel()

	cfg := New()
	ip, ipnet, _ := net.ParseCIDR("192.168.1.1/24")
	cfg.Address(DeclaredAddress{Link: "eth0", IP: ip, Mask: ipnet.Mask})
	cfg.Address(DeclaredAddress{Link: "eth0", IP: ip, Mask: ipnet.Mask, Label: "eth0:1"})

	addrs := cfg.Addresses()
	if len(addrs) != 1 {
		t.Fatalf("len(Addresses()) = %d, want 1", len(addrs))
	}
	if addrs[0].Label != "eth0:1" {
		t.Error("same (link, cidr) should replace, not append")
	}

	ip2, ipnet2, _ := net.ParseCIDR("192.168.2.1/24")
	cfg.Address(DeclaredAddress{Link: "eth0", IP: ip2, Mask: ipnet2.Mask})
	if len(cfg.Addresses()) != 2 {
		t.Fatalf("different CIDR should add a second entry, len = %d", len(cfg.Addresses()))
	}
}

func TestNetworkConfigRouteIdentity(t *testing.T) {
	t.Parallel()

	cfg := New()
	_, dst, _ := net.ParseCIDR("10.0.0.0/8")
	cfg.Route(DeclaredRoute{Dst: dst, Table: 254, Metric: 100, Oif: "eth0"})
	cfg.Route(DeclaredRoute{Dst: dst, Table: 254, Metric: 100, Oif: "eth1"})

	routes := cfg.Routes()
	if len(routes) != 1 || routes[0].Oif != "eth1" {
		t.Fatalf("routes = %+v, want single entry with Oif eth1", routes)
	}

	cfg.Route(DeclaredRoute{Dst: dst, Table: 254, Metric: 200, Oif: "eth0"})
	if len(cfg.Routes()) != 2 {
		t.Fatalf("different metric should add a second route, len = %d", len(cfg.Routes()))
	}
}

func TestNetworkConfigQdiscIdentity(t *testing.T) {
	t.Parallel()

	cfg := New()
	cfg.Qdisc(DeclaredQdisc{Device: "eth0", Parent: 0xFFFFFFFF, Handle: 0x10000})
	cfg.Qdisc(DeclaredQdisc{Device: "eth0", Parent: 0xFFFFFFFF, Handle: 0x10000})
	if len(cfg.Qdiscs()) != 1 {
		t.Fatalf("len(Qdiscs()) = %d, want 1 after re-declaring the same identity", len(cfg.Qdiscs()))
	}
}
