package netconf

import (
	"net"
	"testing"

	"github.com/kuuji/nlink/rtnl"
)

func TestDiffLinkDetectsMTUAndUpChanges(t *testing.T) {
	t.Parallel()

	desired := DeclaredLink{Name: "eth0", MTU: 9000, Up: true}
	observed := rtnl.Link{Index: 2, Name: "eth0", MTU: 1500, Flags: 0}

	mod := diffLink(desired, observed, map[uint32]rtnl.Link{2: observed})
	if !mod.MTU {
		t.Error("expected MTU change to be detected")
	}
	if !mod.Up {
		t.Error("expected Up change to be detected")
	}
	if mod.Master {
		t.Error("no master declared, should not flag a master change")
	}
}

func TestDiffLinkMasterMismatch(t *testing.T) {
	t.Parallel()

	br0 := rtnl.Link{Index: 3, Name: "br0"}
	eth0 := rtnl.Link{Index: 2, Name: "eth0", Master: 0}
	byIndex := map[uint32]rtnl.Link{2: eth0, 3: br0}

	desired := DeclaredLink{Name: "eth0", Master: "br0"}
	mod := diffLink(desired, eth0, byIndex)
	if !mod.Master {
		t.Error("expected master mismatch to be detected when link has no master set")
	}

	eth0.Master = 3
	byIndex[2] = eth0
	mod = diffLink(desired, eth0, byIndex)
	if mod.Master {
		t.Error("master matches br0, should not be flagged")
	}
}

func TestSameAddr(t *testing.T) {
	t.Parallel()

	ip, ipnet, _ := net.ParseCIDR("10.0.0.1/24")
	observed := rtnl.Address{IP: ip, Prefixlen: 24}
	declared := DeclaredAddress{IP: ip, Mask: ipnet.Mask}
	if !sameAddr(observed, declared) {
		t.Error("identical address should match")
	}

	declared.Mask = net.CIDRMask(16, 32)
	if sameAddr(observed, declared) {
		t.Error("different prefix length should not match")
	}
}

func TestRouteIdentityKey(t *testing.T) {
	t.Parallel()

	a := routeIdentityKey("10.0.0.0/8", 254, 100)
	b := routeIdentityKey("10.0.0.0/8", 254, 100)
	c := routeIdentityKey("10.0.0.0/8", 254, 200)
	if a != b {
		t.Error("identical identity should produce the same key")
	}
	if a == c {
		t.Error("different metric should produce a different key")
	}
}

func TestConfigDiffSummaryEmpty(t *testing.T) {
	t.Parallel()

	d := &ConfigDiff{}
	if !d.IsEmpty() {
		t.Error("zero-value diff should be empty")
	}
	if d.Summary() != "(no changes)" {
		t.Errorf("Summary() = %q", d.Summary())
	}
}
