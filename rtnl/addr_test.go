package rtnl

import (
	"net"
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseAddrIPv4(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	ip := net.ParseIP("192.0.2.1").To4()
	enc.RawBytes(ifaAddress, ip)
	enc.RawBytes(ifaLocal, ip)
	enc.String(ifaLabel, "eth0:1")

	b := make([]byte, ifaddrmsgLen)
	b[0] = AFInet
	b[1] = 24

	a, err := parseAddr(nlink.Message{Data: append(b, enc.Bytes()...)}, nil)
	if err != nil {
		t.Fatalf("parseAddr: %v", err)
	}
	if a.Prefixlen != 24 {
		t.Errorf("Prefixlen = %d, want 24", a.Prefixlen)
	}
	if !a.IP.Equal(net.ParseIP("192.0.2.1")) {
		t.Errorf("IP = %v, want 192.0.2.1", a.IP)
	}
	if a.Label != "eth0:1" {
		t.Errorf("Label = %q, want eth0:1", a.Label)
	}
}

func TestAddressFamilyInference(t *testing.T) {
	t.Parallel()

	if got := addressFamily(net.ParseIP("10.0.0.1")); got != AFInet {
		t.Errorf("addressFamily(v4) = %d, want AFInet", got)
	}
	if got := addressFamily(net.ParseIP("2001:db8::1")); got != AFInet6 {
		t.Errorf("addressFamily(v6) = %d, want AFInet6", got)
	}
}
