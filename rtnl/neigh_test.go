package rtnl

import (
	"net"
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseNeighbor(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	ip := net.ParseIP("192.0.2.5").To4()
	mac := net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}
	enc.RawBytes(ndaDst, ip)
	enc.RawBytes(ndaLLAddr, mac)

	b := make([]byte, ndmsgLen)
	b[0] = AFInet

	n, err := parseNeighbor(nlink.Message{Data: append(b, enc.Bytes()...)}, nil)
	if err != nil {
		t.Fatalf("parseNeighbor: %v", err)
	}
	if !n.IP.Equal(net.ParseIP("192.0.2.5")) {
		t.Errorf("IP = %v, want 192.0.2.5", n.IP)
	}
	if n.LLAddr.String() != mac.String() {
		t.Errorf("LLAddr = %v, want %v", n.LLAddr, mac)
	}
}
