package rtnl

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseLinkBasicAttributes(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.String(iflaIfname, "eth0")
	enc.Uint32(iflaMTU, 1500)
	mac := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	enc.RawBytes(iflaAddress, mac)

	msg := nlink.Message{Data: append(ifinfomsg(AFUnspec, 0, 3, IFFUp), enc.Bytes()...)}

	l, err := parseLink(msg, nil)
	if err != nil {
		t.Fatalf("parseLink: %v", err)
	}
	if l.Name != "eth0" {
		t.Errorf("Name = %q, want eth0", l.Name)
	}
	if l.MTU != 1500 {
		t.Errorf("MTU = %d, want 1500", l.MTU)
	}
	if l.Index != 3 {
		t.Errorf("Index = %d, want 3", l.Index)
	}
	if !l.Up() {
		t.Errorf("Up() = false, want true (IFF_UP set)")
	}
	if mac.String() != l.Address.String() {
		t.Errorf("Address = %v, want %v", l.Address, mac)
	}
}

func TestParseLinkStats64(t *testing.T) {
	t.Parallel()

	stats := make([]byte, 64)
	binary.LittleEndian.PutUint64(stats[0:8], 1000)   // rx_packets
	binary.LittleEndian.PutUint64(stats[16:24], 5000)  // rx_bytes
	binary.LittleEndian.PutUint64(stats[48:56], 7)     // rx_dropped

	enc := nlink.NewAttributeEncoder()
	enc.RawBytes(iflaStats64, stats)

	msg := nlink.Message{Data: append(ifinfomsg(AFUnspec, 0, 3, 0), enc.Bytes()...)}
	l, err := parseLink(msg, nil)
	if err != nil {
		t.Fatalf("parseLink: %v", err)
	}
	if l.Stats == nil {
		t.Fatal("Stats = nil, want a decoded LinkStats")
	}
	if l.Stats.RxPackets != 1000 || l.Stats.RxBytes != 5000 || l.Stats.RxDropped != 7 {
		t.Errorf("Stats = %+v", l.Stats)
	}
}

func TestParseLinkKindFromLinkinfo(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.String(iflaIfname, "br0")
	tok := enc.NestStart(iflaLinkinfo)
	enc.String(iflaInfoKind, KindBridge)
	enc.NestEnd(tok)

	msg := nlink.Message{Data: append(ifinfomsg(AFUnspec, 0, 7, 0), enc.Bytes()...)}

	l, err := parseLink(msg, nil)
	if err != nil {
		t.Fatalf("parseLink: %v", err)
	}
	if l.Kind != KindBridge {
		t.Errorf("Kind = %q, want %q", l.Kind, KindBridge)
	}
}

func TestParseLinkShortMessage(t *testing.T) {
	t.Parallel()

	_, err := parseLink(nlink.Message{Data: []byte{1, 2, 3}}, nil)
	if err == nil {
		t.Fatal("expected an error for a truncated ifinfomsg")
	}
}

func TestInterfaceRefResolveSkipsRoundTripWhenIndexed(t *testing.T) {
	t.Parallel()

	ref := ByIndex(9)
	index, err := ref.Resolve(nil, nil) // nil Conn is never touched for an index-based ref
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if index != 9 {
		t.Errorf("index = %d, want 9", index)
	}
}

func TestInterfaceRefString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ref  InterfaceRef
		want string
	}{
		{ByName("eth0"), "eth0"},
		{ByIndex(4), "4"},
		{InterfaceRef{}, "<unset>"},
	}
	for _, c := range cases {
		if got := c.ref.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
