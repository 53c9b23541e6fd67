package rtnl

import (
	"net"
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseRouteWithGateway(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	dst := net.ParseIP("203.0.113.0").To4()
	gw := net.ParseIP("192.0.2.1").To4()
	enc.RawBytes(rtaDst, dst)
	enc.RawBytes(rtaGateway, gw)
	enc.Uint32(rtaOif, 2)
	enc.Uint32(rtaTable, RTTableMain)

	b := make([]byte, rtmsgLen)
	b[0] = AFInet
	b[1] = 24
	b[4] = RTTableMain

	rt, err := parseRoute(nlink.Message{Data: append(b, enc.Bytes()...)}, nil)
	if err != nil {
		t.Fatalf("parseRoute: %v", err)
	}
	if rt.Dst == nil || !rt.Dst.IP.Equal(net.ParseIP("203.0.113.0")) {
		t.Errorf("Dst = %v, want 203.0.113.0/24", rt.Dst)
	}
	ones, _ := rt.Dst.Mask.Size()
	if ones != 24 {
		t.Errorf("Dst mask = /%d, want /24", ones)
	}
	if !rt.Gateway.Equal(net.ParseIP("192.0.2.1")) {
		t.Errorf("Gateway = %v, want 192.0.2.1", rt.Gateway)
	}
	if rt.OifIndex != 2 {
		t.Errorf("OifIndex = %d, want 2", rt.OifIndex)
	}
}

func TestParseMultipathRoundTrip(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	if err := encodeMultipath(nil, nil, enc, []NextHopSpec{
		{Gateway: net.ParseIP("192.0.2.1"), Oif: ByIndex(2), Weight: 1},
		{Gateway: net.ParseIP("192.0.2.2"), Oif: ByIndex(3), Weight: 2},
	}, AFInet); err != nil {
		t.Fatalf("encodeMultipath: %v", err)
	}

	dec := nlink.NewAttributeDecoder(enc.Bytes())
	if !dec.Next() {
		t.Fatal("expected RTA_MULTIPATH attribute")
	}
	hops := parseMultipath(dec.BytesValue(), AFInet)
	if len(hops) != 2 {
		t.Fatalf("len(hops) = %d, want 2", len(hops))
	}
	if hops[0].IfIndex != 2 || hops[1].IfIndex != 3 {
		t.Errorf("hop ifindexes = %d,%d, want 2,3", hops[0].IfIndex, hops[1].IfIndex)
	}
	if hops[0].Weight != 1 || hops[1].Weight != 2 {
		t.Errorf("hop weights = %d,%d, want 1,2", hops[0].Weight, hops[1].Weight)
	}
	if !hops[0].Gateway.Equal(net.ParseIP("192.0.2.1")) {
		t.Errorf("hop[0].Gateway = %v, want 192.0.2.1", hops[0].Gateway)
	}
}
