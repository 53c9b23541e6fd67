package mptcp

import (
	"net"
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseEndpointReplyIPv4(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	tok := enc.NestStart(attrAddr)
	enc.Uint8(addrAttrID, 2)
	enc.RawBytes(addrAttrAddr4, net.ParseIP("192.168.2.1").To4())
	enc.Uint16BE(addrAttrPort, 4343)
	enc.Uint32(addrAttrFlags, FlagSignal|FlagSubflow)
	enc.NestEnd(tok)

	ep, ok, err := parseEndpointReply(enc.Bytes())
	if err != nil {
		t.Fatalf("parseEndpointReply: %v", err)
	}
	if !ok {
		t.Fatal("parseEndpointReply() found = false")
	}
	if ep.ID != 2 || !ep.Address.Equal(net.ParseIP("192.168.2.1")) {
		t.Errorf("parseEndpointReply() = %+v", ep)
	}
	if ep.Port != 4343 {
		t.Errorf("Port = %d, want 4343", ep.Port)
	}
	if !ep.Signal() || !ep.Subflow() || ep.Backup() {
		t.Errorf("flags = %#x: Signal=%v Subflow=%v Backup=%v", ep.Flags, ep.Signal(), ep.Subflow(), ep.Backup())
	}
}

func TestParseEndpointReplyNoAddrAttr(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.Uint32(attrToken, 1)

	_, ok, err := parseEndpointReply(enc.Bytes())
	if err != nil {
		t.Fatalf("parseEndpointReply: %v", err)
	}
	if ok {
		t.Error("parseEndpointReply() found = true, want false")
	}
}

func TestParseLimits(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.Uint32(attrRcvAddAddrs, 8)
	enc.Uint32(attrSubflows, 4)

	l := parseLimits(enc.Bytes())
	if l.RcvAddAddrs != 8 || l.Subflows != 4 {
		t.Errorf("parseLimits() = %+v", l)
	}
}
