package wireguard

import (
	"net"
	"testing"
	"time"

	"github.com/kuuji/nlink"
)

func TestParseDeviceBasicAttributes(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.Uint32(devIfindex, 3)
	enc.String(devIfname, "wg0")
	enc.Uint16(devListenPort, 51820)

	d, err := parseDevice(enc.Bytes())
	if err != nil {
		t.Fatalf("parseDevice: %v", err)
	}
	if d.Name != "wg0" || d.Ifindex != 3 || d.ListenPort != 51820 {
		t.Errorf("parseDevice() = %+v", d)
	}
}

func TestParseDeviceWithPeerAndAllowedIPs(t *testing.T) {
	t.Parallel()

	var pub Key
	pub[0] = 0xAB

	enc := nlink.NewAttributeEncoder()
	enc.String(devIfname, "wg0")
	ptok := enc.NestStart(devPeers)
	peerTok := enc.NestStart(1)
	enc.RawBytes(peerPublicKey, pub[:])
	enc.Uint16(peerPersistentKeepaliveInterval, 25)
	atok := enc.NestStart(peerAllowedIPs)
	ipTok := enc.NestStart(1)
	enc.RawBytes(allowedipIPAddr, net.ParseIP("10.0.0.0").To4())
	enc.Uint8(allowedipCIDRMask, 24)
	enc.NestEnd(ipTok)
	enc.NestEnd(atok)
	enc.NestEnd(peerTok)
	enc.NestEnd(ptok)

	d, err := parseDevice(enc.Bytes())
	if err != nil {
		t.Fatalf("parseDevice: %v", err)
	}
	if len(d.Peers) != 1 {
		t.Fatalf("Peers = %d, want 1", len(d.Peers))
	}
	p := d.Peers[0]
	if p.PublicKey != pub {
		t.Errorf("PublicKey = %x, want %x", p.PublicKey, pub)
	}
	if p.PersistentKeepaliveInterval != 25*time.Second {
		t.Errorf("PersistentKeepaliveInterval = %v, want 25s", p.PersistentKeepaliveInterval)
	}
	if len(p.AllowedIPs) != 1 || p.AllowedIPs[0].Mask != 24 {
		t.Fatalf("AllowedIPs = %+v", p.AllowedIPs)
	}
	if !p.AllowedIPs[0].IP.Equal(net.ParseIP("10.0.0.0")) {
		t.Errorf("AllowedIPs[0].IP = %v, want 10.0.0.0", p.AllowedIPs[0].IP)
	}
}

func TestEncodeSockaddrV4RoundTrip(t *testing.T) {
	t.Parallel()

	addr := &net.UDPAddr{IP: net.ParseIP("203.0.113.5").To4(), Port: 51820}
	got := decodeSockaddr(encodeSockaddr(addr))
	if got == nil || got.Port != addr.Port || !got.IP.Equal(addr.IP) {
		t.Errorf("decodeSockaddr(encodeSockaddr(%v)) = %v", addr, got)
	}
}

func TestEncodeSockaddrV6RoundTrip(t *testing.T) {
	t.Parallel()

	addr := &net.UDPAddr{IP: net.ParseIP("2001:db8::1"), Port: 443}
	got := decodeSockaddr(encodeSockaddr(addr))
	if got == nil || got.Port != addr.Port || !got.IP.Equal(addr.IP) {
		t.Errorf("decodeSockaddr(encodeSockaddr(%v)) = %v", addr, got)
	}
}

func TestDecodeTimespec64Short(t *testing.T) {
	t.Parallel()

	if got := decodeTimespec64([]byte{1, 2, 3}); !got.IsZero() {
		t.Errorf("decodeTimespec64(short) = %v, want zero", got)
	}
}
