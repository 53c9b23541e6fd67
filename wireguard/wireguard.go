// Package wireguard implements the WireGuard Generic Netlink family
// (family name "wireguard"): device and peer configuration get/set, the
// first of the Generic Netlink families spec.md §4.6 names.
package wireguard

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/kuuji/nlink"
	"github.com/kuuji/nlink/genetlink"
)

const familyName = "wireguard"

// WG_CMD_* commands.
const (
	cmdGetDevice = 0
	cmdSetDevice = 1
)

// WGDEVICE_A_* device attributes.
const (
	devIfindex    = 1
	devIfname     = 2
	devPrivateKey = 3
	devPublicKey  = 4
	devFlags      = 5
	devListenPort = 6
	devFwmark     = 7
	devPeers      = 8
)

// WGPEER_A_* peer attributes.
const (
	peerPublicKey                   = 1
	peerPresharedKey                 = 2
	peerFlags                        = 3
	peerEndpoint                     = 4
	peerPersistentKeepaliveInterval  = 5
	peerLastHandshakeTime            = 6
	peerRxBytes                      = 7
	peerTxBytes                      = 8
	peerAllowedIPs                   = 9
	peerProtocolVersion              = 10
)

// WGALLOWEDIP_A_* attributes.
const (
	allowedipFamily   = 1
	allowedipIPAddr   = 2
	allowedipCIDRMask = 3
)

// WGDEVICE_F_* and WGPEER_F_* flags.
const (
	deviceFlagReplacePeers = 1 << 0

	peerFlagRemoveMe          = 1 << 0
	peerFlagReplaceAllowedIPs = 1 << 1
)

// KeyLen is the length of a Curve25519 key, used for both private and
// public WireGuard keys and for the preshared key.
const KeyLen = 32

// Key is a WireGuard Curve25519 key.
type Key [KeyLen]byte

// AllowedIP is one CIDR a peer may originate traffic from and that traffic
// may be routed to it for.
type AllowedIP struct {
	IP   net.IP
	Mask uint8
}

// Peer is a parsed WireGuard peer.
type Peer struct {
	PublicKey                   Key
	PresharedKey                 Key
	Endpoint                     *net.UDPAddr
	PersistentKeepaliveInterval  time.Duration
	LastHandshakeTime            time.Time
	ReceiveBytes                 uint64
	TransmitBytes                uint64
	AllowedIPs                   []AllowedIP

	// Remove, when set on a peer passed to ConfigureDevice, deletes the
	// peer instead of creating/updating it.
	Remove bool
}

// Device is a parsed WireGuard device configuration.
type Device struct {
	Ifindex    uint32
	Name       string
	PrivateKey Key
	PublicKey  Key
	ListenPort uint16
	FwMark     uint32
	Peers      []Peer
}

// Conn is a WireGuard configuration connection over Generic Netlink.
type Conn struct {
	genl   *genetlink.Conn
	family genetlink.Family
}

// Dial resolves the "wireguard" family and returns a ready Conn.
func Dial(ctx context.Context) (*Conn, error) {
	genl, err := genetlink.Dial()
	if err != nil {
		return nil, err
	}
	family, err := genl.ResolveFamily(ctx, familyName)
	if err != nil {
		genl.Close()
		return nil, fmt.Errorf("wireguard: resolving family (is the kernel module loaded?): %w", err)
	}
	return &Conn{genl: genl, family: family}, nil
}

// Close releases the underlying Generic Netlink connection.
func (c *Conn) Close() error { return c.genl.Close() }

// Device fetches a device's full configuration by name. A device with many
// peers spans multiple genl dump replies; Device reassembles them.
func (c *Conn) Device(ctx context.Context, name string) (*Device, error) {
	enc := nlink.NewAttributeEncoder()
	enc.String(devIfname, name)

	var d *Device
	err := c.genl.Dump(ctx, c.family, genetlink.Header{Command: cmdGetDevice}, enc.Bytes(), func(payload []byte) error {
		part, err := parseDevice(payload)
		if err != nil {
			return err
		}
		if d == nil {
			d = part
		} else {
			d.Peers = append(d.Peers, part.Peers...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("wireguard: device %q not found", name)
	}
	return d, nil
}

// ConfigureDevice pushes a device configuration. replacePeers replaces the
// kernel's existing peer list wholesale instead of merging into it.
func (c *Conn) ConfigureDevice(ctx context.Context, name string, cfg Device, replacePeers bool) error {
	enc := nlink.NewAttributeEncoder()
	enc.String(devIfname, name)
	if cfg.PrivateKey != (Key{}) {
		enc.RawBytes(devPrivateKey, cfg.PrivateKey[:])
	}
	if cfg.ListenPort != 0 {
		enc.Uint16(devListenPort, cfg.ListenPort)
	}
	if cfg.FwMark != 0 {
		enc.Uint32(devFwmark, cfg.FwMark)
	}
	if replacePeers {
		enc.Uint32(devFlags, deviceFlagReplacePeers)
	}
	if len(cfg.Peers) > 0 {
		encodePeers(enc, cfg.Peers)
	}

	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdSetDevice}, enc.Bytes())
	return err
}

func encodePeers(enc *nlink.AttributeEncoder, peers []Peer) {
	ptok := enc.NestStart(devPeers)
	for i, p := range peers {
		tok := enc.NestStart(uint16(i + 1))
		enc.RawBytes(peerPublicKey, p.PublicKey[:])
		if p.Remove {
			enc.Uint32(peerFlags, peerFlagRemoveMe)
			enc.NestEnd(tok)
			continue
		}
		if p.PresharedKey != (Key{}) {
			enc.RawBytes(peerPresharedKey, p.PresharedKey[:])
		}
		if p.Endpoint != nil {
			enc.RawBytes(peerEndpoint, encodeSockaddr(p.Endpoint))
		}
		if p.PersistentKeepaliveInterval != 0 {
			enc.Uint16(peerPersistentKeepaliveInterval, uint16(p.PersistentKeepaliveInterval/time.Second))
		}
		if len(p.AllowedIPs) > 0 {
			enc.Uint32(peerFlags, peerFlagReplaceAllowedIPs)
			encodeAllowedIPs(enc, p.AllowedIPs)
		}
		enc.NestEnd(tok)
	}
	enc.NestEnd(ptok)
}

func encodeAllowedIPs(enc *nlink.AttributeEncoder, ips []AllowedIP) {
	tok := enc.NestStart(peerAllowedIPs)
	for i, a := range ips {
		atok := enc.NestStart(uint16(i + 1))
		family := uint16(2) // AF_INET
		ip := a.IP.To4()
		if ip == nil {
			family = 10 // AF_INET6
			ip = a.IP.To16()
		}
		enc.Uint16(allowedipFamily, family)
		enc.RawBytes(allowedipIPAddr, ip)
		enc.Uint8(allowedipCIDRMask, a.Mask)
		enc.NestEnd(atok)
	}
	enc.NestEnd(tok)
}

// encodeSockaddr packs a struct sockaddr_in/sockaddr_in6 for WGPEER_A_ENDPOINT.
func encodeSockaddr(addr *net.UDPAddr) []byte {
	if v4 := addr.IP.To4(); v4 != nil {
		b := make([]byte, 16) // sizeof(struct sockaddr_in), padded
		binary.LittleEndian.PutUint16(b[0:2], 2)
		binary.BigEndian.PutUint16(b[2:4], uint16(addr.Port))
		copy(b[4:8], v4)
		return b
	}
	b := make([]byte, 28) // sizeof(struct sockaddr_in6)
	binary.LittleEndian.PutUint16(b[0:2], 10)
	binary.BigEndian.PutUint16(b[2:4], uint16(addr.Port))
	copy(b[8:24], addr.IP.To16())
	return b
}

// decodeSockaddr parses the sockaddr_in/sockaddr_in6 WGPEER_A_ENDPOINT uses.
func decodeSockaddr(b []byte) *net.UDPAddr {
	if len(b) < 4 {
		return nil
	}
	family := binary.LittleEndian.Uint16(b[0:2])
	port := int(binary.BigEndian.Uint16(b[2:4]))
	switch family {
	case 2: // AF_INET
		if len(b) < 8 {
			return nil
		}
		return &net.UDPAddr{IP: net.IP(b[4:8]), Port: port}
	case 10: // AF_INET6
		if len(b) < 24 {
			return nil
		}
		return &net.UDPAddr{IP: net.IP(b[8:24]), Port: port}
	default:
		return nil
	}
}
