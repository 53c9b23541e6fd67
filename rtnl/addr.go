package rtnl

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/kuuji/nlink"
)

// ifaddrmsgLen is sizeof(struct ifaddrmsg): {family u8, prefixlen u8,
// flags u8, scope u8, index u32}.
const ifaddrmsgLen = 8

// Address is a parsed interface address (RTM_NEWADDR).
type Address struct {
	Index     uint32
	Family    uint8
	Prefixlen uint8
	Scope     uint8
	Flags     uint32
	IP        net.IP // IFA_ADDRESS
	Local     net.IP // IFA_LOCAL, equal to IP for most address families
	Label     string
}

// AddrSpec describes an address to add.
type AddrSpec struct {
	Link      InterfaceRef
	IP        net.IP
	Prefixlen uint8
	Label     string // optional secondary-address label, e.g. "eth0:1"
}

// AddrAdd adds an address to a link.
func (c *Conn) AddrAdd(ctx context.Context, spec AddrSpec) error {
	return c.addrWrite(ctx, rtmNewAddr, nlink.Create|nlink.Excl|nlink.Acknowledge, spec)
}

// AddrEnsure adds an address, succeeding as a no-op if it is already
// present — used by the reconciler for idempotent apply.
func (c *Conn) AddrEnsure(ctx context.Context, spec AddrSpec) error {
	err := c.addrWrite(ctx, rtmNewAddr, nlink.Create|nlink.Acknowledge, spec)
	if isAlreadyExists(err) {
		return nil
	}
	return err
}

// AddrDel removes an address from a link.
func (c *Conn) AddrDel(ctx context.Context, spec AddrSpec) error {
	return c.addrWrite(ctx, rtmDelAddr, nlink.Acknowledge, spec)
}

func (c *Conn) addrWrite(ctx context.Context, msgType uint16, flags nlink.HeaderFlags, spec AddrSpec) error {
	index, err := spec.Link.Resolve(ctx, c)
	if err != nil {
		return err
	}
	family := addressFamily(spec.IP)

	b := make([]byte, ifaddrmsgLen)
	b[0] = family
	b[1] = spec.Prefixlen
	binary.LittleEndian.PutUint32(b[4:8], index)

	enc := nlink.NewAttributeEncoder()
	raw := ipBytes(spec.IP, family)
	enc.RawBytes(ifaAddress, raw)
	enc.RawBytes(ifaLocal, raw)
	if spec.Label != "" {
		enc.String(ifaLabel, spec.Label)
	}

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(msgType), Flags: flags}}
	m.Data = append(b, enc.Bytes()...)
	return c.nl.ExecuteAck(ctx, m)
}

// AddrList dumps every address on every link, or on a single link if ref is
// non-zero.
func (c *Conn) AddrList(ctx context.Context, ref InterfaceRef) ([]Address, error) {
	var index uint32
	if !ref.IsZero() {
		var err error
		index, err = ref.Resolve(ctx, c)
		if err != nil {
			return nil, err
		}
	}

	b := make([]byte, ifaddrmsgLen)
	binary.LittleEndian.PutUint32(b[4:8], index)

	var addrs []Address
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmGetAddr)}, Data: b}
	err := c.nl.Dump(ctx, m, func(r nlink.Message) error {
		a, err := parseAddr(r, c.log)
		if err != nil {
			return err
		}
		if index == 0 || a.Index == index {
			addrs = append(addrs, a)
		}
		return nil
	})
	return addrs, err
}

func parseAddr(m nlink.Message, log logger) (Address, error) {
	if len(m.Data) < ifaddrmsgLen {
		return Address{}, fmt.Errorf("rtnl: short ifaddrmsg: %d bytes", len(m.Data))
	}
	a := Address{
		Family:    m.Data[0],
		Prefixlen: m.Data[1],
		Scope:     m.Data[3],
		Index:     binary.LittleEndian.Uint32(m.Data[4:8]),
	}

	dec := nlink.NewAttributeDecoder(m.Data[ifaddrmsgLen:])
	for dec.Next() {
		switch dec.Type() {
		case ifaAddress:
			a.IP = dec.IP()
		case ifaLocal:
			a.Local = dec.IP()
		case ifaLabel:
			a.Label = dec.String()
		case ifaFlags:
			a.Flags = dec.Uint32()
		default:
			logUnrecognized(log, "addr", dec.Type())
		}
	}
	if err := dec.Err(); err != nil {
		return Address{}, fmt.Errorf("rtnl: parsing address attributes: %w", err)
	}
	return a, nil
}

func addressFamily(ip net.IP) uint8 {
	if ip.To4() != nil {
		return AFInet
	}
	return AFInet6
}

func ipBytes(ip net.IP, family uint8) []byte {
	if family == AFInet {
		return ip.To4()
	}
	return ip.To16()
}
