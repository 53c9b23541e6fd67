package rtnl

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	"github.com/kuuji/nlink"
)

// ifinfomsgLen is sizeof(struct ifinfomsg): {family u8, pad u8, type u16,
// index i32, flags u32, change u32}.
const ifinfomsgLen = 16

// Link is a parsed network interface observation (RTM_NEWLINK).
type Link struct {
	Index     uint32
	Name      string
	Kind      string // IFLA_INFO_KIND, e.g. "dummy", "veth", "bridge", "vlan", "vxlan"; empty for physical/unknown links
	MTU       uint32
	Flags     uint32
	Master    uint32 // ifindex of the master (e.g. bridge) device, 0 if none
	Address   net.HardwareAddr
	Broadcast net.HardwareAddr
	Alias     string
	Stats     *LinkStats // from IFLA_STATS64, nil if the kernel reported none
}

// LinkStats is an interface's accumulated RX/TX counters
// (struct rtnl_link_stats64).
type LinkStats struct {
	RxPackets uint64
	TxPackets uint64
	RxBytes   uint64
	TxBytes   uint64
	RxErrors  uint64
	TxErrors  uint64
	RxDropped uint64
	TxDropped uint64
}

// Up reports whether IFF_UP is set.
func (l Link) Up() bool { return l.Flags&IFFUp != 0 }

// LinkSpec describes a link to create. Kind selects which kind-specific
// fields apply; the zero Kind ("") is a plain link with no INFO_DATA.
type LinkSpec struct {
	Name string
	Kind string // "dummy", "veth", "bridge", "vlan", "vxlan"
	MTU  uint32 // 0 leaves the kernel default

	// veth
	PeerName string

	// vlan
	VlanParent InterfaceRef
	VlanID     uint16

	// vxlan
	VxlanID      uint32
	VxlanLink    InterfaceRef
	VxlanLocal   net.IP
	VxlanGroup   net.IP
	VxlanDstPort uint16 // 0 defaults to the kernel's 8472
}

// Link kind names, the closed set named in spec.md §3.
const (
	KindDummy  = "dummy"
	KindVeth   = "veth"
	KindBridge = "bridge"
	KindVlan   = "vlan"
	KindVxlan  = "vxlan"
)

const (
	iflaVlanID     = 1
	iflaVxlanID    = 1
	iflaVxlanGroup = 2
	iflaVxlanLink  = 4
	iflaVxlanLocal = 5
	iflaVxlanPort  = 15
	vethInfoPeer   = 1
)

// LinkAdd creates a new link per spec, failing if one with the same name
// already exists (NLM_F_CREATE|NLM_F_EXCL).
func (c *Conn) LinkAdd(ctx context.Context, spec LinkSpec) error {
	return c.linkCreate(ctx, spec, nlink.Create|nlink.Excl)
}

// LinkEnsure creates a new link per spec, or succeeds as a no-op if one
// with the same name already exists — used by the reconciler to obtain
// idempotent apply (spec.md §4.9).
func (c *Conn) LinkEnsure(ctx context.Context, spec LinkSpec) error {
	err := c.linkCreate(ctx, spec, nlink.Create)
	if isAlreadyExists(err) {
		return nil
	}
	return err
}

func (c *Conn) linkCreate(ctx context.Context, spec LinkSpec, flags nlink.HeaderFlags) error {
	enc := nlink.NewAttributeEncoder()
	enc.String(iflaIfname, spec.Name)
	if spec.MTU != 0 {
		enc.Uint32(iflaMTU, spec.MTU)
	}

	if spec.Kind == KindVlan && !spec.VlanParent.IsZero() {
		index, err := spec.VlanParent.Resolve(ctx, c)
		if err != nil {
			return err
		}
		enc.Uint32(iflaLink, index)
	}

	if spec.Kind != "" {
		tok := enc.NestStart(iflaLinkinfo)
		enc.String(iflaInfoKind, spec.Kind)
		if err := encodeInfoData(ctx, c, enc, spec); err != nil {
			return err
		}
		enc.NestEnd(tok)
	}

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmNewLink), Flags: flags | nlink.Acknowledge}}
	m.Data = append(ifinfomsg(0, 0, 0, 0), enc.Bytes()...)

	return c.nl.ExecuteAck(ctx, m)
}

// encodeInfoData writes IFLA_INFO_DATA for the kinds that need it. Dummy and
// bridge carry no kind-specific data for plain creation.
func encodeInfoData(ctx context.Context, c *Conn, enc *nlink.AttributeEncoder, spec LinkSpec) error {
	switch spec.Kind {
	case KindVeth:
		peer := nlink.NewAttributeEncoder()
		peer.String(iflaIfname, spec.PeerName)
		payload := append(ifinfomsg(0, 0, 0, 0), peer.Bytes()...)

		tok := enc.NestStart(iflaInfoData)
		enc.RawBytes(vethInfoPeer, payload)
		enc.NestEnd(tok)

	case KindVlan:
		tok := enc.NestStart(iflaInfoData)
		enc.Uint16(iflaVlanID, spec.VlanID)
		enc.NestEnd(tok)

	case KindVxlan:
		tok := enc.NestStart(iflaInfoData)
		enc.Uint32(iflaVxlanID, spec.VxlanID)
		if !spec.VxlanLink.IsZero() {
			index, err := spec.VxlanLink.Resolve(ctx, c)
			if err != nil {
				return err
			}
			enc.Uint32(iflaVxlanLink, index)
		}
		if spec.VxlanGroup != nil {
			enc.IP(iflaVxlanGroup, spec.VxlanGroup)
		}
		if spec.VxlanLocal != nil {
			enc.IP(iflaVxlanLocal, spec.VxlanLocal)
		}
		port := spec.VxlanDstPort
		if port == 0 {
			port = 8472
		}
		enc.Uint16BE(iflaVxlanPort, port)
		enc.NestEnd(tok)
	}
	return nil
}

func ifinfomsg(family uint8, ifType uint16, index int32, flags uint32) []byte {
	b := make([]byte, ifinfomsgLen)
	b[0] = family
	binary.LittleEndian.PutUint16(b[2:4], ifType)
	binary.LittleEndian.PutUint32(b[4:8], uint32(index))
	binary.LittleEndian.PutUint32(b[8:12], flags)
	binary.LittleEndian.PutUint32(b[12:16], iffChangeAll)
	return b
}

func isAlreadyExists(err error) bool { return errors.Is(err, nlink.ErrAlreadyExists) }

func isNotFound(err error) bool { return errors.Is(err, nlink.ErrNotFound) }

// LinkDel deletes the named or indexed link.
func (c *Conn) LinkDel(ctx context.Context, ref InterfaceRef) error {
	index, err := ref.Resolve(ctx, c)
	if err != nil {
		return err
	}
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmDelLink), Flags: nlink.Acknowledge}}
	m.Data = ifinfomsg(AFUnspec, 0, int32(index), 0)
	return c.nl.ExecuteAck(ctx, m)
}

// LinkSetUp brings a link up (IFF_UP).
func (c *Conn) LinkSetUp(ctx context.Context, ref InterfaceRef) error {
	return c.linkSetFlags(ctx, ref, IFFUp, IFFUp)
}

// LinkSetDown brings a link down.
func (c *Conn) LinkSetDown(ctx context.Context, ref InterfaceRef) error {
	return c.linkSetFlags(ctx, ref, 0, IFFUp)
}

func (c *Conn) linkSetFlags(ctx context.Context, ref InterfaceRef, flags, change uint32) error {
	index, err := ref.Resolve(ctx, c)
	if err != nil {
		return err
	}
	b := make([]byte, ifinfomsgLen)
	binary.LittleEndian.PutUint32(b[4:8], uint32(index))
	binary.LittleEndian.PutUint32(b[8:12], flags)
	binary.LittleEndian.PutUint32(b[12:16], change)

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmSetLink), Flags: nlink.Acknowledge}, Data: b}
	return c.nl.ExecuteAck(ctx, m)
}

// LinkSetMTU sets a link's MTU.
func (c *Conn) LinkSetMTU(ctx context.Context, ref InterfaceRef, mtu uint32) error {
	index, err := ref.Resolve(ctx, c)
	if err != nil {
		return err
	}
	enc := nlink.NewAttributeEncoder()
	enc.Uint32(iflaMTU, mtu)

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmSetLink), Flags: nlink.Acknowledge}}
	m.Data = append(ifinfomsg(AFUnspec, 0, int32(index), 0), enc.Bytes()...)
	return c.nl.ExecuteAck(ctx, m)
}

// LinkSetMaster enrolls a link into a master device (e.g. a bridge). A
// zero InterfaceRef detaches the link from its current master.
func (c *Conn) LinkSetMaster(ctx context.Context, ref, master InterfaceRef) error {
	index, err := ref.Resolve(ctx, c)
	if err != nil {
		return err
	}
	masterIndex := uint32(0)
	if !master.IsZero() {
		masterIndex, err = master.Resolve(ctx, c)
		if err != nil {
			return err
		}
	}

	enc := nlink.NewAttributeEncoder()
	enc.Uint32(iflaMaster, masterIndex)

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmSetLink), Flags: nlink.Acknowledge}}
	m.Data = append(ifinfomsg(AFUnspec, 0, int32(index), 0), enc.Bytes()...)
	return c.nl.ExecuteAck(ctx, m)
}

// LinkGet fetches a single link's current state.
func (c *Conn) LinkGet(ctx context.Context, ref InterfaceRef) (*Link, error) {
	index, err := ref.Resolve(ctx, c)
	if err != nil {
		return nil, err
	}

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmGetLink)}}
	m.Data = ifinfomsg(AFUnspec, 0, int32(index), 0)

	replies, err := c.nl.Execute(ctx, m)
	if err != nil {
		return nil, err
	}
	if len(replies) == 0 {
		return nil, nlink.InterfaceNotFoundError("get-link", ref.String())
	}
	l, err := parseLink(replies[0], c.log)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// LinkList dumps every link visible in this Conn's namespace.
func (c *Conn) LinkList(ctx context.Context) ([]Link, error) {
	var links []Link
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmGetLink)}}
	m.Data = ifinfomsg(AFUnspec, 0, 0, 0)

	err := c.nl.Dump(ctx, m, func(r nlink.Message) error {
		l, err := parseLink(r, c.log)
		if err != nil {
			return err
		}
		links = append(links, l)
		return nil
	})
	return links, err
}

// parseLinkStats64 decodes the leading, stable fields of struct
// rtnl_link_stats64; fields after tx_dropped (multicast, collisions, the
// various error breakdowns) are not modeled.
func parseLinkStats64(b []byte) *LinkStats {
	if len(b) < 64 {
		return nil
	}
	u64 := func(off int) uint64 { return binary.LittleEndian.Uint64(b[off : off+8]) }
	return &LinkStats{
		RxPackets: u64(0),
		TxPackets: u64(8),
		RxBytes:   u64(16),
		TxBytes:   u64(24),
		RxErrors:  u64(32),
		TxErrors:  u64(40),
		RxDropped: u64(48),
		TxDropped: u64(56),
	}
}

func parseLink(m nlink.Message, log logger) (Link, error) {
	if len(m.Data) < ifinfomsgLen {
		return Link{}, fmt.Errorf("rtnl: short ifinfomsg: %d bytes", len(m.Data))
	}

	l := Link{
		Index: uint32(int32(binary.LittleEndian.Uint32(m.Data[4:8]))),
		Flags: binary.LittleEndian.Uint32(m.Data[8:12]),
	}

	dec := nlink.NewAttributeDecoder(m.Data[ifinfomsgLen:])
	for dec.Next() {
		switch dec.Type() {
		case iflaIfname:
			l.Name = dec.String()
		case iflaMTU:
			l.MTU = dec.Uint32()
		case iflaMaster:
			l.Master = dec.Uint32()
		case iflaAddress:
			l.Address = append(net.HardwareAddr(nil), dec.BytesValue()...)
		case iflaBroadcast:
			l.Broadcast = append(net.HardwareAddr(nil), dec.BytesValue()...)
		case iflaIfalias:
			l.Alias = dec.String()
		case iflaLinkinfo:
			info := dec.Nest()
			for info.Next() {
				if info.Type() == iflaInfoKind {
					l.Kind = info.String()
				}
			}
		case iflaStats64:
			l.Stats = parseLinkStats64(dec.Bytes())
		default:
			logUnrecognized(log, "link", dec.Type())
		}
	}
	if err := dec.Err(); err != nil {
		return Link{}, fmt.Errorf("rtnl: parsing link attributes: %w", err)
	}
	return l, nil
}
