package rtnl

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/kuuji/nlink"
)

// rtmsgLen is sizeof(struct rtmsg): {family, dst_len, src_len, tos, table,
// protocol, scope, type u8 each, flags u32}.
const rtmsgLen = 12

// NextHop is one leg of a multipath route.
type NextHop struct {
	Gateway net.IP
	IfIndex uint32
	Weight  uint8
}

// Route is a parsed route (RTM_NEWROUTE).
type Route struct {
	Family    uint8
	Dst       *net.IPNet
	Gateway   net.IP
	Src       net.IP
	OifIndex  uint32
	Table     uint32
	Protocol  uint8
	Scope     uint8
	Type      uint8
	Priority  uint32
	Multipath []NextHop

	// Lightweight tunnel encapsulation (RTA_ENCAP/RTA_ENCAP_TYPE).
	EncapType uint16
	MPLSLabel uint32 // valid when EncapType == LWTunnelEncapMPLS
	SRv6Segs  []net.IP // valid when EncapType == LWTunnelEncapSEG6
}

// RouteSpec describes a route to add.
type RouteSpec struct {
	Dst      *net.IPNet // nil means a default route
	Gateway  net.IP
	Oif      InterfaceRef
	Table    uint32 // 0 defaults to RTTableMain
	Protocol uint8  // 0 defaults to RTProtoBoot
	Scope    uint8  // 0 defaults to RTScopeUniverse (RTScopeLink if Gateway is nil)
	Priority uint32

	Multipath []NextHopSpec

	MPLSLabel uint32 // non-zero selects LWTunnelEncapMPLS
}

// NextHopSpec is one leg of a multipath route to add.
type NextHopSpec struct {
	Gateway net.IP
	Oif     InterfaceRef
	Weight  uint8
}

// RouteAdd adds a route, failing if an equivalent one already exists.
func (c *Conn) RouteAdd(ctx context.Context, spec RouteSpec) error {
	return c.routeWrite(ctx, rtmNewRoute, nlink.Create|nlink.Excl|nlink.Acknowledge, spec)
}

// RouteEnsure adds a route with NLM_F_CREATE|NLM_F_REPLACE, so a matching
// existing route is replaced by spec instead of causing an error.
func (c *Conn) RouteEnsure(ctx context.Context, spec RouteSpec) error {
	err := c.routeWrite(ctx, rtmNewRoute, nlink.Create|nlink.Replace|nlink.Acknowledge, spec)
	if isAlreadyExists(err) {
		return nil
	}
	return err
}

// RouteDel removes a route.
func (c *Conn) RouteDel(ctx context.Context, spec RouteSpec) error {
	return c.routeWrite(ctx, rtmDelRoute, nlink.Acknowledge, spec)
}

func (c *Conn) routeWrite(ctx context.Context, msgType uint16, flags nlink.HeaderFlags, spec RouteSpec) error {
	family := uint8(AFInet)
	dstLen := uint8(0)
	if spec.Dst != nil {
		family = addressFamily(spec.Dst.IP)
		ones, _ := spec.Dst.Mask.Size()
		dstLen = uint8(ones)
	} else if spec.Gateway != nil {
		family = addressFamily(spec.Gateway)
	}

	table := spec.Table
	if table == 0 {
		table = RTTableMain
	}
	protocol := spec.Protocol
	if protocol == 0 {
		protocol = RTProtoBoot
	}
	scope := spec.Scope
	if scope == 0 {
		scope = RTScopeUniverse
		if spec.Gateway == nil && len(spec.Multipath) == 0 {
			scope = RTScopeLink
		}
	}

	b := make([]byte, rtmsgLen)
	b[0] = family
	b[1] = dstLen
	if table <= 255 {
		b[4] = uint8(table)
	} // else: left 0, RTA_TABLE below carries the full value
	b[5] = protocol
	b[6] = scope
	b[7] = RTNUnicast

	enc := nlink.NewAttributeEncoder()
	if spec.Dst != nil {
		enc.RawBytes(rtaDst, ipBytes(spec.Dst.IP, family))
	}
	if spec.Gateway != nil {
		enc.RawBytes(rtaGateway, ipBytes(spec.Gateway, family))
	}
	enc.Uint32(rtaTable, table)
	if spec.Priority != 0 {
		enc.Uint32(rtaPriority, spec.Priority)
	}

	if len(spec.Multipath) > 0 {
		if err := encodeMultipath(ctx, c, enc, spec.Multipath, family); err != nil {
			return err
		}
	} else if !spec.Oif.IsZero() {
		index, err := spec.Oif.Resolve(ctx, c)
		if err != nil {
			return err
		}
		enc.Uint32(rtaOif, index)
	}

	if spec.MPLSLabel != 0 {
		enc.Uint16(rtaEncapType, LWTunnelEncapMPLS)
		mtok := enc.NestStart(rtaEncap)
		enc.Uint32BE(1, spec.MPLSLabel<<12) // MPLS_IPTUNNEL_DST, label in bits 31..12
		enc.NestEnd(mtok)
	}

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(msgType), Flags: flags}}
	m.Data = append(b, enc.Bytes()...)
	return c.nl.ExecuteAck(ctx, m)
}

func encodeMultipath(ctx context.Context, c *Conn, enc *nlink.AttributeEncoder, hops []NextHopSpec, family uint8) error {
	const rtnhLen = 8 // struct rtnexthop: len u16, flags u8, hops u8, ifindex i32

	var buf []byte
	for _, h := range hops {
		index, err := h.Oif.Resolve(ctx, c)
		if err != nil {
			return err
		}

		hopEnc := nlink.NewAttributeEncoder()
		if h.Gateway != nil {
			hopEnc.RawBytes(rtaGateway, ipBytes(h.Gateway, family))
		}
		attrs := hopEnc.Bytes()

		rtnh := make([]byte, rtnhLen)
		binary.LittleEndian.PutUint16(rtnh[0:2], uint16(rtnhLen+len(attrs)))
		rtnh[3] = h.Weight
		binary.LittleEndian.PutUint32(rtnh[4:8], index)

		buf = append(buf, rtnh...)
		buf = append(buf, attrs...)
	}
	enc.RawBytes(rtaMultipath, buf)
	return nil
}

// RouteList dumps every route of the given address family (0 dumps every
// family), across all tables the kernel returns, typically main/default/local.
func (c *Conn) RouteList(ctx context.Context, family int) ([]Route, error) {
	b := make([]byte, rtmsgLen)
	if family != 0 {
		b[0] = uint8(family)
	}

	var routes []Route
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmGetRoute)}, Data: b}
	err := c.nl.Dump(ctx, m, func(r nlink.Message) error {
		rt, err := parseRoute(r, c.log)
		if err != nil {
			return err
		}
		routes = append(routes, rt)
		return nil
	})
	return routes, err
}

// RouteGetByDest performs a FIB lookup for dst (RTM_GETROUTE without the
// dump flag), returning the single route the kernel would use to forward
// traffic to it.
func (c *Conn) RouteGetByDest(ctx context.Context, dst net.IP) (*Route, error) {
	family := addressFamily(dst)
	ones := 32
	if family == AFInet6 {
		ones = 128
	}

	b := make([]byte, rtmsgLen)
	b[0] = family
	b[1] = uint8(ones)

	enc := nlink.NewAttributeEncoder()
	enc.RawBytes(rtaDst, ipBytes(dst, family))

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmGetRoute)}}
	m.Data = append(b, enc.Bytes()...)

	replies, err := c.nl.Execute(ctx, m)
	if err != nil {
		return nil, err
	}
	if len(replies) == 0 {
		return nil, nlink.ErrNotFound
	}
	rt, err := parseRoute(replies[0], c.log)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func parseRoute(m nlink.Message, log logger) (Route, error) {
	if len(m.Data) < rtmsgLen {
		return Route{}, fmt.Errorf("rtnl: short rtmsg: %d bytes", len(m.Data))
	}
	rt := Route{
		Family:   m.Data[0],
		Protocol: m.Data[5],
		Scope:    m.Data[6],
		Type:     m.Data[7],
		Table:    uint32(m.Data[4]),
	}
	dstLen := m.Data[1]

	dec := nlink.NewAttributeDecoder(m.Data[rtmsgLen:])
	for dec.Next() {
		switch dec.Type() {
		case rtaDst:
			ip := dec.IP()
			rt.Dst = &net.IPNet{IP: ip, Mask: net.CIDRMask(int(dstLen), len(ip)*8)}
		case rtaGateway:
			rt.Gateway = dec.IP()
		case rtaSrc, rtaPrefsrc:
			rt.Src = dec.IP()
		case rtaOif:
			rt.OifIndex = dec.Uint32()
		case rtaTable:
			rt.Table = dec.Uint32()
		case rtaPriority:
			rt.Priority = dec.Uint32()
		case rtaEncapType:
			rt.EncapType = dec.Uint16()
		case rtaEncap:
			parseEncap(dec.Nest(), &rt)
		case rtaMultipath:
			rt.Multipath = parseMultipath(dec.BytesValue(), rt.Family)
		default:
			logUnrecognized(log, "route", dec.Type())
		}
	}
	if err := dec.Err(); err != nil {
		return Route{}, fmt.Errorf("rtnl: parsing route attributes: %w", err)
	}
	return rt, nil
}

func parseEncap(dec *nlink.AttributeDecoder, rt *Route) {
	for dec.Next() {
		switch rt.EncapType {
		case LWTunnelEncapMPLS:
			if dec.Type() == 1 {
				rt.MPLSLabel = dec.Uint32BE() >> 12
			}
		case LWTunnelEncapSEG6:
			rt.SRv6Segs = append(rt.SRv6Segs, dec.IP())
		}
	}
}

func parseMultipath(b []byte, family uint8) []NextHop {
	const rtnhLen = 8
	var hops []NextHop
	for len(b) >= rtnhLen {
		length := binary.LittleEndian.Uint16(b[0:2])
		if int(length) < rtnhLen || int(length) > len(b) {
			break
		}
		hop := NextHop{
			Weight:  b[3],
			IfIndex: binary.LittleEndian.Uint32(b[4:8]),
		}
		dec := nlink.NewAttributeDecoder(b[rtnhLen:length])
		for dec.Next() {
			if dec.Type() == rtaGateway {
				hop.Gateway = dec.IP()
			}
		}
		hops = append(hops, hop)
		adv := (int(length) + 3) &^ 3
		if adv > len(b) {
			break
		}
		b = b[adv:]
	}
	return hops
}
