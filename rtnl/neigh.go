package rtnl

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/kuuji/nlink"
)

// ndmsgLen is sizeof(struct ndmsg): {family u8, pad[3], ifindex i32,
// state u16, flags u8, type u8}.
const ndmsgLen = 12

// Neighbor is a parsed ARP/NDP cache entry (RTM_NEWNEIGH).
type Neighbor struct {
	IfIndex uint32
	Family  uint8
	State   uint16 // NUD_*
	IP      net.IP
	LLAddr  net.HardwareAddr
}

// NeighSpec describes a neighbor entry to add.
type NeighSpec struct {
	Link   InterfaceRef
	IP     net.IP
	LLAddr net.HardwareAddr
	State  uint16 // 0 defaults to NUDPermanent
}

// NeighAdd adds or replaces a neighbor table entry.
func (c *Conn) NeighAdd(ctx context.Context, spec NeighSpec) error {
	return c.neighWrite(ctx, rtmNewNeigh, nlink.Create|nlink.Replace|nlink.Acknowledge, spec)
}

// NeighDel removes a neighbor table entry.
func (c *Conn) NeighDel(ctx context.Context, spec NeighSpec) error {
	return c.neighWrite(ctx, rtmDelNeigh, nlink.Acknowledge, spec)
}

func (c *Conn) neighWrite(ctx context.Context, msgType uint16, flags nlink.HeaderFlags, spec NeighSpec) error {
	index, err := spec.Link.Resolve(ctx, c)
	if err != nil {
		return err
	}
	family := addressFamily(spec.IP)
	state := spec.State
	if state == 0 {
		state = NUDPermanent
	}

	b := make([]byte, ndmsgLen)
	b[0] = family
	binary.LittleEndian.PutUint32(b[4:8], index)
	binary.LittleEndian.PutUint16(b[8:10], state)

	enc := nlink.NewAttributeEncoder()
	enc.RawBytes(ndaDst, ipBytes(spec.IP, family))
	if spec.LLAddr != nil {
		enc.RawBytes(ndaLLAddr, spec.LLAddr)
	}

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(msgType), Flags: flags}}
	m.Data = append(b, enc.Bytes()...)
	return c.nl.ExecuteAck(ctx, m)
}

// NeighList dumps the neighbor table, optionally restricted to one link.
func (c *Conn) NeighList(ctx context.Context, ref InterfaceRef) ([]Neighbor, error) {
	var index uint32
	if !ref.IsZero() {
		var err error
		index, err = ref.Resolve(ctx, c)
		if err != nil {
			return nil, err
		}
	}

	b := make([]byte, ndmsgLen)
	binary.LittleEndian.PutUint32(b[4:8], index)

	var neighbors []Neighbor
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmGetNeigh)}, Data: b}
	err := c.nl.Dump(ctx, m, func(r nlink.Message) error {
		n, err := parseNeighbor(r, c.log)
		if err != nil {
			return err
		}
		if index == 0 || n.IfIndex == index {
			neighbors = append(neighbors, n)
		}
		return nil
	})
	return neighbors, err
}

func parseNeighbor(m nlink.Message, log logger) (Neighbor, error) {
	if len(m.Data) < ndmsgLen {
		return Neighbor{}, fmt.Errorf("rtnl: short ndmsg: %d bytes", len(m.Data))
	}
	n := Neighbor{
		Family:  m.Data[0],
		IfIndex: binary.LittleEndian.Uint32(m.Data[4:8]),
		State:   binary.LittleEndian.Uint16(m.Data[8:10]),
	}

	dec := nlink.NewAttributeDecoder(m.Data[ndmsgLen:])
	for dec.Next() {
		switch dec.Type() {
		case ndaDst:
			n.IP = dec.IP()
		case ndaLLAddr:
			n.LLAddr = append(net.HardwareAddr(nil), dec.BytesValue()...)
		default:
			logUnrecognized(log, "neighbor", dec.Type())
		}
	}
	if err := dec.Err(); err != nil {
		return Neighbor{}, fmt.Errorf("rtnl: parsing neighbor attributes: %w", err)
	}
	return n, nil
}
