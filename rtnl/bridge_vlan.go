package rtnl

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/kuuji/nlink"
)

// BridgeVLAN is one VLAN membership entry on a bridge port, as reported
// under IFLA_AF_SPEC > IFLA_BRIDGE_VLAN_INFO.
type BridgeVLAN struct {
	Ifindex  uint32
	VID      uint16
	PVID     bool
	Untagged bool
}

// bridgeVlanInfoLen is sizeof(struct bridge_vlan_info): {flags u16, vid u16}.
const bridgeVlanInfoLen = 4

// BridgeVLANAdd assigns vid to a bridge port, marking it the port's PVID
// and/or stripping the tag on egress per pvid/untagged.
func (c *Conn) BridgeVLANAdd(ctx context.Context, ref InterfaceRef, vid uint16, pvid, untagged bool) error {
	return c.bridgeVlanWrite(ctx, ref, vid, pvid, untagged, false)
}

// BridgeVLANDel removes vid from a bridge port.
func (c *Conn) BridgeVLANDel(ctx context.Context, ref InterfaceRef, vid uint16) error {
	return c.bridgeVlanWrite(ctx, ref, vid, false, false, true)
}

func (c *Conn) bridgeVlanWrite(ctx context.Context, ref InterfaceRef, vid uint16, pvid, untagged, del bool) error {
	index, err := ref.Resolve(ctx, c)
	if err != nil {
		return err
	}

	var flags uint16
	if pvid {
		flags |= bridgeVlanInfoPVID
	}
	if untagged {
		flags |= bridgeVlanInfoUntagged
	}
	info := make([]byte, bridgeVlanInfoLen)
	binary.LittleEndian.PutUint16(info[0:2], flags)
	binary.LittleEndian.PutUint16(info[2:4], vid)

	enc := nlink.NewAttributeEncoder()
	tok := enc.NestStart(iflaAFSpec)
	enc.RawBytes(iflaBridgeVlanInfo, info)
	enc.NestEnd(tok)

	msgType := uint16(rtmSetLink)
	if del {
		msgType = rtmDelLink
	}
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(msgType), Flags: nlink.Acknowledge}}
	m.Data = append(ifinfomsg(AFBridge, 0, int32(index), 0), enc.Bytes()...)
	return c.nl.ExecuteAck(ctx, m)
}

// BridgeVLANList dumps every VLAN membership entry known to the bridge
// subsystem, across all ports.
func (c *Conn) BridgeVLANList(ctx context.Context) ([]BridgeVLAN, error) {
	var vlans []BridgeVLAN
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmGetLink)}}
	m.Data = ifinfomsg(AFBridge, 0, 0, 0)

	err := c.nl.Dump(ctx, m, func(r nlink.Message) error {
		entries, err := parseBridgeVlans(r)
		if err != nil {
			return err
		}
		vlans = append(vlans, entries...)
		return nil
	})
	return vlans, err
}

func parseBridgeVlans(m nlink.Message) ([]BridgeVLAN, error) {
	if len(m.Data) < ifinfomsgLen {
		return nil, fmt.Errorf("rtnl: short ifinfomsg in bridge VLAN dump: %d bytes", len(m.Data))
	}
	ifindex := uint32(int32(binary.LittleEndian.Uint32(m.Data[4:8])))

	var out []BridgeVLAN
	dec := nlink.NewAttributeDecoder(m.Data[ifinfomsgLen:])
	for dec.Next() {
		if dec.Type() != iflaAFSpec {
			continue
		}
		spec := dec.Nest()
		for spec.Next() {
			if spec.Type() != iflaBridgeVlanInfo {
				continue
			}
			b := spec.Bytes()
			if len(b) < bridgeVlanInfoLen {
				continue
			}
			flags := binary.LittleEndian.Uint16(b[0:2])
			out = append(out, BridgeVLAN{
				Ifindex:  ifindex,
				VID:      binary.LittleEndian.Uint16(b[2:4]),
				PVID:     flags&bridgeVlanInfoPVID != 0,
				Untagged: flags&bridgeVlanInfoUntagged != 0,
			})
		}
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
