// Package genetlink implements the Generic Netlink family-resolution layer:
// the 4-byte genlmsghdr, the control family's GET_FAMILY request, and a
// per-connection cache of resolved family IDs/versions/multicast groups —
// the foundation the wireguard, macsec, mptcp, and ethtool packages build
// typed requests on top of.
package genetlink

import (
	"context"
	"fmt"
	"sync"

	"github.com/kuuji/nlink"
)

// genlHdrLen is sizeof(struct genlmsghdr): {cmd u8, version u8, reserved u16}.
const genlHdrLen = 4

// Header is the Generic Netlink message header, wrapping every genl
// request/reply's payload.
type Header struct {
	Command uint8
	Version uint8
}

// MarshalBinary packs the 4-byte genlmsghdr.
func (h Header) MarshalBinary() []byte {
	b := make([]byte, genlHdrLen)
	b[0] = h.Command
	b[1] = h.Version
	return b
}

// UnmarshalHeader reads a genlmsghdr from the front of b, returning the
// header and the remaining payload.
func UnmarshalHeader(b []byte) (Header, []byte, error) {
	if len(b) < genlHdrLen {
		return Header{}, nil, fmt.Errorf("genetlink: short genlmsghdr: %d bytes", len(b))
	}
	return Header{Command: b[0], Version: b[1]}, b[genlHdrLen:], nil
}

// The control family (genl's own family, always ID 0x10 / GENL_ID_CTRL)
// resolves other families by name.
const (
	ctrlFamilyID = 0x10

	ctrlCmdGetFamily = 3

	ctrlAttrFamilyID   = 1
	ctrlAttrFamilyName = 2
	ctrlAttrVersion    = 3
	ctrlAttrMcastGroups = 7

	ctrlAttrMcastGrpName = 1
	ctrlAttrMcastGrpID   = 2
)

// Family describes a resolved Generic Netlink family.
type Family struct {
	ID      uint16
	Version uint8
	Groups  map[string]uint32 // multicast group name -> group number
}

// Conn is a Generic Netlink connection: a netlink.Conn dialed against
// NETLINK_GENERIC, plus a cache of resolved families.
type Conn struct {
	nl *nlink.Conn

	mu    sync.Mutex
	cache map[string]Family
}

// Dial opens a Generic Netlink connection.
func Dial() (*Conn, error) { return DialConfig(nil) }

// DialConfig opens a Generic Netlink connection with explicit configuration.
func DialConfig(cfg *nlink.Config) (*Conn, error) {
	nl, err := nlink.Dial(nlink.FamilyGeneric, cfg)
	if err != nil {
		return nil, err
	}
	return &Conn{nl: nl, cache: make(map[string]Family)}, nil
}

// Close releases the underlying socket.
func (c *Conn) Close() error { return c.nl.Close() }

// Raw returns the underlying netlink.Conn for escape-hatch use.
func (c *Conn) Raw() *nlink.Conn { return c.nl }

// ResolveFamily looks up a Generic Netlink family by name (e.g.
// "wireguard", "macsec", "mptcp_pm", "ethtool"), caching the result for
// the lifetime of this Conn.
func (c *Conn) ResolveFamily(ctx context.Context, name string) (Family, error) {
	c.mu.Lock()
	if f, ok := c.cache[name]; ok {
		c.mu.Unlock()
		return f, nil
	}
	c.mu.Unlock()

	enc := nlink.NewAttributeEncoder()
	enc.String(ctrlAttrFamilyName, name)

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(ctrlFamilyID), Flags: nlink.Request}}
	m.Data = append(Header{Command: ctrlCmdGetFamily, Version: 1}.MarshalBinary(), enc.Bytes()...)

	replies, err := c.nl.Execute(ctx, m)
	if err != nil {
		return Family{}, err
	}
	if len(replies) == 0 {
		return Family{}, nlink.InterfaceNotFoundError("resolve-family", name)
	}

	f, err := parseFamily(replies[0])
	if err != nil {
		return Family{}, err
	}

	c.mu.Lock()
	c.cache[name] = f
	c.mu.Unlock()
	return f, nil
}

func parseFamily(m nlink.Message) (Family, error) {
	_, payload, err := UnmarshalHeader(m.Data)
	if err != nil {
		return Family{}, err
	}

	f := Family{Groups: make(map[string]uint32)}
	dec := nlink.NewAttributeDecoder(payload)
	for dec.Next() {
		switch dec.Type() {
		case ctrlAttrFamilyID:
			f.ID = dec.Uint16()
		case ctrlAttrVersion:
			f.Version = uint8(dec.Uint32())
		case ctrlAttrMcastGroups:
			parseMcastGroups(dec.Nest(), f.Groups)
		}
	}
	if err := dec.Err(); err != nil {
		return Family{}, fmt.Errorf("genetlink: parsing family attributes: %w", err)
	}
	return f, nil
}

func parseMcastGroups(dec *nlink.AttributeDecoder, groups map[string]uint32) {
	for dec.Next() {
		grp := dec.Nest()
		var name string
		var id uint32
		for grp.Next() {
			switch grp.Type() {
			case ctrlAttrMcastGrpName:
				name = grp.String()
			case ctrlAttrMcastGrpID:
				id = grp.Uint32()
			}
		}
		if name != "" {
			groups[name] = id
		}
	}
}

// Execute sends a genl request to the given resolved family and returns
// its decoded replies' raw attribute payloads (past both the nlmsghdr,
// handled by netlink.Conn, and the genlmsghdr, stripped here).
func (c *Conn) Execute(ctx context.Context, family Family, h Header, attrs []byte) ([][]byte, error) {
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(family.ID), Flags: nlink.Request}}
	m.Data = append(h.MarshalBinary(), attrs...)

	replies, err := c.nl.Execute(ctx, m)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(replies))
	for _, r := range replies {
		_, payload, err := UnmarshalHeader(r.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, payload)
	}
	return out, nil
}

// Dump runs a multi-part genl dump request, invoking parse for each
// reply's attribute payload.
func (c *Conn) Dump(ctx context.Context, family Family, h Header, attrs []byte, parse func([]byte) error) error {
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(family.ID), Flags: nlink.Request}}
	m.Data = append(h.MarshalBinary(), attrs...)

	return c.nl.Dump(ctx, m, func(r nlink.Message) error {
		_, payload, err := UnmarshalHeader(r.Data)
		if err != nil {
			return err
		}
		return parse(payload)
	})
}
