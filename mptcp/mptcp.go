// Package mptcp implements the MPTCP Path Manager Generic Netlink family
// (family name "mptcp_pm"): endpoint and subflow-limit configuration, the
// third of the Generic Netlink families spec.md §4.6 names.
package mptcp

import (
	"context"
	"fmt"
	"net"

	"github.com/kuuji/nlink"
	"github.com/kuuji/nlink/genetlink"
)

const familyName = "mptcp_pm"

// MPTCP_PM_CMD_*.
const (
	cmdAddAddr        = 1
	cmdDelAddr        = 2
	cmdGetAddr        = 3
	cmdFlushAddrs     = 4
	cmdSetLimits      = 5
	cmdGetLimits      = 6
	cmdSetFlags       = 7
	cmdAnnounce       = 8
	cmdRemove         = 9
	cmdSubflowCreate  = 10
	cmdSubflowDestroy = 11
)

// MPTCP_PM_ATTR_*.
const (
	attrAddr         = 1
	attrRcvAddAddrs  = 2
	attrSubflows     = 3
	attrToken        = 4
	attrLocID        = 5
	attrAddrRemote   = 6
)

// MPTCP_PM_ADDR_ATTR_*.
const (
	addrAttrFamily = 1
	addrAttrID     = 2
	addrAttrAddr4  = 3
	addrAttrAddr6  = 4
	addrAttrPort   = 5
	addrAttrFlags  = 6
	addrAttrIfIdx  = 7
)

// Endpoint flags (MPTCP_PM_ADDR_FLAG_*).
const (
	FlagSignal    uint32 = 1 << 0
	FlagSubflow   uint32 = 1 << 1
	FlagBackup    uint32 = 1 << 2
	FlagFullmesh  uint32 = 1 << 3
	FlagImplicit  uint32 = 1 << 4
)

const (
	afInet  = 2
	afInet6 = 10
)

// Endpoint is one MPTCP path-manager endpoint address.
type Endpoint struct {
	ID      uint8
	Address net.IP
	Port    uint16
	Ifindex uint32
	Flags   uint32
}

// Signal reports whether FlagSignal is set.
func (e Endpoint) Signal() bool { return e.Flags&FlagSignal != 0 }

// Subflow reports whether FlagSubflow is set.
func (e Endpoint) Subflow() bool { return e.Flags&FlagSubflow != 0 }

// Backup reports whether FlagBackup is set.
func (e Endpoint) Backup() bool { return e.Flags&FlagBackup != 0 }

// Limits is the path manager's subflow/address-acceptance ceiling.
type Limits struct {
	RcvAddAddrs uint32
	Subflows    uint32
}

// Conn is an MPTCP path-manager connection over Generic Netlink.
type Conn struct {
	genl   *genetlink.Conn
	family genetlink.Family
}

// Dial resolves the "mptcp_pm" family and returns a ready Conn.
func Dial(ctx context.Context) (*Conn, error) {
	genl, err := genetlink.Dial()
	if err != nil {
		return nil, err
	}
	family, err := genl.ResolveFamily(ctx, familyName)
	if err != nil {
		genl.Close()
		return nil, fmt.Errorf("mptcp: resolving family (is CONFIG_MPTCP built?): %w", err)
	}
	return &Conn{genl: genl, family: family}, nil
}

// Close releases the underlying Generic Netlink connection.
func (c *Conn) Close() error { return c.genl.Close() }

// Endpoints lists all configured path-manager endpoints.
func (c *Conn) Endpoints(ctx context.Context) ([]Endpoint, error) {
	var eps []Endpoint
	err := c.genl.Dump(ctx, c.family, genetlink.Header{Command: cmdGetAddr}, nil, func(payload []byte) error {
		ep, ok, err := parseEndpointReply(payload)
		if err != nil {
			return err
		}
		if ok {
			eps = append(eps, ep)
		}
		return nil
	})
	return eps, err
}

// AddEndpoint adds a new path-manager endpoint.
func (c *Conn) AddEndpoint(ctx context.Context, ep Endpoint) error {
	enc := nlink.NewAttributeEncoder()
	tok := enc.NestStart(attrAddr)
	encodeEndpoint(enc, ep)
	enc.NestEnd(tok)

	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdAddAddr}, enc.Bytes())
	return err
}

// DelEndpoint removes an endpoint by address ID.
func (c *Conn) DelEndpoint(ctx context.Context, id uint8) error {
	enc := nlink.NewAttributeEncoder()
	tok := enc.NestStart(attrAddr)
	enc.Uint8(addrAttrID, id)
	enc.NestEnd(tok)

	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdDelAddr}, enc.Bytes())
	return err
}

// FlushEndpoints removes all configured endpoints.
func (c *Conn) FlushEndpoints(ctx context.Context) error {
	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdFlushAddrs}, nil)
	return err
}

// SetLimits sets the path manager's subflow/address-acceptance ceiling.
func (c *Conn) SetLimits(ctx context.Context, l Limits) error {
	enc := nlink.NewAttributeEncoder()
	enc.Uint32(attrRcvAddAddrs, l.RcvAddAddrs)
	enc.Uint32(attrSubflows, l.Subflows)

	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdSetLimits}, enc.Bytes())
	return err
}

// GetLimits reads the path manager's current limits.
func (c *Conn) GetLimits(ctx context.Context) (Limits, error) {
	replies, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdGetLimits}, nil)
	if err != nil {
		return Limits{}, err
	}
	if len(replies) == 0 {
		return Limits{}, fmt.Errorf("mptcp: empty GET_LIMITS reply")
	}
	return parseLimits(replies[0]), nil
}

func encodeEndpoint(enc *nlink.AttributeEncoder, ep Endpoint) {
	if v4 := ep.Address.To4(); v4 != nil {
		enc.Uint16(addrAttrFamily, afInet)
		enc.RawBytes(addrAttrAddr4, v4)
	} else {
		enc.Uint16(addrAttrFamily, afInet6)
		enc.RawBytes(addrAttrAddr6, ep.Address.To16())
	}
	enc.Uint8(addrAttrID, ep.ID)
	if ep.Port != 0 {
		enc.Uint16BE(addrAttrPort, ep.Port)
	}
	if ep.Ifindex != 0 {
		enc.Uint32(addrAttrIfIdx, ep.Ifindex)
	}
	if ep.Flags != 0 {
		enc.Uint32(addrAttrFlags, ep.Flags)
	}
}
