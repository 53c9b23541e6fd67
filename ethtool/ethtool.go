// Package ethtool implements a subset of the ethtool Generic Netlink
// family (family name "ethtool", kernel 5.6+): link state, link mode, and
// ring buffer queries/configuration, the last of the Generic Netlink
// families spec.md §4.6 names. Bitset-valued message types (FEATURES,
// PRIVFLAGS, the full supported/advertised link-mode bitmaps) are out of
// scope for this pass — see the Open Question decision in DESIGN.md.
package ethtool

import (
	"context"
	"fmt"

	"github.com/kuuji/nlink"
	"github.com/kuuji/nlink/genetlink"
)

const familyName = "ethtool"

// ETHTOOL_MSG_* message types, carried as the genl command.
const (
	msgLinkinfoGet = 2
	msgLinkinfoSet = 3
	msgLinkmodesGet = 4
	msgLinkmodesSet = 5
	msgLinkstateGet = 6
	msgRingsGet     = 15
	msgRingsSet     = 16
)

// ETHTOOL_A_HEADER_*, nested under every message's HEADER attribute (1).
const (
	headerDevIndex = 1
	headerDevName  = 2
)

// ETHTOOL_A_LINKSTATE_*.
const (
	linkstateHeader = 1
	linkstateLink   = 2
	linkstateSQI    = 3
	linkstateSQIMax = 4
)

// ETHTOOL_A_LINKMODES_*.
const (
	linkmodesHeader  = 1
	linkmodesAutoneg = 2
	linkmodesSpeed   = 5
	linkmodesDuplex  = 6
	linkmodesLanes   = 9
)

// ETHTOOL_A_RINGS_*.
const (
	ringsHeader   = 1
	ringsRxMax    = 2
	ringsRxMiniMax = 3
	ringsRxJumboMax = 4
	ringsTxMax    = 5
	ringsRx       = 6
	ringsRxMini   = 7
	ringsRxJumbo  = 8
	ringsTx       = 9
)

// Duplex is a link duplex mode (ETHTOOL_LINK_DUPLEX_*).
type Duplex uint8

const (
	DuplexHalf    Duplex = 0x00
	DuplexFull    Duplex = 0x01
	DuplexUnknown Duplex = 0xff
)

// LinkState is the result of an ETHTOOL_MSG_LINKSTATE_GET query.
type LinkState struct {
	Link   bool
	SQI    *uint32
	SQIMax *uint32
}

// LinkModes is the result of an ETHTOOL_MSG_LINKMODES_GET query, or the
// input to an ETHTOOL_MSG_LINKMODES_SET request.
type LinkModes struct {
	Autoneg bool
	Speed   *uint32
	Duplex  *Duplex
	Lanes   *uint32
}

// Rings is a device's ring buffer sizes (ETHTOOL_MSG_RINGS_GET/SET).
type Rings struct {
	RxMax, RxMiniMax, RxJumboMax, TxMax uint32
	Rx, RxMini, RxJumbo, Tx             uint32
}

// Conn is an ethtool configuration connection over Generic Netlink.
type Conn struct {
	genl   *genetlink.Conn
	family genetlink.Family
}

// Dial resolves the "ethtool" family and returns a ready Conn.
func Dial(ctx context.Context) (*Conn, error) {
	genl, err := genetlink.Dial()
	if err != nil {
		return nil, err
	}
	family, err := genl.ResolveFamily(ctx, familyName)
	if err != nil {
		genl.Close()
		return nil, fmt.Errorf("ethtool: resolving family (kernel too old? needs 5.6+): %w", err)
	}
	return &Conn{genl: genl, family: family}, nil
}

// Close releases the underlying Generic Netlink connection.
func (c *Conn) Close() error { return c.genl.Close() }

func encodeHeader(enc *nlink.AttributeEncoder, headerAttr uint16, devName string) {
	tok := enc.NestStart(headerAttr)
	enc.String(headerDevName, devName)
	enc.NestEnd(tok)
}

// LinkState fetches the up/down state and signal quality of a device.
func (c *Conn) LinkState(ctx context.Context, devName string) (LinkState, error) {
	enc := nlink.NewAttributeEncoder()
	encodeHeader(enc, linkstateHeader, devName)

	replies, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: msgLinkstateGet}, enc.Bytes())
	if err != nil {
		return LinkState{}, err
	}
	if len(replies) == 0 {
		return LinkState{}, fmt.Errorf("ethtool: device %q not found", devName)
	}
	return parseLinkState(replies[0]), nil
}

// LinkModes fetches a device's current speed, duplex, autonegotiation and
// lane count.
func (c *Conn) LinkModes(ctx context.Context, devName string) (LinkModes, error) {
	enc := nlink.NewAttributeEncoder()
	encodeHeader(enc, linkmodesHeader, devName)

	replies, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: msgLinkmodesGet}, enc.Bytes())
	if err != nil {
		return LinkModes{}, err
	}
	if len(replies) == 0 {
		return LinkModes{}, fmt.Errorf("ethtool: device %q not found", devName)
	}
	return parseLinkModes(replies[0]), nil
}

// SetLinkModes pushes speed/duplex/autoneg changes for a device. Speed and
// Duplex are sent only when non-nil, so the kernel leaves them untouched
// otherwise; Autoneg is always sent, so its zero value turns
// autonegotiation off. Lanes is not sent.
func (c *Conn) SetLinkModes(ctx context.Context, devName string, modes LinkModes) error {
	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: msgLinkmodesSet}, encodeLinkModes(devName, modes))
	return err
}

// encodeLinkModes builds the attribute payload of a LINKMODES_SET request.
func encodeLinkModes(devName string, modes LinkModes) []byte {
	enc := nlink.NewAttributeEncoder()
	encodeHeader(enc, linkmodesHeader, devName)
	enc.Uint8(linkmodesAutoneg, boolToUint8(modes.Autoneg))
	if modes.Speed != nil {
		enc.Uint32(linkmodesSpeed, *modes.Speed)
	}
	if modes.Duplex != nil {
		enc.Uint8(linkmodesDuplex, uint8(*modes.Duplex))
	}
	return enc.Bytes()
}

// Rings fetches a device's ring buffer sizes.
func (c *Conn) Rings(ctx context.Context, devName string) (Rings, error) {
	enc := nlink.NewAttributeEncoder()
	encodeHeader(enc, ringsHeader, devName)

	replies, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: msgRingsGet}, enc.Bytes())
	if err != nil {
		return Rings{}, err
	}
	if len(replies) == 0 {
		return Rings{}, fmt.Errorf("ethtool: device %q not found", devName)
	}
	return parseRings(replies[0]), nil
}

// SetRings resizes a device's RX/TX ring buffers. Only Rx/RxMini/RxJumbo/Tx
// are settable; the *Max fields are read-only device limits.
func (c *Conn) SetRings(ctx context.Context, devName string, r Rings) error {
	enc := nlink.NewAttributeEncoder()
	encodeHeader(enc, ringsHeader, devName)
	if r.Rx != 0 {
		enc.Uint32(ringsRx, r.Rx)
	}
	if r.RxMini != 0 {
		enc.Uint32(ringsRxMini, r.RxMini)
	}
	if r.RxJumbo != 0 {
		enc.Uint32(ringsRxJumbo, r.RxJumbo)
	}
	if r.Tx != 0 {
		enc.Uint32(ringsTx, r.Tx)
	}

	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: msgRingsSet}, enc.Bytes())
	return err
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
