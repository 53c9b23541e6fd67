// Package macsec implements the MACsec (IEEE 802.1AE) Generic Netlink
// family (family name "macsec"): TX/RX secure channel and secure
// association configuration, the second of the Generic Netlink families
// spec.md §4.6 names.
package macsec

import (
	"context"
	"fmt"

	"github.com/kuuji/nlink"
	"github.com/kuuji/nlink/genetlink"
)

const familyName = "macsec"

// MACSEC_CMD_*.
const (
	cmdGetTxsc    = 0
	cmdAddRxsc    = 1
	cmdDelRxsc    = 2
	cmdUpdRxsc    = 3
	cmdAddTxsa    = 4
	cmdDelTxsa    = 5
	cmdAddRxsa    = 6
	cmdDelRxsa    = 7
	cmdGetRxsc    = 8
	cmdGetTxsa    = 9
	cmdGetRxsa    = 10
	cmdUpdTxsa    = 11
	cmdUpdRxsa    = 12
	cmdUpdOffload = 13
)

// MACSEC_ATTR_*.
const (
	attrIfindex    = 1
	attrRxscConfig = 2
	attrRxscStats  = 3
	attrSaConfig   = 4
	attrSaStats    = 5
	attrSecyConfig = 6
	attrSecyStats  = 7
	attrTxscStats  = 8
	attrRxscList   = 9
	attrTxsaList   = 10
	attrOffload    = 11
)

// MACSEC_RXSC_ATTR_*.
const (
	rxscAttrSCI    = 1
	rxscAttrActive = 2
	rxscAttrSaList = 3
)

// MACSEC_SA_ATTR_*.
const (
	saAttrAN     = 1
	saAttrActive = 2
	saAttrPN     = 3
	saAttrKey    = 4
	saAttrKeyID  = 5
)

// MACSEC_SECY_ATTR_*.
const (
	secyAttrSCI         = 1
	secyAttrEncodingSA  = 2
	secyAttrWindow      = 3
	secyAttrCipherSuite = 4
	secyAttrICVLen      = 5
	secyAttrEncrypt     = 6
	secyAttrProtect     = 7
	secyAttrReplay      = 8
	secyAttrValidate    = 9
	secyAttrIncSCI      = 11
	secyAttrES          = 12
	secyAttrSCB         = 13
)

// Cipher suite IDs (MACSEC_CIPHER_ID_*).
const (
	CipherGCMAES128     uint64 = 0x0080020001000001
	CipherGCMAES256     uint64 = 0x0080C20001000001
	CipherGCMAESXPN128  uint64 = 0x0080C20001000002
	CipherGCMAESXPN256  uint64 = 0x0080C20001000003
)

// Validate is a frame validation mode (MACSEC_VALIDATE_*).
type Validate uint8

const (
	ValidateDisabled Validate = 0
	ValidateCheck    Validate = 1
	ValidateStrict   Validate = 2
)

// SecY is a device's SecY (Secure Entity) configuration.
type SecY struct {
	SCI         uint64
	CipherSuite uint64
	ICVLen      uint8
	Encrypt     bool
	Protect     bool
	Replay      bool
	Window      uint32
	Validate    Validate
	IncludeSCI  bool
}

// SA (Secure Association) configuration, shared by TX and RX SAs.
type SA struct {
	AssocNum   uint8
	Active     bool
	PacketNum  uint64
	Key        []byte // 16 bytes for GCM-AES-128, 32 for GCM-AES-256
	KeyID      []byte // up to 16 bytes
}

// RxSC is a receive secure channel: a peer SCI plus its installed RX SAs.
type RxSC struct {
	SCI    uint64
	Active bool
}

// Device is a MACsec device's full configuration.
type Device struct {
	Ifindex uint32
	SecY    SecY
	TxSAs   []SA
	RxSCs   []RxSC
}

// Conn is a MACsec configuration connection over Generic Netlink.
type Conn struct {
	genl   *genetlink.Conn
	family genetlink.Family
}

// Dial resolves the "macsec" family and returns a ready Conn.
func Dial(ctx context.Context) (*Conn, error) {
	genl, err := genetlink.Dial()
	if err != nil {
		return nil, err
	}
	family, err := genl.ResolveFamily(ctx, familyName)
	if err != nil {
		genl.Close()
		return nil, fmt.Errorf("macsec: resolving family (is CONFIG_MACSEC built?): %w", err)
	}
	return &Conn{genl: genl, family: family}, nil
}

// Close releases the underlying Generic Netlink connection.
func (c *Conn) Close() error { return c.genl.Close() }

// Device fetches a device's SecY configuration, TX SAs and RX SCs,
// identified by ifindex. Statistics attributes in the reply are not decoded.
func (c *Conn) Device(ctx context.Context, ifindex uint32) (*Device, error) {
	enc := nlink.NewAttributeEncoder()
	enc.Uint32(attrIfindex, ifindex)

	replies, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdGetTxsc}, enc.Bytes())
	if err != nil {
		return nil, err
	}
	if len(replies) == 0 {
		return nil, fmt.Errorf("macsec: device with ifindex %d not found", ifindex)
	}
	return parseDevice(replies[0])
}

// AddRxSC installs a new receive secure channel for the given peer SCI.
func (c *Conn) AddRxSC(ctx context.Context, ifindex uint32, sci uint64) error {
	enc := nlink.NewAttributeEncoder()
	enc.Uint32(attrIfindex, ifindex)
	tok := enc.NestStart(attrRxscConfig)
	enc.Uint64(rxscAttrSCI, sci)
	enc.NestEnd(tok)

	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdAddRxsc}, enc.Bytes())
	return err
}

// DelRxSC removes a receive secure channel.
func (c *Conn) DelRxSC(ctx context.Context, ifindex uint32, sci uint64) error {
	enc := nlink.NewAttributeEncoder()
	enc.Uint32(attrIfindex, ifindex)
	tok := enc.NestStart(attrRxscConfig)
	enc.Uint64(rxscAttrSCI, sci)
	enc.NestEnd(tok)

	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdDelRxsc}, enc.Bytes())
	return err
}

// AddTxSA installs a transmit secure association.
func (c *Conn) AddTxSA(ctx context.Context, ifindex uint32, sa SA) error {
	enc := nlink.NewAttributeEncoder()
	enc.Uint32(attrIfindex, ifindex)
	encodeSA(enc, sa)

	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdAddTxsa}, enc.Bytes())
	return err
}

// AddRxSA installs a receive secure association under an existing RX SC.
func (c *Conn) AddRxSA(ctx context.Context, ifindex uint32, sci uint64, sa SA) error {
	enc := nlink.NewAttributeEncoder()
	enc.Uint32(attrIfindex, ifindex)
	rtok := enc.NestStart(attrRxscConfig)
	enc.Uint64(rxscAttrSCI, sci)
	enc.NestEnd(rtok)
	encodeSA(enc, sa)

	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdAddRxsa}, enc.Bytes())
	return err
}

// DelTxSA removes a transmit secure association by association number.
func (c *Conn) DelTxSA(ctx context.Context, ifindex uint32, an uint8) error {
	enc := nlink.NewAttributeEncoder()
	enc.Uint32(attrIfindex, ifindex)
	tok := enc.NestStart(attrSaConfig)
	enc.Uint8(saAttrAN, an)
	enc.NestEnd(tok)

	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdDelTxsa}, enc.Bytes())
	return err
}

// DelRxSA removes a receive secure association under an RX SC.
func (c *Conn) DelRxSA(ctx context.Context, ifindex uint32, sci uint64, an uint8) error {
	enc := nlink.NewAttributeEncoder()
	enc.Uint32(attrIfindex, ifindex)
	rtok := enc.NestStart(attrRxscConfig)
	enc.Uint64(rxscAttrSCI, sci)
	enc.NestEnd(rtok)
	stok := enc.NestStart(attrSaConfig)
	enc.Uint8(saAttrAN, an)
	enc.NestEnd(stok)

	_, err := c.genl.Execute(ctx, c.family, genetlink.Header{Command: cmdDelRxsa}, enc.Bytes())
	return err
}

func encodeSA(enc *nlink.AttributeEncoder, sa SA) {
	tok := enc.NestStart(attrSaConfig)
	enc.Uint8(saAttrAN, sa.AssocNum)
	if sa.Active {
		enc.Uint8(saAttrActive, 1)
	}
	if sa.PacketNum != 0 {
		if sa.PacketNum > 0xFFFFFFFF {
			enc.Uint64(saAttrPN, sa.PacketNum)
		} else {
			enc.Uint32(saAttrPN, uint32(sa.PacketNum))
		}
	}
	if len(sa.Key) > 0 {
		enc.RawBytes(saAttrKey, sa.Key)
	}
	if len(sa.KeyID) > 0 {
		enc.RawBytes(saAttrKeyID, sa.KeyID)
	}
	enc.NestEnd(tok)
}
