package netlink

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// Attribute type flags, packed into the top two bits of nla_type.
const (
	Nested       uint16 = 0x8000
	NetByteOrder uint16 = 0x4000
	attrTypeMask uint16 = 0x3fff
)

// attrHeaderLen is the size of a netlink attribute header (struct nlattr):
// {len uint16, type uint16}.
const attrHeaderLen = 4

var (
	errAttrTruncated = errors.New("netlink: attribute payload truncated")
	errAttrLength    = errors.New("netlink: attribute has unexpected length")
)

// AttributeEncoder builds a sequence of 4-byte-aligned, possibly-nested
// attributes, the payload half of a netlink Message (spec.md §4.1). The
// zero value is not usable; use NewAttributeEncoder.
type AttributeEncoder struct {
	b []byte
}

// NewAttributeEncoder returns an encoder with an empty attribute buffer.
func NewAttributeEncoder() *AttributeEncoder {
	return &AttributeEncoder{}
}

// Bytes returns the encoded attribute bytes built so far. The result is
// always a multiple of 4 bytes (spec.md invariant/property P2).
func (e *AttributeEncoder) Bytes() []byte {
	return e.b
}

// Len returns the number of bytes in the encoder's buffer so far.
func (e *AttributeEncoder) Len() int {
	return len(e.b)
}

// appendHeader reserves space for an attribute header and returns the
// offset at which it starts.
func (e *AttributeEncoder) appendHeader(attrType uint16) int {
	off := len(e.b)
	e.b = append(e.b, make([]byte, attrHeaderLen)...)
	binary.LittleEndian.PutUint16(e.b[off+2:off+4], attrType)
	return off
}

// finishAttr patches the length field of the attribute header at off and
// pads the payload out to a 4-byte boundary.
func (e *AttributeEncoder) finishAttr(off int) {
	length := len(e.b) - off
	binary.LittleEndian.PutUint16(e.b[off:off+2], uint16(length))
	if pad := align(length) - length; pad > 0 {
		e.b = append(e.b, make([]byte, pad)...)
	}
}

// RawBytes appends a raw byte-string attribute.
func (e *AttributeEncoder) RawBytes(attrType uint16, value []byte) {
	off := e.appendHeader(attrType)
	e.b = append(e.b, value...)
	e.finishAttr(off)
}

// Flag appends a zero-length "flag" attribute — its mere presence is the
// value (spec.md boundary behavior: length == header size is valid).
func (e *AttributeEncoder) Flag(attrType uint16) {
	off := e.appendHeader(attrType)
	e.finishAttr(off)
}

// Uint8 appends a single-byte attribute.
func (e *AttributeEncoder) Uint8(attrType uint16, value uint8) {
	off := e.appendHeader(attrType)
	e.b = append(e.b, value)
	e.finishAttr(off)
}

// Uint16 appends a native-endian (host, i.e. little-endian on every
// supported architecture) uint16 attribute — used for lengths and flags
// that aren't defined in network byte order.
func (e *AttributeEncoder) Uint16(attrType uint16, value uint16) {
	off := e.appendHeader(attrType)
	e.b = binary.LittleEndian.AppendUint16(e.b, value)
	e.finishAttr(off)
}

// Uint16BE appends a big-endian uint16 attribute — used for fields the
// kernel defines in network byte order, e.g. ports.
func (e *AttributeEncoder) Uint16BE(attrType uint16, value uint16) {
	off := e.appendHeader(attrType)
	e.b = binary.BigEndian.AppendUint16(e.b, value)
	e.finishAttr(off)
}

// Uint32 appends a native-endian uint32 attribute — used for ifindex,
// flags, and other host-order fields.
func (e *AttributeEncoder) Uint32(attrType uint16, value uint32) {
	off := e.appendHeader(attrType)
	e.b = binary.LittleEndian.AppendUint32(e.b, value)
	e.finishAttr(off)
}

// Uint32BE appends a big-endian uint32 attribute — used for VNIs,
// EtherTypes, and other network-order fields.
func (e *AttributeEncoder) Uint32BE(attrType uint16, value uint32) {
	off := e.appendHeader(attrType)
	e.b = binary.BigEndian.AppendUint32(e.b, value)
	e.finishAttr(off)
}

// Uint64 appends a native-endian uint64 attribute.
func (e *AttributeEncoder) Uint64(attrType uint16, value uint64) {
	off := e.appendHeader(attrType)
	e.b = binary.LittleEndian.AppendUint64(e.b, value)
	e.finishAttr(off)
}

// String appends a null-terminated UTF-8 string attribute (e.g. IFLA_IFNAME).
func (e *AttributeEncoder) String(attrType uint16, value string) {
	off := e.appendHeader(attrType)
	e.b = append(e.b, value...)
	e.b = append(e.b, 0)
	e.finishAttr(off)
}

// RawString appends a string attribute without a trailing NUL.
func (e *AttributeEncoder) RawString(attrType uint16, value string) {
	off := e.appendHeader(attrType)
	e.b = append(e.b, value...)
	e.finishAttr(off)
}

// IP appends an IPv4 (4-byte) or IPv6 (16-byte) address attribute.
func (e *AttributeEncoder) IP(attrType uint16, ip net.IP) {
	if v4 := ip.To4(); v4 != nil {
		e.RawBytes(attrType, v4)
		return
	}
	e.RawBytes(attrType, ip.To16())
}

// NestToken identifies an in-flight nested attribute opened by NestStart;
// it records the offset so NestEnd can patch the length header in place
// without copying the nested body (spec.md §4.1 rationale).
type NestToken struct {
	offset int
}

// NestStart opens a nested attribute and returns a token to close it with
// NestEnd. The NLA_F_NESTED flag is set on the attribute type automatically.
func (e *AttributeEncoder) NestStart(attrType uint16) NestToken {
	off := e.appendHeader(attrType | Nested)
	return NestToken{offset: off}
}

// NestEnd closes the nested attribute opened by tok, setting its length to
// the span between the token's recorded offset and the encoder's current
// length (spec.md property P3).
func (e *AttributeEncoder) NestEnd(tok NestToken) {
	e.finishAttr(tok.offset)
}

// Attribute is a single decoded (type, payload) pair, with NLA_F_NESTED /
// NLA_F_NET_BYTEORDER flags already stripped from Type.
type Attribute struct {
	Type    uint16
	Nested  bool
	NetByte bool
	Data    []byte
}

// AttributeDecoder iterates the attributes in a byte slice (the payload of
// a netlink message, after any fixed family header, or the payload of a
// nested attribute). Iteration stops silently — without error — when fewer
// bytes remain than an attribute header, or when a declared length would
// walk past the slice (spec.md §4.1, boundary behaviors in §8).
type AttributeDecoder struct {
	b   []byte
	cur Attribute
	err error
}

// NewAttributeDecoder returns a decoder over b.
func NewAttributeDecoder(b []byte) *AttributeDecoder {
	return &AttributeDecoder{b: b}
}

// Next advances to the next attribute, returning false when iteration is
// exhausted (cleanly, or because Err is now non-nil).
func (d *AttributeDecoder) Next() bool {
	if d.err != nil {
		return false
	}
	if len(d.b) < attrHeaderLen {
		return false
	}

	length := binary.LittleEndian.Uint16(d.b[0:2])
	rawType := binary.LittleEndian.Uint16(d.b[2:4])
	if int(length) < attrHeaderLen || int(length) > len(d.b) {
		// Malformed length walking past the slice: stop silently.
		return false
	}

	d.cur = Attribute{
		Type:    rawType & attrTypeMask,
		Nested:  rawType&Nested != 0,
		NetByte: rawType&NetByteOrder != 0,
		Data:    d.b[attrHeaderLen:length],
	}

	adv := align(int(length))
	if adv > len(d.b) {
		adv = len(d.b)
	}
	d.b = d.b[adv:]
	return true
}

// Type returns the current attribute's type, with flag bits stripped.
func (d *AttributeDecoder) Type() uint16 { return d.cur.Type }

// Nested reports whether the current attribute is tagged NLA_F_NESTED.
func (d *AttributeDecoder) Nested() bool { return d.cur.Nested }

// Bytes returns the current attribute's raw payload.
func (d *AttributeDecoder) Bytes() []byte { return d.cur.Data }

// Err returns the first error encountered during extraction, if any.
func (d *AttributeDecoder) Err() error { return d.err }

func (d *AttributeDecoder) setErr(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Uint8 extracts the current attribute's payload as a single byte.
func (d *AttributeDecoder) Uint8() uint8 {
	if len(d.cur.Data) < 1 {
		d.setErr(fmt.Errorf("%w: attribute %d: %v", errAttrLength, d.cur.Type, errAttrTruncated))
		return 0
	}
	return d.cur.Data[0]
}

// Uint16 extracts a native-endian uint16.
func (d *AttributeDecoder) Uint16() uint16 {
	if len(d.cur.Data) < 2 {
		d.setErr(fmt.Errorf("%w: attribute %d", errAttrTruncated, d.cur.Type))
		return 0
	}
	return binary.LittleEndian.Uint16(d.cur.Data)
}

// Uint16BE extracts a big-endian uint16.
func (d *AttributeDecoder) Uint16BE() uint16 {
	if len(d.cur.Data) < 2 {
		d.setErr(fmt.Errorf("%w: attribute %d", errAttrTruncated, d.cur.Type))
		return 0
	}
	return binary.BigEndian.Uint16(d.cur.Data)
}

// Uint32 extracts a native-endian uint32.
func (d *AttributeDecoder) Uint32() uint32 {
	if len(d.cur.Data) < 4 {
		d.setErr(fmt.Errorf("%w: attribute %d", errAttrTruncated, d.cur.Type))
		return 0
	}
	return binary.LittleEndian.Uint32(d.cur.Data)
}

// Uint32BE extracts a big-endian uint32.
func (d *AttributeDecoder) Uint32BE() uint32 {
	if len(d.cur.Data) < 4 {
		d.setErr(fmt.Errorf("%w: attribute %d", errAttrTruncated, d.cur.Type))
		return 0
	}
	return binary.BigEndian.Uint32(d.cur.Data)
}

// Uint64 extracts a native-endian uint64.
func (d *AttributeDecoder) Uint64() uint64 {
	if len(d.cur.Data) < 8 {
		d.setErr(fmt.Errorf("%w: attribute %d", errAttrTruncated, d.cur.Type))
		return 0
	}
	return binary.LittleEndian.Uint64(d.cur.Data)
}

// String extracts a null-terminated UTF-8 string, trimming the NUL.
func (d *AttributeDecoder) String() string {
	b := d.cur.Data
	if len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// BytesValue extracts the current attribute's raw payload — an alias of
// Bytes, named to read naturally alongside Uint32()/String()/IP().
func (d *AttributeDecoder) BytesValue() []byte { return d.cur.Data }

// IP extracts an IPv4 or IPv6 address, sized by the payload length.
func (d *AttributeDecoder) IP() net.IP {
	switch len(d.cur.Data) {
	case net.IPv4len, net.IPv6len:
		ip := make(net.IP, len(d.cur.Data))
		copy(ip, d.cur.Data)
		return ip
	default:
		d.setErr(fmt.Errorf("%w: attribute %d: unexpected address length %d", errAttrLength, d.cur.Type, len(d.cur.Data)))
		return nil
	}
}

// Nest returns a decoder over the current attribute's payload, for walking
// a nested attribute's children.
func (d *AttributeDecoder) Nest() *AttributeDecoder {
	return NewAttributeDecoder(d.cur.Data)
}
