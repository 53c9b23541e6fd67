// Package netlink implements the wire-format engine and request/response
// machinery for the Linux netlink IPC mechanism: a framed, TLV-attributed
// message codec and a non-blocking datagram socket runtime that multiplexes
// request/response traffic with multicast event streams.
//
// The typed per-family layers (RTNetlink, Generic Netlink families, traffic
// control, the declarative reconciler) live in sibling packages and are
// built entirely on the public API of this package.
package netlink

import (
	"encoding/binary"
	"errors"
	"strconv"
)

// nlmsgAlignTo is the alignment boundary (NLMSG_ALIGNTO) for netlink
// messages: every message, and every attribute within one, starts at an
// offset that is a multiple of 4 bytes.
const nlmsgAlignTo = 4

// headerLen is the size of a netlink message header (struct nlmsghdr):
// {len, type, flags, seq, pid}, all little-endian on every Linux
// architecture netlink is defined for.
const headerLen = 16

// align rounds length up to the next 4-byte boundary (NLMSG_ALIGN).
func align(length int) int {
	return (length + nlmsgAlignTo - 1) &^ (nlmsgAlignTo - 1)
}

// HeaderType is the nlmsg_type field: either one of the generic types below,
// or a family-specific message type (RTM_NEWLINK, a resolved Generic
// Netlink family ID, ...).
type HeaderType uint16

// Generic header types common to every netlink family.
const (
	Noop    HeaderType = 0x1
	Error   HeaderType = 0x2
	Done    HeaderType = 0x3
	Overrun HeaderType = 0x4
)

func (t HeaderType) String() string {
	switch t {
	case Noop:
		return "noop"
	case Error:
		return "error"
	case Done:
		return "done"
	case Overrun:
		return "overrun"
	default:
		return "type(" + strconv.Itoa(int(t)) + ")"
	}
}

// HeaderFlags is the nlmsg_flags field.
type HeaderFlags uint16

const (
	Request     HeaderFlags = 0x1
	Multi       HeaderFlags = 0x2
	Acknowledge HeaderFlags = 0x4
	Echo        HeaderFlags = 0x8

	// Dump-request flags (valid on GET requests).
	Root   HeaderFlags = 0x100
	Match  HeaderFlags = 0x200
	Atomic HeaderFlags = 0x400
	Dump   HeaderFlags = Root | Match

	// Create-request flags (valid on NEW requests); numerically overlap the
	// dump flags above because they apply to disjoint message types.
	Replace HeaderFlags = 0x100
	Excl    HeaderFlags = 0x200
	Create  HeaderFlags = 0x400
	Append  HeaderFlags = 0x800

	// Extended-ACK flags.
	Capped          HeaderFlags = 0x100
	AcknowledgeTLVs HeaderFlags = 0x200
)

// Header is the fixed 16-byte netlink message header (struct nlmsghdr).
type Header struct {
	// Length is the total length of the message, including this header.
	Length uint32
	Type   HeaderType
	Flags  HeaderFlags
	// Sequence must match between a request and its response(s); see
	// spec.md invariant I4.
	Sequence uint32
	// PID is the port-id of the sending socket (spec.md invariant I6), not
	// a process id despite the kernel's field name.
	PID uint32
}

var (
	errShortMessage      = errors.New("netlink: message shorter than header")
	errMessageMisaligned = errors.New("netlink: message length not 4-byte aligned")
	errLengthMismatch    = errors.New("netlink: declared length does not match buffer")
)

// Message is a full netlink datagram: a Header plus an opaque payload. The
// payload's structure (family fixed header followed by attributes) is
// interpreted by the typed layer, not by this package.
type Message struct {
	Header Header
	Data   []byte
}

// MarshalBinary encodes m, patching Header.Length to the aligned total
// length if the caller left it zero.
func (m Message) MarshalBinary() ([]byte, error) {
	total := align(headerLen + len(m.Data))
	if m.Header.Length == 0 {
		m.Header.Length = uint32(total)
	}
	if int(m.Header.Length) != total {
		return nil, errLengthMismatch
	}

	b := make([]byte, total)
	binary.LittleEndian.PutUint32(b[0:4], m.Header.Length)
	binary.LittleEndian.PutUint16(b[4:6], uint16(m.Header.Type))
	binary.LittleEndian.PutUint16(b[6:8], uint16(m.Header.Flags))
	binary.LittleEndian.PutUint32(b[8:12], m.Header.Sequence)
	binary.LittleEndian.PutUint32(b[12:16], m.Header.PID)
	copy(b[headerLen:], m.Data)
	return b, nil
}

// UnmarshalBinary decodes a single Message from b. b must contain exactly
// one message (callers splitting a datagram into its constituent messages
// use SplitMessages instead).
func (m *Message) UnmarshalBinary(b []byte) error {
	if len(b) < headerLen {
		return errShortMessage
	}
	if len(b) != align(len(b)) {
		return errMessageMisaligned
	}

	length := binary.LittleEndian.Uint32(b[0:4])
	if int(length) > len(b) {
		return errLengthMismatch
	}

	m.Header.Length = length
	m.Header.Type = HeaderType(binary.LittleEndian.Uint16(b[4:6]))
	m.Header.Flags = HeaderFlags(binary.LittleEndian.Uint16(b[6:8]))
	m.Header.Sequence = binary.LittleEndian.Uint32(b[8:12])
	m.Header.PID = binary.LittleEndian.Uint32(b[12:16])
	m.Data = b[headerLen:length]
	return nil
}

// SplitMessages walks a raw datagram (which may contain more than one
// netlink message back to back, 4-byte aligned) and returns each message's
// bytes. It stops, without error, as soon as fewer than headerLen bytes
// remain — see spec.md invariant I2.
func SplitMessages(b []byte) ([]Message, error) {
	var msgs []Message
	for len(b) >= headerLen {
		length := binary.LittleEndian.Uint32(b[0:4])
		if length < headerLen || int(length) > len(b) {
			// A malformed length that would walk past the buffer stops
			// iteration silently, per spec.md's boundary-behavior rule for
			// attribute iteration; the same policy applies one level up to
			// message iteration within a single recvmsg datagram.
			break
		}

		aligned := align(int(length))
		if aligned > len(b) {
			// The final message in a datagram needn't carry trailing pad
			// bytes; if padding it out would walk past the buffer, stop
			// silently rather than slicing out of range.
			break
		}

		var m Message
		if err := m.UnmarshalBinary(b[:aligned]); err != nil {
			return msgs, err
		}
		msgs = append(msgs, m)

		if aligned >= len(b) {
			break
		}
		b = b[aligned:]
	}
	return msgs, nil
}
