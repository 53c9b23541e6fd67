package netlink

import (
	"bytes"
	"net"
	"testing"
)

func TestAttributeRoundTrip(t *testing.T) {
	t.Parallel()

	const (
		attrU8  = 1
		attrU16 = 2
		attrU32 = 3
		attrU64 = 4
		attrStr = 5
		attrRaw = 6
		attrIP4 = 7
		attrIP6 = 8
		attrBE16 = 9
		attrBE32 = 10
		attrFlag = 11
	)

	enc := NewAttributeEncoder()
	enc.Uint8(attrU8, 0x42)
	enc.Uint16(attrU16, 0xBEEF)
	enc.Uint32(attrU32, 0xDEADBEEF)
	enc.Uint64(attrU64, 0x0102030405060708)
	enc.String(attrStr, "wg0")
	enc.RawBytes(attrRaw, []byte{1, 2, 3})
	enc.IP(attrIP4, net.ParseIP("192.168.1.1"))
	enc.IP(attrIP6, net.ParseIP("fd00::1"))
	enc.Uint16BE(attrBE16, 443)
	enc.Uint32BE(attrBE32, 0x08000000)
	enc.Flag(attrFlag)

	got := map[uint16]bool{}
	dec := NewAttributeDecoder(enc.Bytes())
	for dec.Next() {
		got[dec.Type()] = true
		switch dec.Type() {
		case attrU8:
			if v := dec.Uint8(); v != 0x42 {
				t.Errorf("u8 = %#x, want 0x42", v)
			}
		case attrU16:
			if v := dec.Uint16(); v != 0xBEEF {
				t.Errorf("u16 = %#x, want 0xBEEF", v)
			}
		case attrU32:
			if v := dec.Uint32(); v != 0xDEADBEEF {
				t.Errorf("u32 = %#x, want 0xDEADBEEF", v)
			}
		case attrU64:
			if v := dec.Uint64(); v != 0x0102030405060708 {
				t.Errorf("u64 = %#x, want 0x0102030405060708", v)
			}
		case attrStr:
			if v := dec.String(); v != "wg0" {
				t.Errorf("string = %q, want wg0", v)
			}
		case attrRaw:
			if !bytes.Equal(dec.BytesValue(), []byte{1, 2, 3}) {
				t.Errorf("raw bytes = %v, want [1 2 3]", dec.BytesValue())
			}
		case attrIP4:
			if ip := dec.IP(); !ip.Equal(net.ParseIP("192.168.1.1")) {
				t.Errorf("ipv4 = %v, want 192.168.1.1", ip)
			}
		case attrIP6:
			if ip := dec.IP(); !ip.Equal(net.ParseIP("fd00::1")) {
				t.Errorf("ipv6 = %v, want fd00::1", ip)
			}
		case attrBE16:
			if v := dec.Uint16BE(); v != 443 {
				t.Errorf("be16 = %d, want 443", v)
			}
		case attrBE32:
			if v := dec.Uint32BE(); v != 0x08000000 {
				t.Errorf("be32 = %#x, want 0x08000000", v)
			}
		case attrFlag:
			if len(dec.BytesValue()) != 0 {
				t.Errorf("flag payload = %v, want empty", dec.BytesValue())
			}
		}
	}
	if err := dec.Err(); err != nil {
		t.Fatalf("decoder error: %v", err)
	}

	for _, want := range []uint16{attrU8, attrU16, attrU32, attrU64, attrStr, attrRaw, attrIP4, attrIP6, attrBE16, attrBE32, attrFlag} {
		if !got[want] {
			t.Errorf("attribute %d missing from decode", want)
		}
	}
}

// TestAttributeAlignment exercises property P2: for any sequence of
// appends, the builder's final length is a multiple of 4, and every
// attribute header inside it starts at a 4-byte-aligned offset.
func TestAttributeAlignment(t *testing.T) {
	t.Parallel()

	enc := NewAttributeEncoder()
	enc.Uint8(1, 1)       // 5 bytes -> padded to 8
	enc.String(2, "abcde") // 4 + 6 = 10 -> padded to 12
	enc.RawBytes(3, nil)  // empty payload, 4 bytes

	b := enc.Bytes()
	if len(b)%4 != 0 {
		t.Fatalf("encoder length %d not 4-byte aligned", len(b))
	}

	dec := NewAttributeDecoder(b)
	count := 0
	for dec.Next() {
		count++
	}
	if count != 3 {
		t.Fatalf("decoded %d attributes, want 3", count)
	}
}

// TestNestedAttribute exercises property P3: a nested attribute's declared
// length equals the delta between NestStart's offset and the encoder's
// length at NestEnd.
func TestNestedAttribute(t *testing.T) {
	t.Parallel()

	const (
		outer = 1
		inner = 2
	)

	enc := NewAttributeEncoder()
	tok := enc.NestStart(outer)
	enc.Uint32(inner, 7)
	enc.Uint32(inner, 8)
	enc.NestEnd(tok)

	dec := NewAttributeDecoder(enc.Bytes())
	if !dec.Next() {
		t.Fatal("expected one top-level attribute")
	}
	if !dec.Nested() {
		t.Fatal("expected NLA_F_NESTED flag set")
	}
	if dec.Type() != outer {
		t.Fatalf("type = %d, want %d", dec.Type(), outer)
	}

	wantLen := attrHeaderLen + 2*align(attrHeaderLen+4)
	gotLen := attrHeaderLen + len(dec.BytesValue())
	if gotLen != wantLen {
		t.Fatalf("nested attribute length = %d, want %d", gotLen, wantLen)
	}

	inner1 := dec.Nest()
	var values []uint32
	for inner1.Next() {
		values = append(values, inner1.Uint32())
	}
	if len(values) != 2 || values[0] != 7 || values[1] != 8 {
		t.Fatalf("nested values = %v, want [7 8]", values)
	}
}

// TestAttributeDecoderTruncatedStopsIteration exercises the boundary
// behavior: a malformed attribute whose declared length walks past the
// slice stops iteration silently, with no error and no panic.
func TestAttributeDecoderTruncatedStopsIteration(t *testing.T) {
	t.Parallel()

	enc := NewAttributeEncoder()
	enc.Uint32(1, 42)
	b := enc.Bytes()

	// Corrupt the length field of the (only) attribute to claim more bytes
	// than are actually present.
	b[0] = 0xff
	b[1] = 0xff

	dec := NewAttributeDecoder(b)
	if dec.Next() {
		t.Fatal("expected Next to stop silently on an over-long declared length")
	}
	if dec.Err() != nil {
		t.Fatalf("expected no error from silent truncation, got %v", dec.Err())
	}
}

// TestAttributeDecoderShortHeaderStops exercises: iteration terminates
// cleanly when remaining bytes are fewer than a header (spec.md I2).
func TestAttributeDecoderShortHeaderStops(t *testing.T) {
	t.Parallel()

	dec := NewAttributeDecoder([]byte{1, 2, 3})
	if dec.Next() {
		t.Fatal("expected Next to return false for a 3-byte buffer")
	}
}

// TestAttributeFlagRoundTrip exercises the boundary behavior: an attribute
// with length == header-size is a valid flag attribute and iterates
// cleanly.
func TestAttributeFlagRoundTrip(t *testing.T) {
	t.Parallel()

	enc := NewAttributeEncoder()
	enc.Flag(9)

	dec := NewAttributeDecoder(enc.Bytes())
	if !dec.Next() {
		t.Fatal("expected one flag attribute")
	}
	if dec.Type() != 9 {
		t.Fatalf("type = %d, want 9", dec.Type())
	}
	if len(dec.BytesValue()) != 0 {
		t.Fatalf("flag payload = %v, want empty", dec.BytesValue())
	}
	if dec.Next() {
		t.Fatal("expected exactly one attribute")
	}
}
