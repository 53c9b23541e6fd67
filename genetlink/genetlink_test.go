package genetlink

import (
	"testing"

	"github.com/kuuji/nlink"
)

func TestHeaderRoundTrip(t *testing.T) {
	t.Parallel()

	h := Header{Command: 5, Version: 1}
	b := h.MarshalBinary()

	got, rest, err := UnmarshalHeader(append(b, []byte{0xAA, 0xBB}...))
	if err != nil {
		t.Fatalf("UnmarshalHeader: %v", err)
	}
	if got != h {
		t.Errorf("UnmarshalHeader() = %+v, want %+v", got, h)
	}
	if len(rest) != 2 {
		t.Errorf("rest = %d bytes, want 2", len(rest))
	}
}

func TestUnmarshalHeaderShort(t *testing.T) {
	t.Parallel()

	_, _, err := UnmarshalHeader([]byte{1, 2})
	if err == nil {
		t.Fatal("expected an error for a truncated genlmsghdr")
	}
}

func TestParseFamily(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.Uint16(ctrlAttrFamilyID, 27)
	enc.Uint32(ctrlAttrVersion, 1)
	tok := enc.NestStart(ctrlAttrMcastGroups)
	gtok := enc.NestStart(1)
	enc.String(ctrlAttrMcastGrpName, "config")
	enc.Uint32(ctrlAttrMcastGrpID, 2)
	enc.NestEnd(gtok)
	enc.NestEnd(tok)

	payload := append(Header{Command: ctrlCmdGetFamily, Version: 1}.MarshalBinary(), enc.Bytes()...)

	f, err := parseFamily(nlink.Message{Data: payload})
	if err != nil {
		t.Fatalf("parseFamily: %v", err)
	}
	if f.ID != 27 {
		t.Errorf("ID = %d, want 27", f.ID)
	}
	if f.Groups["config"] != 2 {
		t.Errorf("Groups[config] = %d, want 2", f.Groups["config"])
	}
}
