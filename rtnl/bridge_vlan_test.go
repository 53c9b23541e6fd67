package rtnl

import (
	"encoding/binary"
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseBridgeVlans(t *testing.T) {
	t.Parallel()

	info := make([]byte, bridgeVlanInfoLen)
	binary.LittleEndian.PutUint16(info[0:2], bridgeVlanInfoPVID|bridgeVlanInfoUntagged)
	binary.LittleEndian.PutUint16(info[2:4], 100)

	outer := nlink.NewAttributeEncoder()
	tok := outer.NestStart(iflaAFSpec)
	outer.RawBytes(iflaBridgeVlanInfo, info)
	outer.NestEnd(tok)

	ifi := make([]byte, ifinfomsgLen)
	binary.LittleEndian.PutUint32(ifi[4:8], 3)
	m := nlink.Message{Data: append(ifi, outer.Bytes()...)}

	vlans, err := parseBridgeVlans(m)
	if err != nil {
		t.Fatalf("parseBridgeVlans() error = %v", err)
	}
	if len(vlans) != 1 {
		t.Fatalf("len(vlans) = %d, want 1", len(vlans))
	}
	v := vlans[0]
	if v.Ifindex != 3 || v.VID != 100 || !v.PVID || !v.Untagged {
		t.Errorf("vlan = %+v", v)
	}
}

func TestParseBridgeVlansShortMessage(t *testing.T) {
	t.Parallel()

	if _, err := parseBridgeVlans(nlink.Message{Data: []byte{1, 2}}); err == nil {
		t.Error("parseBridgeVlans() error = nil for truncated ifinfomsg")
	}
}
