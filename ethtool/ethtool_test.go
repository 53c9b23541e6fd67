package ethtool

import (
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseLinkState(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.Uint8(linkstateLink, 1)
	enc.Uint32(linkstateSQI, 7)
	enc.Uint32(linkstateSQIMax, 10)

	s := parseLinkState(enc.Bytes())
	if !s.Link {
		t.Error("Link = false, want true")
	}
	if s.SQI == nil || *s.SQI != 7 {
		t.Errorf("SQI = %v, want 7", s.SQI)
	}
	if s.SQIMax == nil || *s.SQIMax != 10 {
		t.Errorf("SQIMax = %v, want 10", s.SQIMax)
	}
}

func TestParseLinkModes(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.Uint8(linkmodesAutoneg, 1)
	enc.Uint32(linkmodesSpeed, 1000)
	enc.Uint8(linkmodesDuplex, uint8(DuplexFull))
	enc.Uint32(linkmodesLanes, 2)

	m := parseLinkModes(enc.Bytes())
	if !m.Autoneg {
		t.Error("Autoneg = false, want true")
	}
	if m.Speed == nil || *m.Speed != 1000 {
		t.Errorf("Speed = %v, want 1000", m.Speed)
	}
	if m.Duplex == nil || *m.Duplex != DuplexFull {
		t.Errorf("Duplex = %v, want Full", m.Duplex)
	}
	if m.Lanes == nil || *m.Lanes != 2 {
		t.Errorf("Lanes = %v, want 2", m.Lanes)
	}
}

func TestParseRings(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.Uint32(ringsRxMax, 4096)
	enc.Uint32(ringsRx, 1024)
	enc.Uint32(ringsTxMax, 4096)
	enc.Uint32(ringsTx, 512)

	r := parseRings(enc.Bytes())
	if r.RxMax != 4096 || r.Rx != 1024 || r.TxMax != 4096 || r.Tx != 512 {
		t.Errorf("parseRings() = %+v", r)
	}
}

func TestSetLinkModesOmitsNilFields(t *testing.T) {
	t.Parallel()

	dec := nlink.NewAttributeDecoder(encodeLinkModes("eth0", LinkModes{Autoneg: true}))
	var sawSpeed bool
	for dec.Next() {
		if dec.Type() == linkmodesSpeed {
			sawSpeed = true
		}
	}
	if sawSpeed {
		t.Error("encoded a SPEED attribute with no Speed value set")
	}
}
