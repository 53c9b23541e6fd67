package macsec

import (
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseDeviceSecY(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.Uint32(attrIfindex, 5)
	stok := enc.NestStart(attrSecyConfig)
	enc.Uint64(secyAttrSCI, 0x001122334455_0001)
	enc.Uint64(secyAttrCipherSuite, CipherGCMAES128)
	enc.Uint8(secyAttrICVLen, 16)
	enc.Uint8(secyAttrEncrypt, 1)
	enc.Uint8(secyAttrValidate, uint8(ValidateStrict))
	enc.NestEnd(stok)

	d, err := parseDevice(enc.Bytes())
	if err != nil {
		t.Fatalf("parseDevice: %v", err)
	}
	if d.Ifindex != 5 {
		t.Errorf("Ifindex = %d, want 5", d.Ifindex)
	}
	if d.SecY.CipherSuite != CipherGCMAES128 {
		t.Errorf("CipherSuite = %#x, want %#x", d.SecY.CipherSuite, CipherGCMAES128)
	}
	if !d.SecY.Encrypt {
		t.Error("Encrypt = false, want true")
	}
	if d.SecY.Validate != ValidateStrict {
		t.Errorf("Validate = %v, want Strict", d.SecY.Validate)
	}
}

func TestParseDeviceRxSCsAndTxSAs(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.Uint32(attrIfindex, 5)

	rtok := enc.NestStart(attrRxscList)
	r1 := enc.NestStart(1)
	enc.Uint64(rxscAttrSCI, 0xAA)
	enc.Uint8(rxscAttrActive, 1)
	enc.NestEnd(r1)
	enc.NestEnd(rtok)

	ttok := enc.NestStart(attrTxsaList)
	t1 := enc.NestStart(1)
	enc.Uint8(saAttrAN, 0)
	enc.Uint8(saAttrActive, 1)
	enc.RawBytes(saAttrKey, make([]byte, 16))
	enc.NestEnd(t1)
	enc.NestEnd(ttok)

	d, err := parseDevice(enc.Bytes())
	if err != nil {
		t.Fatalf("parseDevice: %v", err)
	}
	if len(d.RxSCs) != 1 || d.RxSCs[0].SCI != 0xAA || !d.RxSCs[0].Active {
		t.Fatalf("RxSCs = %+v", d.RxSCs)
	}
	if len(d.TxSAs) != 1 || d.TxSAs[0].AssocNum != 0 || len(d.TxSAs[0].Key) != 16 {
		t.Fatalf("TxSAs = %+v", d.TxSAs)
	}
}

func TestParseSAPacketNumberWidth(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.Uint32(saAttrPN, 42)
	sa := parseSA(nlink.NewAttributeDecoder(enc.Bytes()))
	if sa.PacketNum != 42 {
		t.Errorf("PacketNum = %d, want 42 (u32 form)", sa.PacketNum)
	}

	enc = nlink.NewAttributeEncoder()
	enc.Uint64(saAttrPN, 1<<40)
	sa = parseSA(nlink.NewAttributeDecoder(enc.Bytes()))
	if sa.PacketNum != 1<<40 {
		t.Errorf("PacketNum = %d, want %d (u64/XPN form)", sa.PacketNum, uint64(1)<<40)
	}
}
