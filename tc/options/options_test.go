package options

import (
	"encoding/binary"
	"testing"

	"github.com/kuuji/nlink"
)

// decodeAttrs flattens a top-level attribute blob into a map keyed by
// attribute type, for tests that want to assert on a specific TLV's bytes.
func decodeAttrs(t *testing.T, b []byte) map[int][]byte {
	t.Helper()
	out := make(map[int][]byte)
	ad := nlink.NewAttributeDecoder(b)
	for ad.Next() {
		out[int(ad.Type())] = ad.Bytes()
	}
	if err := ad.Err(); err != nil {
		t.Fatalf("decoding attributes: %v", err)
	}
	return out
}

func TestHTBEncodeDefaultClass(t *testing.T) {
	t.Parallel()

	h := HTB{DefaultClass: 0x20, Rate2Quantum: 5}
	b := h.Encode()
	if len(b) == 0 {
		t.Fatal("Encode() returned no bytes")
	}
	glob, ok := decodeAttrs(t, b)[tcaHTBInit]
	if !ok || len(glob) != 20 {
		t.Fatalf("TCA_HTB_INIT = %v, want a 20-byte tc_htb_glob", glob)
	}
	if got := binary.LittleEndian.Uint32(glob[8:12]); got != 0x20 {
		t.Errorf("defcls = %#x, want 0x20", got)
	}
}

func TestHTBClassEncodeRate(t *testing.T) {
	t.Parallel()

	c := HTBClass{Rate: 125_000, Burst: 1600, Prio: 2}
	b := c.Encode()
	if len(b) == 0 {
		t.Fatal("Encode() returned no bytes")
	}
	parms, ok := decodeAttrs(t, b)[tcaHTBParms]
	if !ok || len(parms) != 44 {
		t.Fatalf("TCA_HTB_PARMS = %v, want a 44-byte tc_htb_opt", parms)
	}
	if got := binary.LittleEndian.Uint32(parms[8:12]); got != 125_000 {
		t.Errorf("rate = %d, want 125000", got)
	}
}

func TestTBFEncodeRateFitsIn32Bits(t *testing.T) {
	t.Parallel()

	o := TBF{Rate: 1_000_000, Burst: 1600, Limit: 3000}
	b := o.Encode()
	if len(b) == 0 {
		t.Fatal("Encode() returned no bytes")
	}
	ad := decodeAttrs(t, b)
	if _, ok := ad[tcaTBFRate64]; ok {
		t.Error("TCA_TBF_RATE64 emitted for a rate that fits in 32 bits")
	}
	if got := binary.LittleEndian.Uint32(ad[tcaTBFParms][8:12]); got != 1_000_000 {
		t.Errorf("tc_ratespec.rate = %d, want 1000000", got)
	}
}

func TestTBFEncodeEmitsRateTable(t *testing.T) {
	t.Parallel()

	o := TBF{Rate: 1_000_000, Burst: 1600, Limit: 3000}
	ad := decodeAttrs(t, o.Encode())
	rtab, ok := ad[tcaTBFRTab]
	if !ok {
		t.Fatal("TCA_TBF_RTAB attribute missing")
	}
	if len(rtab) != 256*4 {
		t.Fatalf("len(TCA_TBF_RTAB) = %d, want 1024", len(rtab))
	}
	parms, ok := ad[tcaTBFParms]
	if !ok {
		t.Fatal("TCA_TBF_PARMS attribute missing")
	}
	if cellLog := parms[0]; cellLog == 0 {
		t.Error("tc_ratespec.cell_log = 0, want derived from rtabMTU")
	}
	buffer := binary.LittleEndian.Uint32(parms[28:32])
	if buffer == 0 {
		t.Error("tc_tbf_qopt.buffer = 0 ticks, want a burst-derived value")
	}
}

func TestHTBClassEncodeEmitsRateAndCeilTables(t *testing.T) {
	t.Parallel()

	c := HTBClass{Rate: 125_000, Ceil: 250_000, Burst: 1600, CBurst: 1600, Prio: 2}
	ad := decodeAttrs(t, c.Encode())
	for _, typ := range []int{tcaHTBRTab, tcaHTBCTab} {
		v, ok := ad[typ]
		if !ok {
			t.Fatalf("attribute %d missing", typ)
		}
		if len(v) != 256*4 {
			t.Errorf("attribute %d length = %d, want 1024", typ, len(v))
		}
	}
	parms := ad[tcaHTBParms]
	if parms[0] == 0 || parms[12] == 0 {
		t.Error("rate/ceil tc_ratespec.cell_log = 0, want derived values")
	}
}

func TestXmittimeZeroRate(t *testing.T) {
	t.Parallel()

	if got := xmittime(0, 1500); got != 0 {
		t.Errorf("xmittime(0, 1500) = %d, want 0", got)
	}
}

func TestSFQEncodeLayout(t *testing.T) {
	t.Parallel()

	o := SFQ{Quantum: 1500, PerturbPeriod: 10, Limit: 127, Divisor: 1024, Flows: 128}
	b := o.Encode()
	if len(b) != 20 {
		t.Fatalf("len(Encode()) = %d, want 20", len(b))
	}
	if got := binary.LittleEndian.Uint32(b[0:4]); got != 1500 {
		t.Errorf("quantum = %d, want 1500", got)
	}
	if got := int32(binary.LittleEndian.Uint32(b[4:8])); got != 10 {
		t.Errorf("perturb_period = %d, want 10", got)
	}
}

func TestPRIOEncodeDefaultPriomap(t *testing.T) {
	t.Parallel()

	o := PRIO{Bands: 3}
	b := o.Encode()
	if len(b) != 20 {
		t.Fatalf("len(Encode()) = %d, want 20", len(b))
	}
	if got := int32(binary.LittleEndian.Uint32(b[0:4])); got != 3 {
		t.Errorf("bands = %d, want 3", got)
	}
	for i, want := range DefaultPriomap {
		if b[4+i] != want {
			t.Errorf("priomap[%d] = %d, want %d", i, b[4+i], want)
		}
	}
}
