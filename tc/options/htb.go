package options

import (
	"encoding/binary"

	"github.com/kuuji/nlink"
)

// HTB TCA_OPTIONS nested attributes (struct tc_htb_glob / tc_htb_opt).
const (
	tcaHTBParms  = 1
	tcaHTBInit   = 2
	tcaHTBCTab   = 3
	tcaHTBRTab   = 4
	tcaHTBRate64 = 6
	tcaHTBCeil64 = 7
)

// HTB is the qdisc-level options for "htb" (struct tc_htb_glob, wrapped in
// TCA_HTB_INIT).
type HTB struct {
	DefaultClass uint32 // minor number of the class unclassified traffic goes to
	Rate2Quantum uint32 // 0 defaults to 10, htb's own default
}

func (h HTB) Kind() string { return "htb" }

func (h HTB) Encode() []byte {
	r2q := h.Rate2Quantum
	if r2q == 0 {
		r2q = 10
	}
	glob := make([]byte, 20) // version, rate2quantum, defcls, debug, direct_pkts
	binary.LittleEndian.PutUint32(glob[0:4], 3)
	binary.LittleEndian.PutUint32(glob[4:8], r2q)
	binary.LittleEndian.PutUint32(glob[8:12], h.DefaultClass)

	enc := nlink.NewAttributeEncoder()
	enc.RawBytes(tcaHTBInit, glob)
	return enc.Bytes()
}

// HTBClass is the class-level options for an "htb" class (struct
// tc_htb_opt, wrapped in TCA_HTB_PARMS, with TCA_HTB_RATE64/CEIL64 for
// rates that don't fit in 32 bits).
type HTBClass struct {
	Rate   uint64 // bytes/sec
	Ceil   uint64 // bytes/sec, 0 means equal to Rate
	Burst  uint32 // bytes
	CBurst uint32 // bytes
	Prio   uint32
}

func (h HTBClass) Kind() string { return "htb" }

func (h HTBClass) Encode() []byte {
	ceil := h.Ceil
	if ceil == 0 {
		ceil = h.Rate
	}

	rate32 := uint32(h.Rate)
	if h.Rate > 0xFFFFFFFF {
		rate32 = 0xFFFFFFFF
	}
	ceil32 := uint32(ceil)
	if ceil > 0xFFFFFFFF {
		ceil32 = 0xFFFFFFFF
	}

	rtab, rCellLog := buildRateTable(rate32, 0)
	ctab, cCellLog := buildRateTable(ceil32, 0)

	// struct tc_htb_opt: {rate tc_ratespec(12), ceil tc_ratespec(12),
	// buffer u32, cbuffer u32, quantum u32, level u32, prio u32}
	opt := make([]byte, 44)
	putRatespec(opt[0:12], rate32, rCellLog)
	putRatespec(opt[12:24], ceil32, cCellLog)
	binary.LittleEndian.PutUint32(opt[24:28], xmittime(rate32, h.Burst))
	binary.LittleEndian.PutUint32(opt[28:32], xmittime(ceil32, h.CBurst))
	binary.LittleEndian.PutUint32(opt[40:44], h.Prio)

	enc := nlink.NewAttributeEncoder()
	enc.RawBytes(tcaHTBParms, opt)
	enc.RawBytes(tcaHTBRTab, encodeRateTable(rtab))
	enc.RawBytes(tcaHTBCTab, encodeRateTable(ctab))
	if h.Rate > 0xFFFFFFFF {
		enc.Uint64(tcaHTBRate64, h.Rate)
	}
	if ceil > 0xFFFFFFFF {
		enc.Uint64(tcaHTBCeil64, ceil)
	}
	return enc.Bytes()
}

