package options

import (
	"encoding/binary"

	"github.com/kuuji/nlink"
)

// TCA_TBF_* attributes (struct tc_tbf_qopt wrapped in TCA_TBF_PARMS, plus
// 64-bit rate/peakrate attributes for values a 32-bit tc_ratespec can't
// hold).
const (
	tcaTBFParms   = 1
	tcaTBFRTab    = 2
	tcaTBFPTab    = 3
	tcaTBFRate64  = 6
	tcaTBFPRate64 = 7
	tcaTBFBurst   = 8
)

// TBF is the options for the "tbf" (token bucket filter) qdisc.
type TBF struct {
	Rate  uint64 // bytes/sec
	Burst uint32 // bytes
	Limit uint32 // bytes; bounds queueing latency at Rate
}

func (o TBF) Kind() string { return "tbf" }

func (o TBF) Encode() []byte {
	rate32 := uint32(o.Rate)
	if o.Rate > 0xFFFFFFFF {
		rate32 = 0xFFFFFFFF
	}

	table, cellLog := buildRateTable(rate32, 0)

	// struct tc_tbf_qopt: {rate tc_ratespec(12), peakrate tc_ratespec(12),
	// limit u32, buffer u32}. buffer is the burst expressed as the time,
	// in kernel ticks, it takes to drain it at rate — not the raw byte
	// count — per the same derivation qdisc_get_rtab expects for rate.
	opt := make([]byte, 32)
	putRatespec(opt[0:12], rate32, cellLog)
	binary.LittleEndian.PutUint32(opt[24:28], o.Limit)
	binary.LittleEndian.PutUint32(opt[28:32], xmittime(rate32, o.Burst))

	enc := nlink.NewAttributeEncoder()
	enc.RawBytes(tcaTBFParms, opt)
	enc.RawBytes(tcaTBFRTab, encodeRateTable(table))
	if o.Rate > 0xFFFFFFFF {
		enc.Uint64(tcaTBFRate64, o.Rate)
	}
	return enc.Bytes()
}
