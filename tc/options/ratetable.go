package options

import "encoding/binary"

// rtabMTU is the MTU iproute2 assumes when it has no interface to ask
// (tc_core.c's tc_calc_rtable default), used to size the 256-entry table's
// cell granularity.
const rtabMTU = 2047

// ticksPerSec is PSCHED's tick resolution on any kernel built with
// high-resolution timers (every kernel in practice since 2.6) — one psched
// tick equals one microsecond, so xmittime needs no clock-calibration step.
const ticksPerSec = 1_000_000

// cellLogFor returns the smallest cell_log such that mtu>>cell_log fits in
// a single byte, i.e. the 256-entry rate table can address up to mtu.
func cellLogFor(mtu uint32) uint8 {
	var log uint8
	for (mtu >> log) > 255 {
		log++
	}
	return log
}

// xmittime returns the number of psched ticks it takes to transmit size
// bytes at rateBps bytes/sec, rounded up — tc_core_usec2tick(tc_calc_xmittime).
func xmittime(rateBps, size uint32) uint32 {
	if rateBps == 0 {
		return 0
	}
	num := uint64(size) * ticksPerSec
	usec := num / uint64(rateBps)
	if num%uint64(rateBps) != 0 {
		usec++
	}
	if usec > 0xFFFFFFFF {
		usec = 0xFFFFFFFF
	}
	return uint32(usec)
}

// buildRateTable computes the 256-entry TCA_*_RTAB/CTAB table the kernel's
// qdisc_get_rtab requires alongside a tc_ratespec: rtab[i] is the transmit
// time, in ticks, of a packet spanning cell i (spec.md §4.5's "buffer in
// kernel ticks is derived from burst/rate").
func buildRateTable(rateBps uint32, mpu uint16) (table [256]uint32, cellLog uint8) {
	cellLog = cellLogFor(rtabMTU)
	for i := 0; i < 256; i++ {
		sz := uint32(i+1) << cellLog
		if uint32(mpu) > sz {
			sz = uint32(mpu)
		}
		table[i] = xmittime(rateBps, sz)
	}
	return table, cellLog
}

// encodeRateTable serializes a rate table as 256 little-endian u32 ticks,
// the raw payload TCA_TBF_RTAB/TCA_HTB_RTAB/TCA_HTB_CTAB expect.
func encodeRateTable(t [256]uint32) []byte {
	b := make([]byte, len(t)*4)
	for i, v := range t {
		binary.LittleEndian.PutUint32(b[i*4:i*4+4], v)
	}
	return b
}

// putRatespec fills a 12-byte struct tc_ratespec: {cell_log u8, linklayer
// u8, overhead i16, cell_align i16, mpu u16, rate u32}. cell_align is left
// at -1 so the kernel derives it itself, matching tc's own behavior.
func putRatespec(b []byte, rate uint32, cellLog uint8) {
	b[0] = cellLog
	b[4] = 0xff
	b[5] = 0xff
	binary.LittleEndian.PutUint32(b[8:12], rate)
}
