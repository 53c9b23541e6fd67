package options

import "encoding/binary"

// PRIO is the options for the "prio" qdisc: a fixed number of priority
// bands and a priomap from Linux's internal 0-15 packet priority to a
// band index. Its TCA_OPTIONS payload is the raw struct tc_prio_qopt.
type PRIO struct {
	Bands   int32
	Priomap [16]uint8
}

// DefaultPriomap is the kernel's own default TC_PRIO mapping when Priomap
// is left zero.
var DefaultPriomap = [16]uint8{1, 2, 2, 2, 1, 2, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1}

func (o PRIO) Kind() string { return "prio" }

// Encode packs struct tc_prio_qopt: {bands i32, priomap u8[16]}.
func (o PRIO) Encode() []byte {
	b := make([]byte, 20)
	binary.LittleEndian.PutUint32(b[0:4], uint32(o.Bands))
	priomap := o.Priomap
	if priomap == ([16]uint8{}) {
		priomap = DefaultPriomap
	}
	copy(b[4:20], priomap[:])
	return b
}
