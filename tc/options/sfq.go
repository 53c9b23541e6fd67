package options

import "encoding/binary"

// SFQ is the options for the "sfq" (stochastic fairness queueing) qdisc.
// Unlike htb/fq_codel, its TCA_OPTIONS payload is the raw struct
// tc_sfq_qopt, not a nested attribute list.
type SFQ struct {
	Quantum        uint32
	PerturbPeriod  int32 // seconds between hash perturbations, 0 disables
	Limit          uint32
	Divisor        uint32
	Flows          uint32
}

func (o SFQ) Kind() string { return "sfq" }

// Encode packs struct tc_sfq_qopt: {quantum u32, perturb_period i32,
// limit u32, divisor u32, flows u32}.
func (o SFQ) Encode() []byte {
	b := make([]byte, 20)
	binary.LittleEndian.PutUint32(b[0:4], o.Quantum)
	binary.LittleEndian.PutUint32(b[4:8], uint32(o.PerturbPeriod))
	binary.LittleEndian.PutUint32(b[8:12], o.Limit)
	binary.LittleEndian.PutUint32(b[12:16], o.Divisor)
	binary.LittleEndian.PutUint32(b[16:20], o.Flows)
	return b
}
