package options

import "github.com/kuuji/nlink"

// TCA_FQ_CODEL_* attributes.
const (
	tcaFqCodelTarget    = 1
	tcaFqCodelLimit     = 2
	tcaFqCodelInterval  = 3
	tcaFqCodelECN       = 4
	tcaFqCodelFlows     = 5
	tcaFqCodelQuantum   = 6
)

// FQCodel is the options for the "fq_codel" qdisc. A zero numeric field
// leaves the kernel default for that parameter; ECN is always sent, so
// false turns ECN off.
type FQCodel struct {
	Target   uint32 // microseconds
	Limit    uint32 // packets
	Interval uint32 // microseconds
	Flows    uint32
	Quantum  uint32
	ECN      bool
}

func (o FQCodel) Kind() string { return "fq_codel" }

func (o FQCodel) Encode() []byte {
	enc := nlink.NewAttributeEncoder()
	if o.Target != 0 {
		enc.Uint32(tcaFqCodelTarget, o.Target)
	}
	if o.Limit != 0 {
		enc.Uint32(tcaFqCodelLimit, o.Limit)
	}
	if o.Interval != 0 {
		enc.Uint32(tcaFqCodelInterval, o.Interval)
	}
	if o.Flows != 0 {
		enc.Uint32(tcaFqCodelFlows, o.Flows)
	}
	if o.Quantum != 0 {
		enc.Uint32(tcaFqCodelQuantum, o.Quantum)
	}
	ecn := uint32(0)
	if o.ECN {
		ecn = 1
	}
	enc.Uint32(tcaFqCodelECN, ecn)
	return enc.Bytes()
}
