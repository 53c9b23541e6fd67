package tc

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/kuuji/nlink"
	"github.com/kuuji/nlink/tc/options"
)

// Qdisc kind names (spec.md's named closed set: htb, fq_codel, fq, tbf,
// sfq, prio, netem, cake, codel).
const (
	QdiscHTB      = "htb"
	QdiscFQCodel  = "fq_codel"
	QdiscFQ       = "fq"
	QdiscTBF      = "tbf"
	QdiscSFQ      = "sfq"
	QdiscPRIO     = "prio"
	QdiscNetem    = "netem"
	QdiscCake     = "cake"
	QdiscCodel    = "codel"
	QdiscIngress  = "ingress"
	QdiscClsact   = "clsact"
)

// Qdisc is a parsed queueing discipline (RTM_NEWQDISC).
type Qdisc struct {
	Ifindex uint32
	Handle  uint32
	Parent  uint32
	Kind    string
	Options []byte // raw TCA_OPTIONS payload, kind-specific decoding is the caller's job for uncommon kinds
	Stats   *Stats // from TCA_STATS2, nil if the kernel reported none
}

// Stats is a qdisc's or class's accumulated counters and rate estimate,
// decoded from the TCA_STATS2 nest (struct gnet_stats_basic,
// gnet_stats_queue, and gnet_stats_rate_est64/gnet_stats_rate_est).
type Stats struct {
	Bytes      uint64
	Packets    uint32
	Drops      uint32
	Overlimits uint32
	Qlen       uint32
	Backlog    uint32
	BPS        uint64 // kernel rate estimator, bytes/sec
	PPS        uint32 // kernel rate estimator, packets/sec
}

// TCA_STATS2 nest contents (struct rtnl_link_stats naming conventions).
const (
	tcaStatsBasic     = 1
	tcaStatsQueue     = 2
	tcaStatsRateEst   = 4
	tcaStatsRateEst64 = 5
)

func parseStats2(b []byte) *Stats {
	s := &Stats{}
	found := false
	dec := nlink.NewAttributeDecoder(b)
	for dec.Next() {
		switch dec.Type() {
		case tcaStatsBasic:
			v := dec.Bytes()
			if len(v) >= 12 {
				s.Bytes = binary.LittleEndian.Uint64(v[0:8])
				s.Packets = binary.LittleEndian.Uint32(v[8:12])
				found = true
			}
		case tcaStatsQueue:
			v := dec.Bytes()
			if len(v) >= 20 {
				s.Qlen = binary.LittleEndian.Uint32(v[0:4])
				s.Backlog = binary.LittleEndian.Uint32(v[4:8])
				s.Drops = binary.LittleEndian.Uint32(v[8:12])
				s.Overlimits = binary.LittleEndian.Uint32(v[16:20])
				found = true
			}
		case tcaStatsRateEst:
			v := dec.Bytes()
			if len(v) >= 8 {
				s.BPS = uint64(binary.LittleEndian.Uint32(v[0:4]))
				s.PPS = binary.LittleEndian.Uint32(v[4:8])
				found = true
			}
		case tcaStatsRateEst64:
			v := dec.Bytes()
			if len(v) >= 16 {
				s.BPS = binary.LittleEndian.Uint64(v[0:8])
				s.PPS = uint32(binary.LittleEndian.Uint64(v[8:16]))
				found = true
			}
		}
	}
	if !found {
		return nil
	}
	return s
}

// QdiscOptions encodes the kind-specific TCA_OPTIONS payload for a qdisc
// being created. A nil Options means no options, valid for ingress/clsact.
// Concrete implementations live in the sibling tc/options package
// (options.HTB, options.FQCodel, options.TBF, options.SFQ, options.PRIO).
type QdiscOptions = options.Qdisc

// QdiscSpec describes a qdisc to create.
type QdiscSpec struct {
	Ifindex uint32
	Handle  uint32 // typically Handle{Major: N, Minor: 0}.Raw()
	Parent  uint32 // HandleRoot, HandleIngress, HandleClsact, or a class handle
	Options QdiscOptions
}

// QdiscAdd creates a qdisc.
func (c *Conn) QdiscAdd(ctx context.Context, spec QdiscSpec) error {
	return c.qdiscWrite(ctx, rtmNewQdisc, nlink.Create|nlink.Excl|nlink.Acknowledge, spec)
}

// QdiscReplace creates or replaces a qdisc at the same handle.
func (c *Conn) QdiscReplace(ctx context.Context, spec QdiscSpec) error {
	return c.qdiscWrite(ctx, rtmNewQdisc, nlink.Create|nlink.Replace|nlink.Acknowledge, spec)
}

// QdiscDel removes a qdisc.
func (c *Conn) QdiscDel(ctx context.Context, ifindex uint32, handle uint32) error {
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmDelQdisc), Flags: nlink.Acknowledge}}
	m.Data = tcmsg(0, ifindex, handle, 0)
	return c.nl.ExecuteAck(ctx, m)
}

func (c *Conn) qdiscWrite(ctx context.Context, msgType uint16, flags nlink.HeaderFlags, spec QdiscSpec) error {
	enc := nlink.NewAttributeEncoder()
	if spec.Options != nil {
		enc.String(tcaKind, spec.Options.Kind())
		if opts := spec.Options.Encode(); opts != nil {
			enc.RawBytes(tcaOptions, opts)
		}
	}

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(msgType), Flags: flags}}
	m.Data = append(tcmsg(0, spec.Ifindex, spec.Handle, spec.Parent), enc.Bytes()...)
	return c.nl.ExecuteAck(ctx, m)
}

// QdiscList dumps every qdisc on the given link (0 dumps every link).
func (c *Conn) QdiscList(ctx context.Context, ifindex uint32) ([]Qdisc, error) {
	var qdiscs []Qdisc
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmGetQdisc)}}
	m.Data = tcmsg(0, ifindex, 0, 0)

	err := c.nl.Dump(ctx, m, func(r nlink.Message) error {
		q, err := parseQdisc(r, c.log)
		if err != nil {
			return err
		}
		if ifindex == 0 || q.Ifindex == ifindex {
			qdiscs = append(qdiscs, q)
		}
		return nil
	})
	return qdiscs, err
}

func parseQdisc(m nlink.Message, log logger) (Qdisc, error) {
	if len(m.Data) < tcmsgLen {
		return Qdisc{}, fmt.Errorf("tc: short tcmsg: %d bytes", len(m.Data))
	}
	q := Qdisc{
		Ifindex: binary.LittleEndian.Uint32(m.Data[4:8]),
		Handle:  binary.LittleEndian.Uint32(m.Data[8:12]),
		Parent:  binary.LittleEndian.Uint32(m.Data[12:16]),
	}

	dec := nlink.NewAttributeDecoder(m.Data[tcmsgLen:])
	for dec.Next() {
		switch dec.Type() {
		case tcaKind:
			q.Kind = dec.String()
		case tcaOptions:
			q.Options = dec.BytesValue()
		case tcaStats2:
			q.Stats = parseStats2(dec.Bytes())
		default:
			logUnrecognized(log, "qdisc", dec.Type())
		}
	}
	if err := dec.Err(); err != nil {
		return Qdisc{}, fmt.Errorf("tc: parsing qdisc attributes: %w", err)
	}
	return q, nil
}
