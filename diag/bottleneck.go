package diag

import (
	"context"
	"fmt"
)

// BottleneckType classifies the kind of bottleneck Bottleneck identifies.
type BottleneckType int

const (
	QdiscDrops BottleneckType = iota
	InterfaceDrops
	BufferFull
	RateLimited
	HardwareErrors
)

func (t BottleneckType) String() string {
	switch t {
	case QdiscDrops:
		return "QdiscDrops"
	case InterfaceDrops:
		return "InterfaceDrops"
	case BufferFull:
		return "BufferFull"
	case RateLimited:
		return "RateLimited"
	case HardwareErrors:
		return "HardwareErrors"
	default:
		return "Unknown"
	}
}

// Bottleneck identifies the single worst-scoring resource constraint
// found across every scanned interface and qdisc.
type Bottleneck struct {
	Location       string // interface name, or "interface:qdisc" for a qdisc-level finding
	Type           BottleneckType
	Score          float64 // 0..1, higher is worse
	Recommendation string
}

// FindBottleneck scans every interface and qdisc and returns the single
// worst-scoring constraint, or nil if no scanned interface or qdisc shows
// any drops, errors, or overlimits, or a backlog above BacklogThreshold.
// Only the backlog check is gated by a Config threshold; the drop, error,
// and overlimit checks consider any nonzero rate.
func (d *Diagnostics) FindBottleneck(ctx context.Context) (*Bottleneck, error) {
	report, err := d.Scan(ctx)
	if err != nil {
		return nil, err
	}

	var best *Bottleneck
	consider := func(b Bottleneck) {
		if best == nil || b.Score > best.Score {
			bb := b
			best = &bb
		}
	}

	for _, ir := range report.Interfaces {
		if s := ir.Stats; s != nil {
			total := s.RxPackets + s.TxPackets
			if total > 0 {
				if rate := errRate(s.RxDropped+s.TxDropped, total); rate > 0 {
					consider(Bottleneck{
						Location: ir.Name, Type: InterfaceDrops, Score: rate,
						Recommendation: fmt.Sprintf("interface %s is dropping packets (%s) — check buffer sizes and link utilization", ir.Name, fmtPercent(rate)),
					})
				}
				if rate := errRate(s.RxErrors+s.TxErrors, total); rate > 0 {
					consider(Bottleneck{
						Location: ir.Name, Type: HardwareErrors, Score: rate,
						Recommendation: fmt.Sprintf("interface %s is reporting hardware errors (%s) — check cabling/driver", ir.Name, fmtPercent(rate)),
					})
				}
			}
		}
		for _, q := range ir.Qdiscs {
			if q.Stats == nil {
				continue
			}
			loc := ir.Name + ":" + q.Kind
			if rate := errRate(uint64(q.Stats.Drops), uint64(q.Stats.Packets)); rate > 0 {
				consider(Bottleneck{
					Location: loc, Type: QdiscDrops, Score: rate,
					Recommendation: fmt.Sprintf("qdisc %s on %s is dropping packets (%s) — raise its limit or shape upstream", q.Kind, ir.Name, fmtPercent(rate)),
				})
			}
			if d.cfg.BacklogThreshold > 0 && q.Stats.Backlog > 0 {
				score := float64(q.Stats.Backlog) / float64(d.cfg.BacklogThreshold)
				if score > 1 {
					consider(Bottleneck{
						Location: loc, Type: BufferFull, Score: clamp01(score),
						Recommendation: fmt.Sprintf("qdisc %s on %s has a %d byte backlog — queue is saturated", q.Kind, ir.Name, q.Stats.Backlog),
					})
				}
			}
			if q.Stats.Overlimits > 0 && q.Stats.Packets > 0 {
				score := errRate(uint64(q.Stats.Overlimits), uint64(q.Stats.Packets))
				if score > 0 {
					consider(Bottleneck{
						Location: loc, Type: RateLimited, Score: score,
						Recommendation: fmt.Sprintf("qdisc %s on %s is hitting its rate limit (%d overlimits) — consider raising the configured rate", q.Kind, ir.Name, q.Stats.Overlimits),
					})
				}
			}
		}
	}

	return best, nil
}

func clamp01(f float64) float64 {
	if f > 1 {
		return 1
	}
	return f
}
