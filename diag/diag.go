// Package diag provides derived network diagnostics — interface health,
// connectivity, and bottleneck analysis — built entirely on top of the
// rtnl and tc packages' dump operations and rtnl's single-route lookup. It
// issues no netlink requests of its own.
package diag

import (
	"fmt"

	"github.com/kuuji/nlink/rtnl"
	"github.com/kuuji/nlink/tc"
)

// Severity classifies an Issue.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Critical
)

func (s Severity) String() string {
	switch s {
	case Critical:
		return "CRITICAL"
	case Error:
		return "ERROR"
	case Warning:
		return "WARN"
	default:
		return "INFO"
	}
}

// Issue is a single diagnostic finding.
type Issue struct {
	Severity  Severity
	Category  string
	Message   string
	Interface string // empty when not interface-specific
	Details   string
}

// Config tunes the thresholds Scan and FindBottleneck use to decide
// whether a condition is worth reporting.
type Config struct {
	PacketLossThreshold float64 // fraction of packets dropped, e.g. 0.01 = 1%
	ErrorRateThreshold  float64
	QdiscDropThreshold  float64
	BacklogThreshold    uint32 // bytes
	QlenThreshold       uint32 // packets
	SkipLoopback        bool
	SkipDown            bool
	MinBytesForRate     uint64 // ignore interfaces below this traffic volume
}

// DefaultConfig returns the thresholds used when none are supplied.
func DefaultConfig() Config {
	return Config{
		PacketLossThreshold: 0.01,
		ErrorRateThreshold:  0.001,
		QdiscDropThreshold:  0.01,
		BacklogThreshold:    100_000,
		QlenThreshold:       1000,
		SkipLoopback:        true,
		SkipDown:            true,
		MinBytesForRate:     1000,
	}
}

// Diagnostics runs Scan/Connectivity/Bottleneck analyses over an rtnl and
// tc connection pair.
type Diagnostics struct {
	rt  *rtnl.Conn
	tc  *tc.Conn
	cfg Config
}

// New returns Diagnostics with DefaultConfig.
func New(rt *rtnl.Conn, tcConn *tc.Conn) *Diagnostics {
	return WithConfig(rt, tcConn, DefaultConfig())
}

// WithConfig returns Diagnostics using custom thresholds.
func WithConfig(rt *rtnl.Conn, tcConn *tc.Conn, cfg Config) *Diagnostics {
	return &Diagnostics{rt: rt, tc: tcConn, cfg: cfg}
}

func isLoopback(l rtnl.Link) bool {
	return l.Name == "lo" || (len(l.Address) == 0 && l.Flags&rtnl.IFFLoopback != 0)
}

func errRate(errors, packets uint64) float64 {
	if packets == 0 {
		return 0
	}
	return float64(errors) / float64(packets)
}

func fmtPercent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}
