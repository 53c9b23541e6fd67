// Package tc implements the traffic-control typed layer: qdisc, class,
// filter, action, and chain request builders and response parsers over
// NETLINK_ROUTE, addressed by 32-bit major:minor handles.
package tc

import (
	"fmt"
	"strconv"
	"strings"
)

// Special handle values (tc_core.h / pkt_sched.h).
const (
	HandleRoot   uint32 = 0xFFFFFFFF
	HandleIngress uint32 = 0xFFFFFFF1
	HandleClsact  uint32 = 0xFFFFFFF2
	HandleUnspec  uint32 = 0
)

// Handle is a parsed TC handle, split into 16-bit major and minor halves.
type Handle struct {
	Major uint16
	Minor uint16
}

// NewHandle builds a Handle from its major:minor components.
func NewHandle(major, minor uint16) Handle { return Handle{Major: major, Minor: minor} }

// HandleFromRaw splits a raw 32-bit handle value.
func HandleFromRaw(raw uint32) Handle {
	return Handle{Major: uint16(raw >> 16), Minor: uint16(raw & 0xFFFF)}
}

// Raw packs the handle back into its 32-bit wire form.
func (h Handle) Raw() uint32 { return uint32(h.Major)<<16 | uint32(h.Minor) }

func (h Handle) IsRoot() bool   { return h.Raw() == HandleRoot }
func (h Handle) IsIngress() bool { return h.Raw() == HandleIngress }
func (h Handle) IsClsact() bool  { return h.Raw() == HandleClsact }
func (h Handle) IsUnspec() bool  { return h.Raw() == HandleUnspec }

// String formats the handle the way `tc` itself prints it: the named forms
// for the special values, otherwise lowercase hex "major:minor" — with the
// minor digits dropped entirely (not zero-padded) when minor is 0.
func (h Handle) String() string {
	return FormatHandle(h.Raw())
}

// FormatHandle formats a raw handle value as tc would print it.
func FormatHandle(raw uint32) string {
	switch raw {
	case HandleRoot:
		return "root"
	case HandleIngress:
		return "ingress"
	case HandleClsact:
		return "clsact"
	case HandleUnspec:
		return "none"
	default:
		h := HandleFromRaw(raw)
		if h.Minor == 0 {
			return fmt.Sprintf("%x:", h.Major)
		}
		return fmt.Sprintf("%x:%x", h.Major, h.Minor)
	}
}

// ParseHandle parses a handle string in the form tc accepts: "root",
// "ingress", "clsact", "none", or "major:minor" in hex with an optional
// empty minor (e.g. "1:" means minor 0).
func ParseHandle(s string) (uint32, error) {
	switch s {
	case "root":
		return HandleRoot, nil
	case "ingress":
		return HandleIngress, nil
	case "clsact":
		return HandleClsact, nil
	case "none":
		return HandleUnspec, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("tc: invalid handle %q", s)
	}
	major, err := strconv.ParseUint(parts[0], 16, 16)
	if err != nil {
		return 0, fmt.Errorf("tc: invalid handle %q: %w", s, err)
	}
	minor := uint64(0)
	if parts[1] != "" {
		minor, err = strconv.ParseUint(parts[1], 16, 16)
		if err != nil {
			return 0, fmt.Errorf("tc: invalid handle %q: %w", s, err)
		}
	}
	return NewHandle(uint16(major), uint16(minor)).Raw(), nil
}

// ParseParent parses an optional parent handle string, defaulting to
// HandleRoot when s is empty — the same default tc itself applies to a
// missing "parent" argument.
func ParseParent(s string) (uint32, error) {
	if s == "" {
		return HandleRoot, nil
	}
	return ParseHandle(s)
}
