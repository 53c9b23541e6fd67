package rtnl

import (
	"context"
	"strconv"
)

// InterfaceRef names a network interface by index, by name, or both. A
// name-only reference is resolved to an index lazily, at operation time,
// by asking the kernel through the owning Conn — so it always resolves in
// that Conn's namespace (spec.md §3, §9).
type InterfaceRef struct {
	name  string
	index uint32
}

// ByName returns an InterfaceRef that resolves by name.
func ByName(name string) InterfaceRef { return InterfaceRef{name: name} }

// ByIndex returns an InterfaceRef that is already resolved.
func ByIndex(index uint32) InterfaceRef { return InterfaceRef{index: index} }

// IsZero reports whether the reference names no interface at all.
func (r InterfaceRef) IsZero() bool { return r.name == "" && r.index == 0 }

// Resolve returns the interface's index, asking conn to resolve a
// name-based reference on first use. An index-based reference returns
// immediately without a kernel round trip.
func (r InterfaceRef) Resolve(ctx context.Context, conn *Conn) (uint32, error) {
	if r.index != 0 {
		return r.index, nil
	}
	if r.name == "" {
		return 0, nil
	}
	return conn.resolveIfindex(ctx, r.name)
}

// String returns the name if known, otherwise a numeric rendering of the
// index — for logging and error messages only.
func (r InterfaceRef) String() string {
	if r.name != "" {
		return r.name
	}
	if r.index != 0 {
		return strconv.FormatUint(uint64(r.index), 10)
	}
	return "<unset>"
}
