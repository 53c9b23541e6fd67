package netconf

import (
	"context"
	"fmt"

	"github.com/kuuji/nlink/rtnl"
	"github.com/kuuji/nlink/tc"
)

// ApplyOptions controls how Apply reconciles declared state.
type ApplyOptions struct {
	// DryRun computes the diff but issues no mutating requests.
	DryRun bool
	// ContinueOnError keeps applying remaining changes after one fails,
	// instead of stopping at the first error.
	ContinueOnError bool
	// Purge removes observed resources that have no declared counterpart.
	// Without it, Apply only ever adds or modifies.
	Purge bool
}

// ApplyResult reports what Apply did.
type ApplyResult struct {
	Diff        *ConfigDiff
	ChangesMade int
	Errors      []error
}

// Apply reconciles observed network state to the declared configuration
// using the default options (no dry run, stop on first error, no pruning).
func (c *NetworkConfig) Apply(ctx context.Context, rt *rtnl.Conn, tcConn *tc.Conn) (*ApplyResult, error) {
	return c.ApplyWithOptions(ctx, rt, tcConn, ApplyOptions{})
}

// ApplyWithOptions reconciles observed network state to the declared
// configuration, applying changes in the order: create links, modify
// links, add addresses, add routes, configure qdiscs, then — if Purge is
// set — remove qdiscs, routes, addresses, and links no longer declared,
// in that reverse order.
func (c *NetworkConfig) ApplyWithOptions(ctx context.Context, rt *rtnl.Conn, tcConn *tc.Conn, opts ApplyOptions) (*ApplyResult, error) {
	diff, err := c.Diff(ctx, rt, tcConn)
	if err != nil {
		return nil, err
	}
	result := &ApplyResult{Diff: diff}
	if opts.DryRun || diff.IsEmpty() {
		return result, nil
	}

	run := func(step func() error) bool {
		if err := step(); err != nil {
			result.Errors = append(result.Errors, err)
			return opts.ContinueOnError
		}
		result.ChangesMade++
		return true
	}

	for _, l := range diff.LinksToAdd {
		if !run(func() error { return applyLinkCreate(ctx, rt, l) }) {
			return result, result.Errors[len(result.Errors)-1]
		}
	}
	for _, m := range diff.LinksToModify {
		if !run(func() error { return applyLinkModify(ctx, rt, m) }) {
			return result, result.Errors[len(result.Errors)-1]
		}
	}
	for _, a := range diff.AddressesToAdd {
		if !run(func() error {
			return rt.AddrEnsure(ctx, rtnl.AddrSpec{
				Link:      rtnl.ByName(a.Link),
				IP:        a.IP,
				Prefixlen: uint8(maskBits(a.Mask)),
				Label:     a.Label,
			})
		}) {
			return result, result.Errors[len(result.Errors)-1]
		}
	}
	for _, r := range diff.RoutesToAdd {
		if !run(func() error { return applyRouteAdd(ctx, rt, r) }) {
			return result, result.Errors[len(result.Errors)-1]
		}
	}
	for _, q := range diff.QdiscsToAdd {
		if !run(func() error { return applyQdiscAdd(ctx, rt, tcConn, q) }) {
			return result, result.Errors[len(result.Errors)-1]
		}
	}
	for _, q := range diff.QdiscsToModify {
		if !run(func() error {
			return tcConn.QdiscReplace(ctx, tc.QdiscSpec{Ifindex: q.Observed.Ifindex, Handle: q.Desired.Handle, Parent: q.Desired.Parent, Options: q.Desired.Options})
		}) {
			return result, result.Errors[len(result.Errors)-1]
		}
	}

	if opts.Purge {
		for _, q := range diff.QdiscsToRemove {
			if !run(func() error { return tcConn.QdiscDel(ctx, q.Ifindex, q.Handle) }) {
				return result, result.Errors[len(result.Errors)-1]
			}
		}
		for _, r := range diff.RoutesToRemove {
			route := r
			if !run(func() error {
				return rt.RouteDel(ctx, rtnl.RouteSpec{Dst: route.Dst, Gateway: route.Gateway, Oif: rtnl.ByIndex(route.OifIndex), Table: route.Table, Priority: route.Priority})
			}) {
				return result, result.Errors[len(result.Errors)-1]
			}
		}
		for _, a := range diff.AddressesToRemove {
			addr := a
			if !run(func() error {
				return rt.AddrDel(ctx, rtnl.AddrSpec{Link: rtnl.ByIndex(addr.Index), IP: addr.IP, Prefixlen: addr.Prefixlen, Label: addr.Label})
			}) {
				return result, result.Errors[len(result.Errors)-1]
			}
		}
		for _, l := range diff.LinksToRemove {
			link := l
			if !run(func() error { return rt.LinkDel(ctx, rtnl.ByIndex(link.Index)) }) {
				return result, result.Errors[len(result.Errors)-1]
			}
		}
	}

	if len(result.Errors) > 0 {
		return result, fmt.Errorf("netconf: apply completed with %d error(s): %w", len(result.Errors), result.Errors[0])
	}
	return result, nil
}

func applyLinkCreate(ctx context.Context, rt *rtnl.Conn, l DeclaredLink) error {
	if err := rt.LinkEnsure(ctx, l.Spec); err != nil {
		return fmt.Errorf("netconf: creating link %s: %w", l.Name, err)
	}
	if l.Up {
		if err := rt.LinkSetUp(ctx, rtnl.ByName(l.Name)); err != nil {
			return fmt.Errorf("netconf: bringing up link %s: %w", l.Name, err)
		}
	}
	if l.Master != "" {
		if err := rt.LinkSetMaster(ctx, rtnl.ByName(l.Name), rtnl.ByName(l.Master)); err != nil {
			return fmt.Errorf("netconf: setting master of %s: %w", l.Name, err)
		}
	}
	return nil
}

func applyLinkModify(ctx context.Context, rt *rtnl.Conn, m LinkModification) error {
	ref := rtnl.ByName(m.Desired.Name)
	if m.MTU {
		if err := rt.LinkSetMTU(ctx, ref, m.Desired.MTU); err != nil {
			return fmt.Errorf("netconf: setting MTU on %s: %w", m.Desired.Name, err)
		}
	}
	if m.Master {
		if err := rt.LinkSetMaster(ctx, ref, rtnl.ByName(m.Desired.Master)); err != nil {
			return fmt.Errorf("netconf: setting master of %s: %w", m.Desired.Name, err)
		}
	}
	if m.Up {
		if err := rt.LinkSetUp(ctx, ref); err != nil {
			return fmt.Errorf("netconf: bringing up link %s: %w", m.Desired.Name, err)
		}
	}
	return nil
}

func applyRouteAdd(ctx context.Context, rt *rtnl.Conn, r DeclaredRoute) error {
	spec := rtnl.RouteSpec{
		Dst:      r.Dst,
		Gateway:  r.Gateway,
		Oif:      rtnl.ByName(r.Oif),
		Table:    r.Table,
		Protocol: r.Protocol,
		Priority: r.Metric,
	}
	for _, h := range r.Multipath {
		spec.Multipath = append(spec.Multipath, rtnl.NextHopSpec{Gateway: h.Gateway, Oif: rtnl.ByName(h.Oif), Weight: h.Weight})
	}
	if err := rt.RouteEnsure(ctx, spec); err != nil {
		return fmt.Errorf("netconf: adding route %s: %w", routeDst(r), err)
	}
	return nil
}

func applyQdiscAdd(ctx context.Context, rt *rtnl.Conn, tcConn *tc.Conn, q DeclaredQdisc) error {
	ifindex, err := rtnl.ByName(q.Device).Resolve(ctx, rt)
	if err != nil {
		return fmt.Errorf("netconf: resolving qdisc device %s: %w", q.Device, err)
	}
	spec := tc.QdiscSpec{Ifindex: ifindex, Handle: q.Handle, Parent: q.Parent, Options: q.Options}
	if err := tcConn.QdiscReplace(ctx, spec); err != nil {
		return fmt.Errorf("netconf: adding qdisc on %s: %w", q.Device, err)
	}
	return nil
}
