package rtnl

import (
	"context"

	"github.com/kuuji/nlink"
	"golang.org/x/sync/errgroup"
)

// Event is a single RTNetlink change notification. Exactly one of the typed
// fields is populated, selected by Kind.
type Event struct {
	Kind EventKind

	Link     *Link
	Address  *Address
	Route    *Route
	Neighbor *Neighbor
}

// EventKind discriminates the payload carried by an Event.
type EventKind int

const (
	EventLinkNew EventKind = iota
	EventLinkDel
	EventAddressNew
	EventAddressDel
	EventRouteNew
	EventRouteDel
	EventNeighborNew
	EventNeighborDel
)

// String names the kind for logging.
func (k EventKind) String() string {
	switch k {
	case EventLinkNew:
		return "link-new"
	case EventLinkDel:
		return "link-del"
	case EventAddressNew:
		return "address-new"
	case EventAddressDel:
		return "address-del"
	case EventRouteNew:
		return "route-new"
	case EventRouteDel:
		return "route-del"
	case EventNeighborNew:
		return "neighbor-new"
	case EventNeighborDel:
		return "neighbor-del"
	default:
		return "unknown"
	}
}

// Subscribe joins the given multicast groups and streams decoded events to
// the returned channel until ctx is canceled. Subscribe returns at once;
// both channels are closed when ctx is canceled or after a receive error
// has been sent on the error channel. Groups typically include GroupLink, GroupIPv4IfAddr/
// GroupIPv6IfAddr, GroupIPv4Route/GroupIPv6Route, GroupNeighbor.
func (c *Conn) Subscribe(ctx context.Context, groups ...uint32) (<-chan Event, <-chan error) {
	events := make(chan Event)
	errs := make(chan error, 1)

	for _, g := range groups {
		c.nl.JoinGroup(g)
	}

	go func() {
		defer close(events)
		defer close(errs)
		for {
			msgs, err := c.nl.Receive(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errs <- err
				return
			}
			for _, m := range msgs {
				ev, ok, err := decodeEvent(m, c.log)
				if err != nil {
					c.log.Debug("dropping unparseable event", "error", err)
					continue
				}
				if !ok {
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, errs
}

func decodeEvent(m nlink.Message, log logger) (Event, bool, error) {
	switch uint16(m.Header.Type) {
	case rtmNewLink, rtmDelLink:
		l, err := parseLink(m, log)
		if err != nil {
			return Event{}, false, err
		}
		kind := EventLinkNew
		if uint16(m.Header.Type) == rtmDelLink {
			kind = EventLinkDel
		}
		return Event{Kind: kind, Link: &l}, true, nil

	case rtmNewAddr, rtmDelAddr:
		a, err := parseAddr(m, log)
		if err != nil {
			return Event{}, false, err
		}
		kind := EventAddressNew
		if uint16(m.Header.Type) == rtmDelAddr {
			kind = EventAddressDel
		}
		return Event{Kind: kind, Address: &a}, true, nil

	case rtmNewRoute, rtmDelRoute:
		r, err := parseRoute(m, log)
		if err != nil {
			return Event{}, false, err
		}
		kind := EventRouteNew
		if uint16(m.Header.Type) == rtmDelRoute {
			kind = EventRouteDel
		}
		return Event{Kind: kind, Route: &r}, true, nil

	case rtmNewNeigh, rtmDelNeigh:
		n, err := parseNeighbor(m, log)
		if err != nil {
			return Event{}, false, err
		}
		kind := EventNeighborNew
		if uint16(m.Header.Type) == rtmDelNeigh {
			kind = EventNeighborDel
		}
		return Event{Kind: kind, Neighbor: &n}, true, nil

	default:
		return Event{}, false, nil
	}
}

// MergeEvents fans in events from multiple event channels (e.g. one per
// namespace, or the rtnl stream alongside a tc or genetlink stream adapted
// to the same Event type by the caller) onto a single channel, closing it
// once every source is drained or ctx is canceled.
func MergeEvents(ctx context.Context, sources ...<-chan Event) <-chan Event {
	out := make(chan Event)
	var g errgroup.Group

	for _, src := range sources {
		src := src
		g.Go(func() error {
			for {
				select {
				case ev, ok := <-src:
					if !ok {
						return nil
					}
					select {
					case out <- ev:
					case <-ctx.Done():
						return ctx.Err()
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}

	go func() {
		_ = g.Wait()
		close(out)
	}()

	return out
}
