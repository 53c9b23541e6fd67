// Package kobject streams kernel object ("uevent") notifications over
// NETLINK_KOBJECT_UEVENT — the same broadcasts udev consumes for device
// hotplug. Unlike every other family this module touches, the kernel
// sends these payloads as plain KEY=VALUE text, not nlmsghdr-framed
// messages, so this package reads via netlink.Conn.ReceiveRaw.
package kobject

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/kuuji/nlink"
)

// ueventGroup is the sole multicast group kernel uevents broadcast on.
const ueventGroup = 1

// Event is one kernel object event: a device add/remove/change/etc.
// notification carrying an action, its sysfs devpath, and an arbitrary
// set of KEY=VALUE environment variables.
type Event struct {
	Action    string
	DevPath   string
	Subsystem string
	Env       map[string]string
}

// DevName returns the DEVNAME environment variable, if present (e.g. "sda1", "eth0").
func (e Event) DevName() string { return e.Env["DEVNAME"] }

// DevType returns the DEVTYPE environment variable, if present (e.g. "disk", "partition").
func (e Event) DevType() string { return e.Env["DEVTYPE"] }

// Driver returns the DRIVER environment variable, if present.
func (e Event) Driver() string { return e.Env["DRIVER"] }

// Major returns the MAJOR device number, if present and parseable.
func (e Event) Major() (uint32, bool) { return parseUint32(e.Env["MAJOR"]) }

// Minor returns the MINOR device number, if present and parseable.
func (e Event) Minor() (uint32, bool) { return parseUint32(e.Env["MINOR"]) }

// Seqnum returns the kernel's event sequence number, if present and parseable.
func (e Event) Seqnum() (uint64, bool) {
	v, ok := e.Env["SEQNUM"]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	return n, err == nil
}

func parseUint32(v string) (uint32, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 32)
	return uint32(n), err == nil
}

// IsAdd reports whether Action is "add".
func (e Event) IsAdd() bool { return e.Action == "add" }

// IsRemove reports whether Action is "remove".
func (e Event) IsRemove() bool { return e.Action == "remove" }

// IsChange reports whether Action is "change".
func (e Event) IsChange() bool { return e.Action == "change" }

// Stream is a subscription to the kernel uevent multicast group.
type Stream struct {
	nl *nlink.Conn
}

// Dial opens a NETLINK_KOBJECT_UEVENT socket subscribed to the kernel's
// uevent broadcast group.
func Dial() (*Stream, error) {
	nl, err := nlink.Dial(nlink.FamilyKobjectUevent, &nlink.Config{Groups: []uint32{ueventGroup}})
	if err != nil {
		return nil, err
	}
	return &Stream{nl: nl}, nil
}

// Close releases the underlying socket.
func (s *Stream) Close() error { return s.nl.Close() }

// Recv blocks for the next uevent. Datagrams that fail to parse (should
// not happen with a genuine kernel, but the wire format has no checksum)
// are skipped rather than surfaced as an error.
func (s *Stream) Recv(ctx context.Context) (Event, error) {
	for {
		b, err := s.nl.ReceiveRaw(ctx)
		if err != nil {
			return Event{}, err
		}
		if ev, ok := Parse(b); ok {
			return ev, nil
		}
	}
}

// Events returns a channel of parsed uevents, closed when ctx is
// cancelled or a receive error occurs permanently.
func (s *Stream) Events(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			ev, err := s.Recv(ctx)
			if err != nil {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Parse decodes a raw uevent datagram: "action@devpath\0KEY=VALUE\0...".
func Parse(data []byte) (Event, bool) {
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return Event{}, false
	}
	header := string(data[:nul])
	at := strings.IndexByte(header, '@')
	if at < 0 {
		return Event{}, false
	}

	ev := Event{
		Action:  header[:at],
		DevPath: header[at+1:],
		Env:     make(map[string]string),
	}

	rest := data[nul+1:]
	for len(rest) > 0 {
		end := bytes.IndexByte(rest, 0)
		if end < 0 {
			end = len(rest)
		}
		if kv := rest[:end]; len(kv) > 0 {
			if eq := bytes.IndexByte(kv, '='); eq > 0 {
				key, val := string(kv[:eq]), string(kv[eq+1:])
				if key == "SUBSYSTEM" {
					ev.Subsystem = val
				}
				ev.Env[key] = val
			}
		}
		if end == len(rest) {
			break
		}
		rest = rest[end+1:]
	}
	return ev, true
}
