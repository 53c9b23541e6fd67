package netlink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sys/unix"
)

// Config configures a Conn.
type Config struct {
	// Groups lists multicast group numbers (see the Group* constants) to
	// join at Dial time. Most callers should instead use
	// Conn.JoinGroup/LeaveGroup after dialing.
	Groups []uint32

	// Namespace, if non-nil, is entered before the socket is created; see
	// namespace_linux.go. Left nil, the socket is created in the calling
	// goroutine's current namespace.
	Namespace *Namespace

	// Logger receives debug-level messages, including the unrecognized
	// attribute notices spec.md §9 recommends. Defaults to slog.Default().
	Logger *slog.Logger
}

// Conn is a connection to a netlink family: one socket, one sequence
// counter, one kernel-assigned port-id. Per spec.md §5, a Conn serializes
// request/response turns internally so that response demultiplexing can
// assume a single outstanding request at a time; this is the canonical
// contract the spec elevates over sequence-based demultiplexing.
type Conn struct {
	sock *socket
	log  *slog.Logger

	// mu serializes the build→send→receive turn of Execute/Dump so that
	// interleaved callers on a shared Conn never race on sequence matching
	// (spec.md §5).
	mu sync.Mutex
}

// Dial opens a Conn to the given netlink family.
func Dial(family Family, cfg *Config) (*Conn, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	var (
		sock *socket
		err  error
	)
	if cfg.Namespace != nil {
		sock, err = cfg.Namespace.openSocket(family)
	} else {
		sock, err = openSocket(family)
	}
	if err != nil {
		return nil, err
	}

	for _, g := range cfg.Groups {
		if err := sock.addMembership(g); err != nil {
			sock.Close()
			return nil, err
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Conn{sock: sock, log: logger.With("component", "netlink")}, nil
}

// Close releases the underlying socket. Any multicast subscriptions are
// released with it (spec.md §5, scoped acquisition).
func (c *Conn) Close() error { return c.sock.Close() }

// PortID returns the kernel-assigned port-id bound to this Conn's socket.
func (c *Conn) PortID() uint32 { return c.sock.portID() }

// NextSequence returns the next monotonically increasing sequence number
// for this Conn. Typed builders normally call this implicitly; it is
// exposed for the raw escape hatch.
func (c *Conn) NextSequence() uint32 { return c.sock.nextSequence() }

// JoinGroup subscribes the socket to a multicast group by numeric id.
func (c *Conn) JoinGroup(group uint32) error { return c.sock.addMembership(group) }

// LeaveGroup unsubscribes the socket from a multicast group.
func (c *Conn) LeaveGroup(group uint32) error { return c.sock.dropMembership(group) }

// Send transmits a single, already-framed Message, patching Sequence and
// PID if left zero. It is the raw escape hatch named in spec.md §6.
func (c *Conn) Send(ctx context.Context, m Message) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lockedSend(ctx, m)
}

func (c *Conn) lockedSend(ctx context.Context, m Message) (Message, error) {
	if m.Header.Sequence == 0 {
		m.Header.Sequence = c.sock.nextSequence()
	}
	if m.Header.PID == 0 {
		m.Header.PID = c.sock.portID()
	}
	m.Header.Flags |= Request

	b, err := m.MarshalBinary()
	if err != nil {
		return Message{}, newOpError("send", KindInvalidMessage, err)
	}
	if err := c.sock.send(ctx, b); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Receive reads one datagram and splits it into its constituent Messages
// (a single recvmsg may carry more than one). It is the raw escape hatch
// named in spec.md §6.
func (c *Conn) Receive(ctx context.Context) ([]Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lockedReceive(ctx)
}

func (c *Conn) lockedReceive(ctx context.Context) ([]Message, error) {
	b, err := c.sock.recv(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := SplitMessages(b)
	if err != nil {
		return nil, newOpError("receive", KindInvalidMessage, err)
	}
	return msgs, nil
}

// ReceiveRaw reads one datagram without nlmsghdr framing. A handful of
// families (NETLINK_KOBJECT_UEVENT's multicast broadcasts, notably) never
// wrap their payload in an nlmsghdr at all, so Receive's SplitMessages
// would misparse them; this is their escape hatch.
func (c *Conn) ReceiveRaw(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.recv(ctx)
}

// Execute sends a single request and awaits exactly one reply datagram's
// worth of messages (request engine mode 1, "single-reply"), surfacing a
// kernel error as a classified *Error. Use Dump for multi-part responses.
func (c *Conn) Execute(ctx context.Context, m Message) ([]Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := c.lockedSend(ctx, m)
	if err != nil {
		return nil, err
	}

	msgs, err := c.lockedReceive(ctx)
	if err != nil {
		return nil, err
	}

	var out []Message
	for _, r := range msgs {
		if r.Header.Sequence != req.Header.Sequence {
			// Stray reply to an earlier, abandoned request; discard per
			// spec.md §5 cancellation semantics.
			continue
		}
		if r.Header.Type == Error {
			if kerr := checkError(r); kerr != nil {
				return nil, kerr
			}
			continue // ACK: errno == 0, not data.
		}
		out = append(out, r)
	}
	return out, nil
}

// ExecuteAck is Execute for requests that expect no data, only success or
// failure (request engine mode 2, "ACK-only").
func (c *Conn) ExecuteAck(ctx context.Context, m Message) error {
	m.Header.Flags |= Acknowledge
	_, err := c.Execute(ctx, m)
	return err
}

// Dump sends m with the Dump flag set and loops on Receive until a DONE
// sentinel carrying the same sequence number arrives (request engine mode
// 3). Every non-DONE, non-error reply sharing the sequence is passed to
// parse in kernel-emitted order; DONE always terminates the loop last
// (spec.md invariant I5, property P5).
func (c *Conn) Dump(ctx context.Context, m Message, parse func(Message) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m.Header.Flags |= Root | Match
	req, err := c.lockedSend(ctx, m)
	if err != nil {
		return err
	}

	for {
		msgs, err := c.lockedReceive(ctx)
		if err != nil {
			return err
		}

		for _, r := range msgs {
			if r.Header.Sequence != req.Header.Sequence {
				continue
			}

			switch {
			case r.Header.Type == Done:
				return nil
			case r.Header.Type == Error:
				if kerr := checkError(r); kerr != nil {
					return kerr
				}
				// errno == 0 at the tail of a dump is a bare ACK; treat
				// like DONE since no further MULTI messages will follow.
				return nil
			default:
				if err := parse(r); err != nil {
					return newOpError("dump", KindInvalidMessage, err)
				}
			}

			if r.Header.Flags&Multi == 0 {
				// Single, non-multi reply to a dump request: the kernel
				// answered with exactly one record and no DONE sentinel.
				return nil
			}
		}
	}
}

// checkError inspects an Error-type reply, returning nil for a bare ACK
// (errno == 0) or a classified *Error otherwise, decorated with extended
// ACK context (error string, offending attribute offset) when present.
func checkError(m Message) error {
	const errnoLen = 4
	if len(m.Data) < errnoLen {
		return newOpError("receive", KindTruncated, fmt.Errorf("short NLMSG_ERROR payload"))
	}

	code := int32(le32(m.Data[:errnoLen]))
	if code == 0 {
		return nil
	}

	kerr := newKernelError("receive", unix.Errno(-code))

	if m.Header.Flags&AcknowledgeTLVs == 0 {
		return kerr
	}

	// The extended-ACK TLVs follow a copy of the offending request's
	// nlmsghdr, which we skip using its own length field. Under
	// NLM_F_CAPPED that copy is truncated to just the bare header, but its
	// length field still reports the original (uncapped) message's full
	// size — so the skip must use headerLen instead in that case.
	off := errnoLen
	if len(m.Data) >= off+headerLen {
		if m.Header.Flags&Capped != 0 {
			off += headerLen
		} else {
			hdrLen := int(le32(m.Data[off : off+4]))
			if hdrLen >= headerLen && off+hdrLen <= len(m.Data) {
				off += hdrLen
			}
		}
	}
	if off > len(m.Data) {
		return kerr
	}

	ad := NewAttributeDecoder(m.Data[off:])
	for ad.Next() {
		switch ad.Type() {
		case unix.NLMSGERR_ATTR_MSG:
			kerr.Message = ad.String()
		case unix.NLMSGERR_ATTR_OFFS:
			kerr.Offset = int(ad.Uint32())
		}
	}
	return kerr
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
