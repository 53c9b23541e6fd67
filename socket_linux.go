//go:build linux

package netlink

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Family identifies the netlink protocol family passed to socket(2) as the
// third argument — spec.md §4.3 lists these as the families the core can
// open a socket against.
type Family int

const (
	FamilyRoute         Family = unix.NETLINK_ROUTE
	FamilyGeneric       Family = unix.NETLINK_GENERIC
	FamilyNetfilter     Family = unix.NETLINK_NETFILTER
	FamilyKobjectUevent Family = unix.NETLINK_KOBJECT_UEVENT
	FamilySockDiag      Family = unix.NETLINK_SOCK_DIAG
	FamilyXFRM          Family = unix.NETLINK_XFRM
	FamilyAudit         Family = unix.NETLINK_AUDIT
	FamilySELinux       Family = unix.NETLINK_SELINUX
	FamilyFIBLookup     Family = unix.NETLINK_FIB_LOOKUP
	FamilyConnector     Family = unix.NETLINK_CONNECTOR
)

// socket is the Linux implementation of a non-blocking AF_NETLINK datagram
// socket. It is the sole owner of its file descriptor (spec.md §5).
type socket struct {
	fd  int
	pid uint32
	seq uint32
}

// openSocket opens, binds, and configures an AF_NETLINK socket of the given
// family in the calling goroutine's current namespace. Extended ACKs are
// requested best-effort (spec.md §4.3: "silently ignoring if unsupported").
func openSocket(family Family) (*socket, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, int(family))
	if err != nil {
		return nil, newOpError("socket", KindIO, fmt.Errorf("opening AF_NETLINK socket: %w", err))
	}

	// Best-effort: bigger buffers reduce ENOBUFS under dump/event load. Not
	// fatal if the kernel clamps or rejects the request.
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUFFORCE, 1<<20)
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUFFORCE, 1<<20)

	// Extended ACK: human-readable error strings and offending-attribute
	// offsets on NLMSG_ERROR replies. Ignore failure — older kernels don't
	// support NETLINK_EXT_ACK.
	_ = unix.SetsockoptInt(fd, unix.SOL_NETLINK, unix.NETLINK_EXT_ACK, 1)

	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK}); err != nil {
		unix.Close(fd)
		return nil, newOpError("bind", KindIO, fmt.Errorf("binding netlink socket: %w", err))
	}

	sa, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, newOpError("getsockname", KindIO, err)
	}
	nl, ok := sa.(*unix.SockaddrNetlink)
	if !ok {
		unix.Close(fd)
		return nil, newOpError("getsockname", KindIO, fmt.Errorf("unexpected sockaddr type %T", sa))
	}

	return &socket{fd: fd, pid: nl.Pid}, nil
}

func (s *socket) Close() error {
	return newOpError("close", KindIO, unix.Close(s.fd))
}

func (s *socket) portID() uint32 { return s.pid }

// nextSequence returns the next monotonically increasing sequence number
// for this socket, starting at 1 per spec.md §6 contract 2.
func (s *socket) nextSequence() uint32 {
	return atomic.AddUint32(&s.seq, 1)
}

// send writes b to the socket. When the non-blocking fd reports EAGAIN it
// waits in waitWritable (poll(2) for POLLOUT) until the socket is writable
// or ctx is done.
func (s *socket) send(ctx context.Context, b []byte) error {
	for {
		_, err := unix.Write(s.fd, b)
		switch err {
		case nil:
			return nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			if werr := s.waitWritable(ctx); werr != nil {
				return werr
			}
			continue
		default:
			return newOpError("send", KindIO, err)
		}
	}
}

// recv reads a single datagram, suspending until one arrives or ctx is done.
// It peeks with MSG_TRUNC first to learn a datagram's true size before
// consuming it, growing the buffer when a dump response exceeds the
// default size — otherwise a single oversized datagram would be silently
// truncated and the remainder mis-split as a new message.
func (s *socket) recv(ctx context.Context) ([]byte, error) {
	buf := make([]byte, 1<<16)
	for {
		n, _, err := unix.Recvfrom(s.fd, buf, unix.MSG_PEEK|unix.MSG_TRUNC)
		switch err {
		case nil:
			if n > len(buf) {
				buf = make([]byte, n)
				continue
			}
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			if werr := s.waitReadable(ctx); werr != nil {
				return nil, werr
			}
			continue
		default:
			return nil, newOpError("receive", KindIO, err)
		}

		n, _, err = unix.Recvfrom(s.fd, buf, 0)
		switch err {
		case nil:
			out := make([]byte, n)
			copy(out, buf[:n])
			return out, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			if werr := s.waitReadable(ctx); werr != nil {
				return nil, werr
			}
			continue
		default:
			return nil, newOpError("receive", KindIO, err)
		}
	}
}

func (s *socket) addMembership(group uint32) error {
	err := unix.SetsockoptInt(s.fd, unix.SOL_NETLINK, unix.NETLINK_ADD_MEMBERSHIP, int(group))
	return newOpError("add-membership", KindIO, err)
}

func (s *socket) dropMembership(group uint32) error {
	err := unix.SetsockoptInt(s.fd, unix.SOL_NETLINK, unix.NETLINK_DROP_MEMBERSHIP, int(group))
	return newOpError("drop-membership", KindIO, err)
}
