//go:build linux

package netlink

import (
	"context"
	"time"

	"golang.org/x/sys/unix"
)

// pollTimeout bounds each call to poll(2) so that context cancellation is
// noticed promptly without needing a self-pipe to interrupt a blocking
// syscall — the socket fd is owned exclusively by one socket (spec.md §5),
// so there's no risk of another goroutine racing the poll.
const pollTimeout = 200 * time.Millisecond

func (s *socket) waitReadable(ctx context.Context) error {
	return s.wait(ctx, unix.POLLIN)
}

func (s *socket) waitWritable(ctx context.Context) error {
	return s.wait(ctx, unix.POLLOUT)
}

func (s *socket) wait(ctx context.Context, events int16) error {
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: events}}
	for {
		if err := ctx.Err(); err != nil {
			return newOpError("wait", KindIO, err)
		}

		n, err := unix.Poll(fds, int(pollTimeout/time.Millisecond))
		switch err {
		case nil:
		case unix.EINTR:
			continue
		default:
			return newOpError("wait", KindIO, err)
		}

		if n > 0 && fds[0].Revents&(events|unix.POLLERR|unix.POLLHUP) != 0 {
			return nil
		}
		// Timed out: loop back around to re-check ctx before polling again.
	}
}
