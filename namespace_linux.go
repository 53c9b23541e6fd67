//go:build linux

package netlink

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sys/unix"
)

// nsMu serializes every namespace-entry attempt process-wide: entering a
// namespace, creating a socket, and restoring the previous namespace must
// be atomic against concurrent namespace switches elsewhere in the process
// (spec.md §4.8, §5 "sole process-wide shared resource").
var nsMu sync.Mutex

// Namespace is a reference to a Linux network namespace, identified by a
// filesystem path the kernel accepts for its "set namespace from file
// descriptor" operation (spec.md §6 contract 5) — typically
// "/var/run/netns/<name>" or "/proc/<pid>/ns/net".
type Namespace struct {
	Path string
}

// NamedNamespace returns a reference to the network namespace created by
// `ip netns add <name>`.
func NamedNamespace(name string) *Namespace {
	return &Namespace{Path: "/var/run/netns/" + name}
}

// PIDNamespace returns a reference to the network namespace of the process
// with the given pid.
func PIDNamespace(pid int) *Namespace {
	return &Namespace{Path: fmt.Sprintf("/proc/%d/ns/net", pid)}
}

// openSocket enters ns, creates a socket of the given family (which
// inherits the now-active namespace), and restores the calling thread's
// original namespace — all on a dedicated OS thread so that the sequence
// is atomic even though namespace state is per-OS-thread (spec.md §4.8).
func (ns *Namespace) openSocket(family Family) (*socket, error) {
	nsMu.Lock()
	defer nsMu.Unlock()

	type result struct {
		sock *socket
		err  error
	}
	done := make(chan result, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		target, err := os.Open(ns.Path)
		if err != nil {
			if os.IsNotExist(err) {
				done <- result{err: NamespaceNotFoundError("enter-namespace", ns.Path)}
				return
			}
			if os.IsPermission(err) {
				done <- result{err: &Error{Kind: KindPermissionDenied, Op: "enter-namespace", Message: "requires CAP_NET_ADMIN or root"}}
				return
			}
			done <- result{err: newOpError("enter-namespace", KindIO, err)}
			return
		}
		defer target.Close()

		current, err := os.Open("/proc/self/ns/net")
		if err != nil {
			done <- result{err: newOpError("enter-namespace", KindIO, err)}
			return
		}
		defer current.Close()

		if err := unix.Setns(int(target.Fd()), unix.CLONE_NEWNET); err != nil {
			if err == unix.ENOSYS || err == unix.EINVAL {
				done <- result{err: &Error{Kind: KindNotSupported, Op: "enter-namespace", Err: err}}
				return
			}
			done <- result{err: newOpError("enter-namespace", classifyErrno(toErrno(err)), err)}
			return
		}

		sock, err := openSocket(family)

		// Best-effort restore regardless of the socket-open outcome: the
		// OS thread is about to be unlocked and returned to the runtime
		// pool, so it must not leak into the wrong namespace.
		_ = unix.Setns(int(current.Fd()), unix.CLONE_NEWNET)

		done <- result{sock: sock, err: err}
	}()

	r := <-done
	return r.sock, r.err
}

func toErrno(err error) unix.Errno {
	if errno, ok := err.(unix.Errno); ok {
		return errno
	}
	return 0
}
