package netlink

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Kind classifies an error returned by the netlink core so that callers —
// in particular the reconciler — can branch on category rather than on a
// specific errno.
type Kind int

const (
	// KindOther is a kernel errno that doesn't map to a more specific kind.
	KindOther Kind = iota
	KindIO
	KindTruncated
	KindInvalidMessage
	KindInvalidAttribute
	KindNotFound
	KindAlreadyExists
	KindPermissionDenied
	KindBusy
	KindInvalidArgument
	KindNotSupported
	KindNamespaceNotFound
	KindInterfaceNotFound
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "i/o"
	case KindTruncated:
		return "truncated"
	case KindInvalidMessage:
		return "invalid message"
	case KindInvalidAttribute:
		return "invalid attribute"
	case KindNotFound:
		return "not found"
	case KindAlreadyExists:
		return "already exists"
	case KindPermissionDenied:
		return "permission denied"
	case KindBusy:
		return "resource busy"
	case KindInvalidArgument:
		return "invalid argument"
	case KindNotSupported:
		return "not supported"
	case KindNamespaceNotFound:
		return "namespace not found"
	case KindInterfaceNotFound:
		return "interface not found"
	default:
		return "other"
	}
}

// Error is the error type returned by every operation in the netlink core.
// Errno is the raw, unmodified kernel errno when the error originated from
// a kernel NLMSG_ERROR reply (zero otherwise). Op names the operation that
// failed ("send", "receive", "dump", "resolve-family", ...).
type Error struct {
	Kind    Kind
	Op      string
	Errno   unix.Errno
	Name    string // populated for KindNamespaceNotFound / KindInterfaceNotFound
	Message string // extended ACK human-readable string, if present
	Offset  int    // extended ACK offending-attribute offset, if present
	Err     error  // wrapped cause, if any
}

func (e *Error) Error() string {
	switch {
	case e.Name != "" && e.Kind == KindInterfaceNotFound:
		return fmt.Sprintf("netlink: %s: interface %q not found", e.Op, e.Name)
	case e.Name != "" && e.Kind == KindNamespaceNotFound:
		return fmt.Sprintf("netlink: %s: namespace %q not found", e.Op, e.Name)
	case e.Errno != 0 && e.Message != "":
		return fmt.Sprintf("netlink: %s: %s (%s): %s", e.Op, e.Kind, e.Errno, e.Message)
	case e.Errno != 0:
		return fmt.Sprintf("netlink: %s: %s (%s)", e.Op, e.Kind, e.Errno)
	case e.Err != nil:
		return fmt.Sprintf("netlink: %s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("netlink: %s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, netlink.ErrNotFound) style checks via the sentinel
// kind errors below.
func (e *Error) Is(target error) bool {
	var k *kindSentinel
	if errors.As(target, &k) {
		return e.Kind == k.kind
	}
	return false
}

type kindSentinel struct{ kind Kind }

func (k *kindSentinel) Error() string { return "netlink: " + k.kind.String() }

// Sentinels for errors.Is(err, netlink.ErrXxx) checks against an *Error's Kind.
var (
	ErrNotFound         error = &kindSentinel{KindNotFound}
	ErrAlreadyExists    error = &kindSentinel{KindAlreadyExists}
	ErrPermissionDenied error = &kindSentinel{KindPermissionDenied}
	ErrBusy             error = &kindSentinel{KindBusy}
	ErrNotSupported     error = &kindSentinel{KindNotSupported}
)

// classifyErrno maps a negative netlink NLMSG_ERROR payload (already negated
// to a positive errno) to an error Kind, per spec.md §4.4/§7.
func classifyErrno(errno unix.Errno) Kind {
	switch errno {
	case unix.ENOENT, unix.ENODEV:
		return KindNotFound
	case unix.EEXIST:
		return KindAlreadyExists
	case unix.EPERM, unix.EACCES:
		return KindPermissionDenied
	case unix.EBUSY:
		return KindBusy
	case unix.EINVAL:
		return KindInvalidArgument
	case unix.EOPNOTSUPP:
		return KindNotSupported
	default:
		return KindOther
	}
}

func newKernelError(op string, errno unix.Errno) *Error {
	kind := classifyErrno(errno)
	msg := ""
	if kind == KindPermissionDenied {
		msg = "requires CAP_NET_ADMIN or root"
	}
	return &Error{Kind: kind, Op: op, Errno: errno, Message: msg}
}

func newOpError(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// InterfaceNotFoundError wraps a failed name-to-index resolution.
func InterfaceNotFoundError(op, name string) error {
	return &Error{Kind: KindInterfaceNotFound, Op: op, Name: name}
}

// NamespaceNotFoundError wraps a failed namespace lookup.
func NamespaceNotFoundError(op, name string) error {
	return &Error{Kind: KindNamespaceNotFound, Op: op, Name: name}
}
