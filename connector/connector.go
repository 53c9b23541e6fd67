// Package connector streams process lifecycle events (fork/exec/exit and
// friends) over the kernel's process connector, NETLINK_CONNECTOR idx
// CN_IDX_PROC. Requires CAP_NET_ADMIN. Unlike the multicast-group event
// sources (kobject, selinux), the connector multiplexes by a (idx, val)
// pair carried in a cn_msg header wrapped inside the netlink payload, not
// by netlink multicast group membership.
package connector

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/kuuji/nlink"
)

// CN_IDX_PROC / CN_VAL_PROC identify the process-events connector.
const (
	cnIdxProc = 0x1
	cnValProc = 0x1
)

// PROC_CN_MCAST_* listen/ignore control values, sent as the initial
// cn_msg payload to start or stop receiving events.
const (
	mcastListen = 1
	mcastIgnore = 2
)

// PROC_EVENT_* "what" values (linux/cn_proc.h).
const (
	eventNone     = 0x00000000
	eventFork     = 0x00000001
	eventExec     = 0x00000002
	eventUID      = 0x00000004
	eventGID      = 0x00000040
	eventSID      = 0x00000080
	eventPtrace   = 0x00000100
	eventComm     = 0x00000200
	eventCoredump = 0x40000000
	eventExit     = 0x80000000
)

// cnMsgLen is sizeof(struct cn_msg): {idx u32, val u32, seq u32, ack u32, len u16, flags u16}.
const cnMsgLen = 20

// procEventHeaderLen is sizeof(what, cpu, timestamp_ns) preceding the
// event-specific union in struct proc_event.
const procEventHeaderLen = 16

// Event is a parsed process connector event. Exactly one of the typed
// fields is non-nil, mirroring the kernel's proc_event union.
type Event struct {
	Fork     *Fork
	Exec     *Exec
	Exit     *Exit
	UID      *UIDChange
	GID      *GIDChange
	SID      *SIDChange
	Comm     *CommChange
	Ptrace   *PtraceEvent
	Coredump *Coredump
}

// Fork reports a process (or thread) creation.
type Fork struct {
	ParentPID, ParentTGID int32
	ChildPID, ChildTGID   int32
}

// Exec reports a process completing execve.
type Exec struct {
	PID, TGID int32
}

// Exit reports a process terminating.
type Exit struct {
	PID, TGID             int32
	ExitCode, ExitSignal  uint32
	ParentPID, ParentTGID int32
}

// UIDChange reports a process's real/effective UID changing.
type UIDChange struct {
	PID, TGID int32
	RUID, EUID uint32
}

// GIDChange reports a process's real/effective GID changing.
type GIDChange struct {
	PID, TGID  int32
	RGID, EGID uint32
}

// SIDChange reports a process starting a new session.
type SIDChange struct {
	PID, TGID int32
}

// CommChange reports a process changing its comm (e.g. via prctl(PR_SET_NAME)).
type CommChange struct {
	PID, TGID int32
	Comm      string
}

// PtraceEvent reports a ptrace attach/detach.
type PtraceEvent struct {
	PID, TGID             int32
	TracerPID, TracerTGID int32
}

// Coredump reports a process generating a core dump.
type Coredump struct {
	PID, TGID             int32
	ParentPID, ParentTGID int32
}

// Stream is a subscription to process connector events.
type Stream struct {
	nl *nlink.Conn
}

// Dial opens a NETLINK_CONNECTOR socket and starts listening for process
// events.
func Dial(ctx context.Context) (*Stream, error) {
	nl, err := nlink.Dial(nlink.FamilyConnector, nil)
	if err != nil {
		return nil, err
	}
	s := &Stream{nl: nl}
	if err := s.setListen(ctx, mcastListen); err != nil {
		nl.Close()
		return nil, fmt.Errorf("connector: enabling process event listening: %w", err)
	}
	return s, nil
}

// Close stops listening and releases the underlying socket.
func (s *Stream) Close() error {
	_ = s.setListen(context.Background(), mcastIgnore)
	return s.nl.Close()
}

func (s *Stream) setListen(ctx context.Context, op uint32) error {
	data := make([]byte, cnMsgLen+4)
	binary.LittleEndian.PutUint32(data[0:4], cnIdxProc)
	binary.LittleEndian.PutUint32(data[4:8], cnValProc)
	binary.LittleEndian.PutUint16(data[16:18], 4) // cn_msg.len: 4-byte opcode payload
	binary.LittleEndian.PutUint32(data[20:24], op)

	_, err := s.nl.Send(ctx, nlink.Message{
		Header: nlink.Header{Type: nlink.Done},
		Data:   data,
	})
	return err
}

// Recv blocks for the next recognized process event.
func (s *Stream) Recv(ctx context.Context) (Event, error) {
	for {
		msgs, err := s.nl.Receive(ctx)
		if err != nil {
			return Event{}, err
		}
		for _, m := range msgs {
			if ev, ok := parseEvent(m.Data); ok {
				return ev, nil
			}
		}
	}
}

// Events returns a channel of parsed events, closed when ctx is cancelled
// or a receive error occurs permanently.
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
