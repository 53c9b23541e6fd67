package connector

import (
	"bytes"
	"encoding/binary"
)

// parseEvent decodes a netlink payload as a cn_msg header followed by a
// struct proc_event, returning false for anything not on the CN_IDX_PROC
// connector or too short to contain a full header.
func parseEvent(data []byte) (Event, bool) {
	if len(data) < cnMsgLen {
		return Event{}, false
	}
	idx := binary.LittleEndian.Uint32(data[0:4])
	val := binary.LittleEndian.Uint32(data[4:8])
	if idx != cnIdxProc || val != cnValProc {
		return Event{}, false
	}

	payload := data[cnMsgLen:]
	if len(payload) < procEventHeaderLen {
		return Event{}, false
	}
	what := binary.LittleEndian.Uint32(payload[0:4])
	body := payload[procEventHeaderLen:]

	switch what {
	case eventNone:
		return Event{}, false
	case eventFork:
		if len(body) < 16 {
			return Event{}, false
		}
		return Event{Fork: &Fork{
			ParentPID:  i32(body[0:4]),
			ParentTGID: i32(body[4:8]),
			ChildPID:   i32(body[8:12]),
			ChildTGID:  i32(body[12:16]),
		}}, true
	case eventExec:
		if len(body) < 8 {
			return Event{}, false
		}
		return Event{Exec: &Exec{PID: i32(body[0:4]), TGID: i32(body[4:8])}}, true
	case eventExit:
		if len(body) < 24 {
			return Event{}, false
		}
		return Event{Exit: &Exit{
			PID:         i32(body[0:4]),
			TGID:        i32(body[4:8]),
			ExitCode:    binary.LittleEndian.Uint32(body[8:12]),
			ExitSignal:  binary.LittleEndian.Uint32(body[12:16]),
			ParentPID:   i32(body[16:20]),
			ParentTGID:  i32(body[20:24]),
		}}, true
	case eventUID:
		if len(body) < 16 {
			return Event{}, false
		}
		return Event{UID: &UIDChange{
			PID:  i32(body[0:4]),
			TGID: i32(body[4:8]),
			RUID: binary.LittleEndian.Uint32(body[8:12]),
			EUID: binary.LittleEndian.Uint32(body[12:16]),
		}}, true
	case eventGID:
		if len(body) < 16 {
			return Event{}, false
		}
		return Event{GID: &GIDChange{
			PID:  i32(body[0:4]),
			TGID: i32(body[4:8]),
			RGID: binary.LittleEndian.Uint32(body[8:12]),
			EGID: binary.LittleEndian.Uint32(body[12:16]),
		}}, true
	case eventSID:
		if len(body) < 8 {
			return Event{}, false
		}
		return Event{SID: &SIDChange{PID: i32(body[0:4]), TGID: i32(body[4:8])}}, true
	case eventComm:
		if len(body) < 24 {
			return Event{}, false
		}
		comm := body[8:24]
		if n := bytes.IndexByte(comm, 0); n >= 0 {
			comm = comm[:n]
		}
		return Event{Comm: &CommChange{
			PID:  i32(body[0:4]),
			TGID: i32(body[4:8]),
			Comm: string(comm),
		}}, true
	case eventPtrace:
		if len(body) < 16 {
			return Event{}, false
		}
		return Event{Ptrace: &PtraceEvent{
			PID:        i32(body[0:4]),
			TGID:       i32(body[4:8]),
			TracerPID:  i32(body[8:12]),
			TracerTGID: i32(body[12:16]),
		}}, true
	case eventCoredump:
		if len(body) < 16 {
			return Event{}, false
		}
		return Event{Coredump: &Coredump{
			PID:        i32(body[0:4]),
			TGID:       i32(body[4:8]),
			ParentPID:  i32(body[8:12]),
			ParentTGID: i32(body[12:16]),
		}}, true
	default:
		return Event{}, false
	}
}

func i32(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) }
