package connector

import (
	"encoding/binary"
	"testing"
)

func cnMsg(what uint32, body []byte) []byte {
	data := make([]byte, cnMsgLen+procEventHeaderLen+len(body))
	binary.LittleEndian.PutUint32(data[0:4], cnIdxProc)
	binary.LittleEndian.PutUint32(data[4:8], cnValProc)
	binary.LittleEndian.PutUint16(data[16:18], uint16(procEventHeaderLen+len(body)))
	binary.LittleEndian.PutUint32(data[cnMsgLen:cnMsgLen+4], what)
	copy(data[cnMsgLen+procEventHeaderLen:], body)
	return data
}

func putI32(b []byte, off int, v int32) { binary.LittleEndian.PutUint32(b[off:], uint32(v)) }

func TestParseEventFork(t *testing.T) {
	t.Parallel()

	body := make([]byte, 16)
	putI32(body, 0, 100)
	putI32(body, 4, 100)
	putI32(body, 8, 200)
	putI32(body, 12, 200)

	ev, ok := parseEvent(cnMsg(eventFork, body))
	if !ok {
		t.Fatal("parseEvent() ok = false")
	}
	if ev.Fork == nil || ev.Fork.ChildPID != 200 {
		t.Errorf("Fork = %+v, want ChildPID=200", ev.Fork)
	}
}

func TestParseEventExit(t *testing.T) {
	t.Parallel()

	body := make([]byte, 24)
	putI32(body, 0, 300)
	putI32(body, 4, 300)
	binary.LittleEndian.PutUint32(body[8:], 0)
	binary.LittleEndian.PutUint32(body[12:], 0)
	putI32(body, 16, 1)
	putI32(body, 20, 1)

	ev, ok := parseEvent(cnMsg(eventExit, body))
	if !ok {
		t.Fatal("parseEvent() ok = false")
	}
	if ev.Exit == nil || ev.Exit.PID != 300 || ev.Exit.ParentPID != 1 {
		t.Errorf("Exit = %+v", ev.Exit)
	}
}

func TestParseEventComm(t *testing.T) {
	t.Parallel()

	body := make([]byte, 24)
	putI32(body, 0, 42)
	putI32(body, 4, 42)
	copy(body[8:], "sshd\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")

	ev, ok := parseEvent(cnMsg(eventComm, body))
	if !ok {
		t.Fatal("parseEvent() ok = false")
	}
	if ev.Comm == nil || ev.Comm.Comm != "sshd" {
		t.Errorf("Comm = %+v, want Comm=sshd", ev.Comm)
	}
}

func TestParseEventNoneIgnored(t *testing.T) {
	t.Parallel()

	if _, ok := parseEvent(cnMsg(eventNone, nil)); ok {
		t.Error("parseEvent() ok = true for PROC_EVENT_NONE")
	}
}

func TestParseEventWrongConnector(t *testing.T) {
	t.Parallel()

	data := cnMsg(eventFork, make([]byte, 16))
	binary.LittleEndian.PutUint32(data[0:4], 0xff)
	if _, ok := parseEvent(data); ok {
		t.Error("parseEvent() ok = true for a non-proc connector idx")
	}
}

func TestParseEventTooShort(t *testing.T) {
	t.Parallel()

	if _, ok := parseEvent(make([]byte, 4)); ok {
		t.Error("parseEvent() ok = true for a truncated datagram")
	}
}
