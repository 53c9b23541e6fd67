package selinux

import (
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseEventSetenforce(t *testing.T) {
	t.Parallel()

	m := nlink.Message{
		Header: nlink.Header{Type: nlink.HeaderType(msgSetenforce)},
		Data:   []byte{1, 0, 0, 0},
	}
	ev, ok := parseEvent(m)
	if !ok {
		t.Fatal("parseEvent() ok = false")
	}
	if ev.SetEnforce == nil || !ev.SetEnforce.Enforcing {
		t.Errorf("SetEnforce = %+v, want Enforcing=true", ev.SetEnforce)
	}
	if ev.PolicyLoad != nil {
		t.Errorf("PolicyLoad = %+v, want nil", ev.PolicyLoad)
	}
}

func TestParseEventPolicyload(t *testing.T) {
	t.Parallel()

	m := nlink.Message{
		Header: nlink.Header{Type: nlink.HeaderType(msgPolicyload)},
		Data:   []byte{42, 0, 0, 0},
	}
	ev, ok := parseEvent(m)
	if !ok {
		t.Fatal("parseEvent() ok = false")
	}
	if ev.PolicyLoad == nil || ev.PolicyLoad.Seqno != 42 {
		t.Errorf("PolicyLoad = %+v, want Seqno=42", ev.PolicyLoad)
	}
}

func TestParseEventUnknownType(t *testing.T) {
	t.Parallel()

	m := nlink.Message{Header: nlink.Header{Type: 0x99}, Data: []byte{0, 0, 0, 0}}
	if _, ok := parseEvent(m); ok {
		t.Error("parseEvent() ok = true for an unrecognized message type")
	}
}

func TestParseEventShortPayload(t *testing.T) {
	t.Parallel()

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(msgSetenforce)}, Data: []byte{1}}
	if _, ok := parseEvent(m); ok {
		t.Error("parseEvent() ok = true for a truncated payload")
	}
}
