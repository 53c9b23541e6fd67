package netlink

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	t.Parallel()

	want := Message{
		Header: Header{Type: 16, Flags: Request | Acknowledge, Sequence: 7, PID: 1234},
		Data:   []byte{1, 2, 3},
	}

	b, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(b)%4 != 0 {
		t.Fatalf("marshaled length %d not 4-byte aligned", len(b))
	}

	var got Message
	if err := got.UnmarshalBinary(b); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}

	if got.Header.Type != want.Header.Type || got.Header.Flags != want.Header.Flags ||
		got.Header.Sequence != want.Header.Sequence || got.Header.PID != want.Header.PID {
		t.Fatalf("header = %+v, want %+v", got.Header, want.Header)
	}
	if !bytes.Equal(got.Data, want.Data) {
		t.Fatalf("data = %v, want %v", got.Data, want.Data)
	}
}

func TestSplitMessages(t *testing.T) {
	t.Parallel()

	m1 := Message{Header: Header{Type: 1, Sequence: 1}, Data: []byte{1}}
	m2 := Message{Header: Header{Type: 2, Sequence: 2}, Data: []byte{2, 2, 2}}

	b1, _ := m1.MarshalBinary()
	b2, _ := m2.MarshalBinary()

	msgs, err := SplitMessages(append(b1, b2...))
	if err != nil {
		t.Fatalf("SplitMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Header.Sequence != 1 || msgs[1].Header.Sequence != 2 {
		t.Fatalf("sequences = %d, %d; want 1, 2", msgs[0].Header.Sequence, msgs[1].Header.Sequence)
	}
}

// TestSplitMessagesStopsOnMalformedLength exercises the boundary behavior
// shared with attribute iteration: a declared length that would walk past
// the buffer stops iteration silently rather than erroring or panicking.
func TestSplitMessagesStopsOnMalformedLength(t *testing.T) {
	t.Parallel()

	m1 := Message{Header: Header{Type: 1, Sequence: 1}, Data: []byte{1}}
	b1, _ := m1.MarshalBinary()

	// Append a second, truncated "message" whose declared length exceeds
	// what follows.
	garbage := make([]byte, headerLen)
	garbage[0] = 0xff
	garbage[1] = 0xff

	msgs, err := SplitMessages(append(b1, garbage...))
	if err != nil {
		t.Fatalf("SplitMessages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 (second should be silently dropped)", len(msgs))
	}
}

// TestSplitMessagesUnalignedFinalMessage covers a final message whose
// declared length is unaligned and which carries no trailing pad bytes
// (e.g. a datagram whose last nlmsghdr.length lands exactly at the end of
// the buffer): SplitMessages must not slice past len(b) computing the
// aligned length.
func TestSplitMessagesUnalignedFinalMessage(t *testing.T) {
	t.Parallel()

	m := Message{Header: Header{Type: 1, Sequence: 1}, Data: []byte{1, 2}}
	b, _ := m.MarshalBinary()
	if len(b)%4 != 0 {
		t.Fatalf("MarshalBinary produced an unaligned %d-byte message", len(b))
	}
	unaligned := b[:len(b)-2]
	binary.LittleEndian.PutUint32(unaligned[0:4], uint32(len(unaligned)))

	msgs, err := SplitMessages(unaligned)
	if err != nil {
		t.Fatalf("SplitMessages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("got %d messages, want 0 (unpadded final message should be silently dropped)", len(msgs))
	}
}

func TestSplitMessagesEmpty(t *testing.T) {
	t.Parallel()

	msgs, err := SplitMessages(nil)
	if err != nil {
		t.Fatalf("SplitMessages(nil): %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("got %d messages, want 0", len(msgs))
	}
}
