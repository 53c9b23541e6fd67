package tc

import (
	"encoding/binary"
	"testing"

	"github.com/kuuji/nlink"
	"github.com/kuuji/nlink/tc/options"
)

func TestParseQdisc(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.String(tcaKind, QdiscHTB)
	htbOpts := options.HTB{DefaultClass: 0x10, Rate2Quantum: 10}
	enc.RawBytes(tcaOptions, htbOpts.Encode())

	msg := nlink.Message{Data: append(tcmsg(0, 3, NewHandle(1, 0).Raw(), HandleRoot), enc.Bytes()...)}

	q, err := parseQdisc(msg, nil)
	if err != nil {
		t.Fatalf("parseQdisc: %v", err)
	}
	if q.Kind != QdiscHTB {
		t.Errorf("Kind = %q, want %q", q.Kind, QdiscHTB)
	}
	if q.Ifindex != 3 {
		t.Errorf("Ifindex = %d, want 3", q.Ifindex)
	}
	if q.Handle != NewHandle(1, 0).Raw() {
		t.Errorf("Handle = %#x, want %#x", q.Handle, NewHandle(1, 0).Raw())
	}
	if q.Parent != HandleRoot {
		t.Errorf("Parent = %#x, want HandleRoot", q.Parent)
	}
}

func TestParseQdiscStats(t *testing.T) {
	t.Parallel()

	basic := make([]byte, 12)
	binary.LittleEndian.PutUint64(basic[0:8], 123456) // bytes
	binary.LittleEndian.PutUint32(basic[8:12], 789)    // packets

	queue := make([]byte, 20)
	binary.LittleEndian.PutUint32(queue[0:4], 5)    // qlen
	binary.LittleEndian.PutUint32(queue[4:8], 4096) // backlog
	binary.LittleEndian.PutUint32(queue[8:12], 3)   // drops
	binary.LittleEndian.PutUint32(queue[16:20], 2)  // overlimits

	stats2 := nlink.NewAttributeEncoder()
	stats2.RawBytes(tcaStatsBasic, basic)
	stats2.RawBytes(tcaStatsQueue, queue)

	enc := nlink.NewAttributeEncoder()
	enc.String(tcaKind, QdiscFQCodel)
	enc.RawBytes(tcaStats2, stats2.Bytes())

	msg := nlink.Message{Data: append(tcmsg(0, 3, NewHandle(1, 0).Raw(), HandleRoot), enc.Bytes()...)}
	q, err := parseQdisc(msg, nil)
	if err != nil {
		t.Fatalf("parseQdisc: %v", err)
	}
	if q.Stats == nil {
		t.Fatal("Stats = nil, want a decoded Stats")
	}
	if q.Stats.Bytes != 123456 || q.Stats.Packets != 789 {
		t.Errorf("basic stats = %+v", q.Stats)
	}
	if q.Stats.Qlen != 5 || q.Stats.Backlog != 4096 || q.Stats.Drops != 3 || q.Stats.Overlimits != 2 {
		t.Errorf("queue stats = %+v", q.Stats)
	}
}

func TestParseClass(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.String(tcaKind, QdiscHTB)
	cls := options.HTBClass{Rate: 1_000_000, Burst: 1600, Prio: 1}
	enc.RawBytes(tcaOptions, cls.Encode())

	parent := NewHandle(1, 0).Raw()
	handle := NewHandle(1, 0x10).Raw()
	msg := nlink.Message{Data: append(tcmsg(0, 3, handle, parent), enc.Bytes()...)}

	cl, err := parseClass(msg, nil)
	if err != nil {
		t.Fatalf("parseClass: %v", err)
	}
	if cl.Handle != handle {
		t.Errorf("Handle = %#x, want %#x", cl.Handle, handle)
	}
	if cl.Kind != QdiscHTB {
		t.Errorf("Kind = %q, want htb", cl.Kind)
	}
}
