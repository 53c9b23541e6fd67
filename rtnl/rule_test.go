package rtnl

import (
	"net"
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseRule(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	src := net.ParseIP("10.0.0.0").To4()
	enc.RawBytes(fraSrc, src)
	enc.Uint32(fraPriority, 100)
	enc.Uint32(fraTable, 200)
	enc.String(fraIifname, "eth1")

	b := make([]byte, fibRuleHdrLen)
	b[0] = AFInet
	b[2] = 8 // src_len

	r, err := parseRule(nlink.Message{Data: append(b, enc.Bytes()...)}, nil)
	if err != nil {
		t.Fatalf("parseRule: %v", err)
	}
	if r.Src == nil || !r.Src.IP.Equal(net.ParseIP("10.0.0.0")) {
		t.Errorf("Src = %v, want 10.0.0.0/8", r.Src)
	}
	if r.Priority != 100 {
		t.Errorf("Priority = %d, want 100", r.Priority)
	}
	if r.Table != 200 {
		t.Errorf("Table = %d, want 200", r.Table)
	}
	if r.IifName != "eth1" {
		t.Errorf("IifName = %q, want eth1", r.IifName)
	}
}
