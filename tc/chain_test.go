package tc

import (
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseChain(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.Uint32(tcaChain, 7)

	msg := nlink.Message{Data: append(tcmsg(0, 4, 0, 0), enc.Bytes()...)}

	ch, err := parseChain(msg)
	if err != nil {
		t.Fatalf("parseChain: %v", err)
	}
	if ch.Index != 7 {
		t.Errorf("Index = %d, want 7", ch.Index)
	}
	if ch.Ifindex != 4 {
		t.Errorf("Ifindex = %d, want 4", ch.Ifindex)
	}
}
