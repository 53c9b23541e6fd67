package tc

import (
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseFilter(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.String(tcaKind, FilterMatchall)

	msg := nlink.Message{Data: append(tcmsg(0, 4, 0, HandleClsact), enc.Bytes()...)}
	msg.Data[16], msg.Data[17] = 0x08, 0x00 // protocol ETH_P_IP, big-endian

	f, err := parseFilter(msg, nil)
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	if f.Kind != FilterMatchall {
		t.Errorf("Kind = %q, want matchall", f.Kind)
	}
	if f.Protocol != 0x0800 {
		t.Errorf("Protocol = %#x, want 0x0800", f.Protocol)
	}
}

func TestMatchallFilterBuildsActionList(t *testing.T) {
	t.Parallel()

	spec := MatchallFilter(4, HandleClsact, 1, []Action{GactAction(TCActShot)})
	if spec.Kind != FilterMatchall {
		t.Errorf("Kind = %q, want matchall", spec.Kind)
	}
	if len(spec.Options) == 0 {
		t.Error("expected non-empty options with an action attached")
	}
}

func TestGotoChainSetsHighBit(t *testing.T) {
	t.Parallel()

	v := GotoChain(5)
	if uint32(v)&TCActGoto == 0 {
		t.Error("GotoChain result missing TCActGoto bit")
	}
	if uint32(v)&0xFFFF != 5 {
		t.Errorf("chain index = %d, want 5", uint32(v)&0xFFFF)
	}
}
