package tc

import (
	"encoding/binary"

	"github.com/kuuji/nlink"
)

// Action kind names (spec.md's named closed set: gact, mirred, police,
// nat, vlan, tunnel_key, skbedit, connmark, csum, sample, ct, pedit).
const (
	ActionGact      = "gact"
	ActionMirred    = "mirred"
	ActionPolice    = "police"
	ActionNat       = "nat"
	ActionVlan      = "vlan"
	ActionTunnelKey = "tunnel_key"
	ActionSkbedit   = "skbedit"
	ActionConnmark  = "connmark"
	ActionCsum      = "csum"
	ActionSample    = "sample"
	ActionCt        = "ct"
	ActionPedit     = "pedit"
)

// tc_gen action verdict codes (include/uapi/linux/pkt_cls.h / tc_act/tc_defs.h).
const (
	TCActOK     = 0
	TCActShot   = 2
	TCActPipe   = 3
	TCActStolen = 4
	TCActGoto   = 0x20000000 // ORed with a chain index: "goto chain N"
)

// Action is one action to attach to a filter's action list. Options holds
// the pre-encoded kind-specific TCA_<KIND>_PARMS payload; Gact/Mirred are
// provided as constructors below since they're by far the most common.
type Action struct {
	Kind    string
	Options []byte
}

// GactAction builds a generic action ("drop", "pass", "goto chain N") —
// struct tc_gact: {tc_gen{index,capab,action,refcnt,bindcnt} then nothing
// else for the plain form}.
func GactAction(verdict int32) Action {
	gen := make([]byte, 20)
	binary.LittleEndian.PutUint32(gen[8:12], uint32(verdict)) // tc_gen.action

	enc := nlink.NewAttributeEncoder()
	enc.RawBytes(tcaActOptions, gen)
	return Action{Kind: ActionGact, Options: enc.Bytes()}
}

// MirredAction builds a mirror/redirect action to another interface's
// ifindex. egress selects TCA_EGRESS_MIRROR/REDIR over the ingress forms.
func MirredAction(toIfindex uint32, redirect, egress bool) Action {
	const (
		tcaMirredTM    = 1
		tcaMirredParms = 2
	)
	eaction := int32(4) // TCA_EGRESS_MIRROR
	switch {
	case redirect && egress:
		eaction = 5 // TCA_EGRESS_REDIR
	case !redirect && !egress:
		eaction = 1 // TCA_INGRESS_MIRROR
	case redirect && !egress:
		eaction = 2 // TCA_INGRESS_REDIR
	}

	// struct tc_mirred: {tc_gen(20), eaction i32, ifindex u32}
	parms := make([]byte, 28)
	binary.LittleEndian.PutUint32(parms[8:12], TCActStolen)
	binary.LittleEndian.PutUint32(parms[20:24], uint32(eaction))
	binary.LittleEndian.PutUint32(parms[24:28], toIfindex)

	enc := nlink.NewAttributeEncoder()
	enc.RawBytes(tcaMirredParms, parms)
	return Action{Kind: ActionMirred, Options: enc.Bytes()}
}

// encodeActions packs a list of actions into a TCA_ACT_TAB-nested
// attribute list, the form every filter kind embeds its action list in
// under its own TCA_<KIND>_ACT attribute number.
func encodeActions(actions []Action) []byte {
	enc := nlink.NewAttributeEncoder()
	for i, a := range actions {
		tok := enc.NestStart(uint16(i + 1))
		enc.String(tcaActKind, a.Kind)
		if a.Options != nil {
			enc.RawBytes(tcaActOptions, a.Options)
		}
		enc.NestEnd(tok)
	}
	return enc.Bytes()
}
