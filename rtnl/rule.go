package rtnl

import (
	"context"
	"fmt"
	"net"

	"github.com/kuuji/nlink"
)

// fibRuleHdrLen is sizeof(struct fib_rule_hdr): {family, dst_len, src_len,
// tos u8 each, table, res1, res2, action u8 each, flags u32}.
const fibRuleHdrLen = 12

// Rule is a parsed FIB routing policy rule (RTM_NEWRULE).
type Rule struct {
	Family   uint8
	Priority uint32
	Table    uint32
	Src      *net.IPNet
	Dst      *net.IPNet
	IifName  string
	OifName  string
	FwMark   uint32
	Goto     uint32
}

// RuleSpec describes a routing policy rule to add.
type RuleSpec struct {
	Family   uint8
	Priority uint32
	Table    uint32
	Src      *net.IPNet
	Dst      *net.IPNet
	IifName  string
	OifName  string
	FwMark   uint32
}

// RuleAdd adds a routing policy rule.
func (c *Conn) RuleAdd(ctx context.Context, spec RuleSpec) error {
	return c.ruleWrite(ctx, rtmNewRule, nlink.Create|nlink.Excl|nlink.Acknowledge, spec)
}

// RuleDel removes a routing policy rule.
func (c *Conn) RuleDel(ctx context.Context, spec RuleSpec) error {
	return c.ruleWrite(ctx, rtmDelRule, nlink.Acknowledge, spec)
}

func (c *Conn) ruleWrite(ctx context.Context, msgType uint16, flags nlink.HeaderFlags, spec RuleSpec) error {
	family := spec.Family
	if family == 0 {
		family = AFInet
	}

	var srcLen, dstLen uint8
	if spec.Src != nil {
		ones, _ := spec.Src.Mask.Size()
		srcLen = uint8(ones)
	}
	if spec.Dst != nil {
		ones, _ := spec.Dst.Mask.Size()
		dstLen = uint8(ones)
	}

	b := make([]byte, fibRuleHdrLen)
	b[0] = family
	b[1] = dstLen
	b[2] = srcLen
	if spec.Table <= 255 {
		b[4] = uint8(spec.Table)
	}

	enc := nlink.NewAttributeEncoder()
	if spec.Src != nil {
		enc.RawBytes(fraSrc, ipBytes(spec.Src.IP, family))
	}
	if spec.Dst != nil {
		enc.RawBytes(fraDst, ipBytes(spec.Dst.IP, family))
	}
	if spec.Priority != 0 {
		enc.Uint32(fraPriority, spec.Priority)
	}
	if spec.Table != 0 {
		enc.Uint32(fraTable, spec.Table)
	}
	if spec.IifName != "" {
		enc.String(fraIifname, spec.IifName)
	}
	if spec.OifName != "" {
		enc.String(fraOifname, spec.OifName)
	}
	if spec.FwMark != 0 {
		enc.Uint32(fraFwmark, spec.FwMark)
	}

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(msgType), Flags: flags}}
	m.Data = append(b, enc.Bytes()...)
	return c.nl.ExecuteAck(ctx, m)
}

// RuleList dumps every routing policy rule for the given address family
// (AFInet or AFInet6).
func (c *Conn) RuleList(ctx context.Context, family uint8) ([]Rule, error) {
	b := make([]byte, fibRuleHdrLen)
	b[0] = family

	var rules []Rule
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmGetRule)}, Data: b}
	err := c.nl.Dump(ctx, m, func(r nlink.Message) error {
		rule, err := parseRule(r, c.log)
		if err != nil {
			return err
		}
		rules = append(rules, rule)
		return nil
	})
	return rules, err
}

func parseRule(m nlink.Message, log logger) (Rule, error) {
	if len(m.Data) < fibRuleHdrLen {
		return Rule{}, fmt.Errorf("rtnl: short fib_rule_hdr: %d bytes", len(m.Data))
	}
	rule := Rule{
		Family: m.Data[0],
		Table:  uint32(m.Data[4]),
	}
	dstLen := m.Data[1]
	srcLen := m.Data[2]

	dec := nlink.NewAttributeDecoder(m.Data[fibRuleHdrLen:])
	for dec.Next() {
		switch dec.Type() {
		case fraDst:
			ip := dec.IP()
			rule.Dst = &net.IPNet{IP: ip, Mask: net.CIDRMask(int(dstLen), len(ip)*8)}
		case fraSrc:
			ip := dec.IP()
			rule.Src = &net.IPNet{IP: ip, Mask: net.CIDRMask(int(srcLen), len(ip)*8)}
		case fraPriority:
			rule.Priority = dec.Uint32()
		case fraTable:
			rule.Table = dec.Uint32()
		case fraIifname:
			rule.IifName = dec.String()
		case fraOifname:
			rule.OifName = dec.String()
		case fraFwmark:
			rule.FwMark = dec.Uint32()
		case fraGoto:
			rule.Goto = dec.Uint32()
		default:
			logUnrecognized(log, "rule", dec.Type())
		}
	}
	if err := dec.Err(); err != nil {
		return Rule{}, fmt.Errorf("rtnl: parsing rule attributes: %w", err)
	}
	return rule, nil
}
