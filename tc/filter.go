package tc

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/kuuji/nlink"
)

// Filter kind names (spec.md's named closed set: u32, flower, matchall,
// fw, basic, cgroup, flow).
const (
	FilterU32       = "u32"
	FilterFlower    = "flower"
	FilterMatchall  = "matchall"
	FilterFw        = "fw"
	FilterBasic     = "basic"
	FilterCgroup    = "cgroup"
	FilterFlow      = "flow"
)

// TCA_* attributes shared by every filter kind for its action list; the
// attribute number differs per kind (matchall/basic/u32/flower all define
// their own TCA_<KIND>_ACT, conventionally the same small integer).
const (
	tcaMatchallClassID = 1
	tcaMatchallAct     = 2

	tcaBasicClassID = 1
	tcaBasicAct     = 2

	tcaFlowerClassID = 1
	tcaFlowerAct     = 3

	tcaU32ClassID = 3
	tcaU32Act     = 4
)

const ethPAll = 0x0003 // ETH_P_ALL, network byte order ready via Uint16BE

// Filter is a parsed traffic-control filter (RTM_NEWTFILTER).
type Filter struct {
	Ifindex  uint32
	Parent   uint32
	Priority uint16
	Protocol uint16
	Handle   uint32
	Kind     string
	Options  []byte
}

// FilterSpec describes a filter to create. Options holds a pre-encoded
// TCA_OPTIONS payload (e.g. the one MatchallFilter builds below, or a
// caller-built payload for kinds this package only parses).
type FilterSpec struct {
	Ifindex  uint32
	Parent   uint32
	Priority uint16
	Protocol uint16 // 0 defaults to ETH_P_ALL
	Handle   uint32
	Kind     string
	Options  []byte
	Actions  []Action
	ClassID  uint32 // target class handle; not encoded by filterWrite, so a class ID must be carried in Options
}

// MatchallFilter builds a filter that matches every packet — useful to
// attach an unconditional action list to a clsact qdisc.
func MatchallFilter(ifindex, parent uint32, priority uint16, actions []Action) FilterSpec {
	enc := nlink.NewAttributeEncoder()
	if len(actions) > 0 {
		enc.RawBytes(tcaMatchallAct, encodeActions(actions))
	}
	return FilterSpec{Ifindex: ifindex, Parent: parent, Priority: priority, Kind: FilterMatchall, Options: enc.Bytes()}
}

// FilterAdd creates a filter.
func (c *Conn) FilterAdd(ctx context.Context, spec FilterSpec) error {
	return c.filterWrite(ctx, rtmNewTFilter, nlink.Create|nlink.Excl|nlink.Acknowledge, spec)
}

// FilterReplace creates or replaces a filter at the same priority/handle.
func (c *Conn) FilterReplace(ctx context.Context, spec FilterSpec) error {
	return c.filterWrite(ctx, rtmNewTFilter, nlink.Create|nlink.Replace|nlink.Acknowledge, spec)
}

// FilterDel removes a filter.
func (c *Conn) FilterDel(ctx context.Context, ifindex, parent uint32, priority, protocol uint16, handle uint32) error {
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmDelTFilter), Flags: nlink.Acknowledge}}
	m.Data = tcmsg(0, ifindex, handle, parent)
	binary.BigEndian.PutUint16(m.Data[16:18], protocol)
	binary.LittleEndian.PutUint16(m.Data[18:20], priority)
	return c.nl.ExecuteAck(ctx, m)
}

func (c *Conn) filterWrite(ctx context.Context, msgType uint16, flags nlink.HeaderFlags, spec FilterSpec) error {
	proto := spec.Protocol
	if proto == 0 {
		proto = ethPAll
	}

	b := tcmsg(0, spec.Ifindex, spec.Handle, spec.Parent)
	binary.BigEndian.PutUint16(b[16:18], proto)
	binary.LittleEndian.PutUint16(b[18:20], spec.Priority)

	enc := nlink.NewAttributeEncoder()
	enc.String(tcaKind, spec.Kind)
	if spec.Options != nil {
		enc.RawBytes(tcaOptions, spec.Options)
	}

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(msgType), Flags: flags}}
	m.Data = append(b, enc.Bytes()...)
	return c.nl.ExecuteAck(ctx, m)
}

// FilterList dumps every filter attached at parent on the given link.
func (c *Conn) FilterList(ctx context.Context, ifindex, parent uint32) ([]Filter, error) {
	var filters []Filter
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmGetTFilter)}}
	m.Data = tcmsg(0, ifindex, 0, parent)

	err := c.nl.Dump(ctx, m, func(r nlink.Message) error {
		f, err := parseFilter(r, c.log)
		if err != nil {
			return err
		}
		filters = append(filters, f)
		return nil
	})
	return filters, err
}

func parseFilter(m nlink.Message, log logger) (Filter, error) {
	if len(m.Data) < tcmsgLen {
		return Filter{}, fmt.Errorf("tc: short tcmsg: %d bytes", len(m.Data))
	}
	f := Filter{
		Ifindex:  binary.LittleEndian.Uint32(m.Data[4:8]),
		Handle:   binary.LittleEndian.Uint32(m.Data[8:12]),
		Parent:   binary.LittleEndian.Uint32(m.Data[12:16]),
		Protocol: binary.BigEndian.Uint16(m.Data[16:18]),
		Priority: binary.LittleEndian.Uint16(m.Data[18:20]),
	}

	dec := nlink.NewAttributeDecoder(m.Data[tcmsgLen:])
	for dec.Next() {
		switch dec.Type() {
		case tcaKind:
			f.Kind = dec.String()
		case tcaOptions:
			f.Options = dec.BytesValue()
		default:
			logUnrecognized(log, "filter", dec.Type())
		}
	}
	if err := dec.Err(); err != nil {
		return Filter{}, fmt.Errorf("tc: parsing filter attributes: %w", err)
	}
	return f, nil
}
