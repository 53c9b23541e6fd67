package tc

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/kuuji/nlink"
	"github.com/kuuji/nlink/tc/options"
)

// ClassOptions encodes the kind-specific TCA_OPTIONS payload for a class
// being created (currently options.HTBClass; most other qdiscs in this
// package's scope are classless).
type ClassOptions = options.Class

// Class is a parsed traffic-control class (RTM_NEWTCLASS).
type Class struct {
	Ifindex uint32
	Handle  uint32
	Parent  uint32
	Kind    string
	Options []byte
}

// ClassSpec describes a class to create.
type ClassSpec struct {
	Ifindex uint32
	Handle  uint32
	Parent  uint32 // the qdisc or class this class hangs off of
	Options ClassOptions
}

// ClassAdd creates a class.
func (c *Conn) ClassAdd(ctx context.Context, spec ClassSpec) error {
	return c.classWrite(ctx, rtmNewTClass, nlink.Create|nlink.Excl|nlink.Acknowledge, spec)
}

// ClassReplace creates or replaces a class at the same handle.
func (c *Conn) ClassReplace(ctx context.Context, spec ClassSpec) error {
	return c.classWrite(ctx, rtmNewTClass, nlink.Create|nlink.Replace|nlink.Acknowledge, spec)
}

// ClassDel removes a class.
func (c *Conn) ClassDel(ctx context.Context, ifindex uint32, handle uint32) error {
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmDelTClass), Flags: nlink.Acknowledge}}
	m.Data = tcmsg(0, ifindex, handle, 0)
	return c.nl.ExecuteAck(ctx, m)
}

func (c *Conn) classWrite(ctx context.Context, msgType uint16, flags nlink.HeaderFlags, spec ClassSpec) error {
	enc := nlink.NewAttributeEncoder()
	if spec.Options != nil {
		enc.String(tcaKind, spec.Options.Kind())
		if opts := spec.Options.Encode(); opts != nil {
			enc.RawBytes(tcaOptions, opts)
		}
	}

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(msgType), Flags: flags}}
	m.Data = append(tcmsg(0, spec.Ifindex, spec.Handle, spec.Parent), enc.Bytes()...)
	return c.nl.ExecuteAck(ctx, m)
}

// ClassList dumps every class on the given link.
func (c *Conn) ClassList(ctx context.Context, ifindex uint32) ([]Class, error) {
	var classes []Class
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmGetTClass)}}
	m.Data = tcmsg(0, ifindex, 0, 0)

	err := c.nl.Dump(ctx, m, func(r nlink.Message) error {
		cl, err := parseClass(r, c.log)
		if err != nil {
			return err
		}
		classes = append(classes, cl)
		return nil
	})
	return classes, err
}

func parseClass(m nlink.Message, log logger) (Class, error) {
	if len(m.Data) < tcmsgLen {
		return Class{}, fmt.Errorf("tc: short tcmsg: %d bytes", len(m.Data))
	}
	cl := Class{
		Ifindex: binary.LittleEndian.Uint32(m.Data[4:8]),
		Handle:  binary.LittleEndian.Uint32(m.Data[8:12]),
		Parent:  binary.LittleEndian.Uint32(m.Data[12:16]),
	}

	dec := nlink.NewAttributeDecoder(m.Data[tcmsgLen:])
	for dec.Next() {
		switch dec.Type() {
		case tcaKind:
			cl.Kind = dec.String()
		case tcaOptions:
			cl.Options = dec.BytesValue()
		default:
			logUnrecognized(log, "class", dec.Type())
		}
	}
	if err := dec.Err(); err != nil {
		return Class{}, fmt.Errorf("tc: parsing class attributes: %w", err)
	}
	return cl, nil
}
