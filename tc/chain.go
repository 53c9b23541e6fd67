package tc

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/kuuji/nlink"
)

// Chain is a parsed filter chain (RTM_NEWCHAIN), the mechanism filters use
// to jump to another filter list via a "goto chain" action verdict.
type Chain struct {
	Ifindex uint32
	Index   uint32
}

// ChainAdd creates an empty chain at the given index.
func (c *Conn) ChainAdd(ctx context.Context, ifindex, index uint32) error {
	return c.chainWrite(ctx, rtmNewTChain, nlink.Create|nlink.Excl|nlink.Acknowledge, ifindex, index)
}

// ChainDel removes a chain.
func (c *Conn) ChainDel(ctx context.Context, ifindex, index uint32) error {
	return c.chainWrite(ctx, rtmDelTChain, nlink.Acknowledge, ifindex, index)
}

func (c *Conn) chainWrite(ctx context.Context, msgType uint16, flags nlink.HeaderFlags, ifindex, index uint32) error {
	enc := nlink.NewAttributeEncoder()
	enc.Uint32(tcaChain, index)

	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(msgType), Flags: flags}}
	m.Data = append(tcmsg(0, ifindex, 0, 0), enc.Bytes()...)
	return c.nl.ExecuteAck(ctx, m)
}

// ChainList dumps every chain on the given link.
func (c *Conn) ChainList(ctx context.Context, ifindex uint32) ([]Chain, error) {
	var chains []Chain
	m := nlink.Message{Header: nlink.Header{Type: nlink.HeaderType(rtmGetTChain)}}
	m.Data = tcmsg(0, ifindex, 0, 0)

	err := c.nl.Dump(ctx, m, func(r nlink.Message) error {
		ch, err := parseChain(r)
		if err != nil {
			return err
		}
		chains = append(chains, ch)
		return nil
	})
	return chains, err
}

func parseChain(m nlink.Message) (Chain, error) {
	if len(m.Data) < tcmsgLen {
		return Chain{}, fmt.Errorf("tc: short tcmsg: %d bytes", len(m.Data))
	}
	ch := Chain{Ifindex: binary.LittleEndian.Uint32(m.Data[4:8])}

	dec := nlink.NewAttributeDecoder(m.Data[tcmsgLen:])
	for dec.Next() {
		if dec.Type() == tcaChain {
			ch.Index = dec.Uint32()
		}
	}
	if err := dec.Err(); err != nil {
		return Chain{}, fmt.Errorf("tc: parsing chain attributes: %w", err)
	}
	return ch, nil
}

// GotoChain builds an action verdict that jumps to the given chain index,
// for use as a terminal action in an Action list.
func GotoChain(index uint32) int32 {
	return int32(TCActGoto | index)
}
