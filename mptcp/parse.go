package mptcp

import "github.com/kuuji/nlink"

// parseEndpointReply decodes one MPTCP_PM_CMD_GET_ADDR dump reply. payload
// is already past the genlmsghdr (genetlink.Conn.Dump strips it).
func parseEndpointReply(payload []byte) (Endpoint, bool, error) {
	dec := nlink.NewAttributeDecoder(payload)
	var ep Endpoint
	var found bool
	for dec.Next() {
		if dec.Type() == attrAddr {
			ep = parseEndpoint(dec.Nest())
			found = true
		}
	}
	if err := dec.Err(); err != nil {
		return Endpoint{}, false, err
	}
	return ep, found, nil
}

func parseEndpoint(dec *nlink.AttributeDecoder) Endpoint {
	var ep Endpoint
	for dec.Next() {
		switch dec.Type() {
		case addrAttrID:
			ep.ID = dec.Uint8()
		case addrAttrAddr4:
			ep.Address = append(make([]byte, 0, 4), dec.BytesValue()...)
		case addrAttrAddr6:
			ep.Address = append(make([]byte, 0, 16), dec.BytesValue()...)
		case addrAttrPort:
			ep.Port = dec.Uint16BE()
		case addrAttrIfIdx:
			ep.Ifindex = dec.Uint32()
		case addrAttrFlags:
			ep.Flags = dec.Uint32()
		}
	}
	return ep
}

func parseLimits(payload []byte) Limits {
	var l Limits
	dec := nlink.NewAttributeDecoder(payload)
	for dec.Next() {
		switch dec.Type() {
		case attrRcvAddAddrs:
			l.RcvAddAddrs = dec.Uint32()
		case attrSubflows:
			l.Subflows = dec.Uint32()
		}
	}
	return l
}
