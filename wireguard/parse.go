package wireguard

import (
	"encoding/binary"
	"net"
	"time"

	"github.com/kuuji/nlink"
)

// parseDevice decodes a WGDEVICE_A_* attribute set. payload is already past
// the genlmsghdr — Conn.Dump strips it before calling the parse callback.
func parseDevice(payload []byte) (*Device, error) {
	d := &Device{}
	dec := nlink.NewAttributeDecoder(payload)
	for dec.Next() {
		switch dec.Type() {
		case devIfindex:
			d.Ifindex = dec.Uint32()
		case devIfname:
			d.Name = dec.String()
		case devPrivateKey:
			copy(d.PrivateKey[:], dec.BytesValue())
		case devPublicKey:
			copy(d.PublicKey[:], dec.BytesValue())
		case devListenPort:
			d.ListenPort = dec.Uint16()
		case devFwmark:
			d.FwMark = dec.Uint32()
		case devPeers:
			d.Peers = parsePeers(dec.Nest())
		}
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

func parsePeers(dec *nlink.AttributeDecoder) []Peer {
	var peers []Peer
	for dec.Next() {
		peers = append(peers, parsePeer(dec.Nest()))
	}
	return peers
}

func parsePeer(dec *nlink.AttributeDecoder) Peer {
	var p Peer
	for dec.Next() {
		switch dec.Type() {
		case peerPublicKey:
			copy(p.PublicKey[:], dec.BytesValue())
		case peerPresharedKey:
			copy(p.PresharedKey[:], dec.BytesValue())
		case peerEndpoint:
			p.Endpoint = decodeSockaddr(dec.BytesValue())
		case peerPersistentKeepaliveInterval:
			p.PersistentKeepaliveInterval = time.Duration(dec.Uint16()) * time.Second
		case peerLastHandshakeTime:
			p.LastHandshakeTime = decodeTimespec64(dec.BytesValue())
		case peerRxBytes:
			p.ReceiveBytes = dec.Uint64()
		case peerTxBytes:
			p.TransmitBytes = dec.Uint64()
		case peerAllowedIPs:
			p.AllowedIPs = parseAllowedIPs(dec.Nest())
		}
	}
	return p
}

func parseAllowedIPs(dec *nlink.AttributeDecoder) []AllowedIP {
	var ips []AllowedIP
	for dec.Next() {
		entry := dec.Nest()
		var a AllowedIP
		for entry.Next() {
			switch entry.Type() {
			case allowedipIPAddr:
				a.IP = append(net.IP(nil), entry.BytesValue()...)
			case allowedipCIDRMask:
				a.Mask = entry.Uint8()
			}
		}
		ips = append(ips, a)
	}
	return ips
}

// decodeTimespec64 reads a struct timespec64 {tv_sec int64, tv_nsec int64}.
func decodeTimespec64(b []byte) time.Time {
	if len(b) < 16 {
		return time.Time{}
	}
	sec := int64(binary.LittleEndian.Uint64(b[0:8]))
	nsec := int64(binary.LittleEndian.Uint64(b[8:16]))
	return time.Unix(sec, nsec)
}
