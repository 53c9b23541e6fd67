package sockdiag

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/kuuji/nlink"
)

// inetDiagMsgLen is sizeof(struct inet_diag_msg) up to but excluding its
// trailing rtattr list.
const inetDiagMsgLen = 72

// INET_DIAG_* attribute types trailing a struct inet_diag_msg.
const (
	inetDiagMemInfo    = 1
	inetDiagInfo       = 2
	inetDiagCong       = 4
	inetDiagSKMemInfo  = 7
)

func parseInetSocket(data []byte) (InetSocket, error) {
	if len(data) < inetDiagMsgLen {
		return InetSocket{}, fmt.Errorf("sockdiag: inet_diag_msg too short: %d bytes", len(data))
	}

	family := AddressFamily(data[0])
	s := InetSocket{
		Family:     family,
		State:      TCPState(data[1]),
		LocalPort:  binary.BigEndian.Uint16(data[4:6]),
		RemotePort: binary.BigEndian.Uint16(data[6:8]),
	}
	if family == AFInet6 {
		s.Local = net.IP(append([]byte(nil), data[8:24]...))
		s.Remote = net.IP(append([]byte(nil), data[24:40]...))
	} else {
		s.Local = net.IPv4(data[8], data[9], data[10], data[11])
		s.Remote = net.IPv4(data[24], data[25], data[26], data[27])
	}
	s.Interface = binary.LittleEndian.Uint32(data[40:44])
	s.RecvQ = binary.LittleEndian.Uint32(data[60:64])
	s.UID = binary.LittleEndian.Uint32(data[64:68])
	s.Inode = binary.LittleEndian.Uint32(data[68:72])

	dec := nlink.NewAttributeDecoder(data[inetDiagMsgLen:])
	for dec.Next() {
		switch dec.Type() {
		case inetDiagMemInfo, inetDiagSKMemInfo:
			s.MemInfo = parseMemInfo(dec.Bytes())
		case inetDiagInfo:
			s.TCPInfo = parseTCPInfo(dec.Bytes())
		case inetDiagCong:
			s.Congestion = dec.String()
		}
	}
	return s, nil
}

func parseMemInfo(b []byte) *MemInfo {
	if len(b) < 8 {
		return nil
	}
	m := &MemInfo{RmemAlloc: binary.LittleEndian.Uint32(b[0:4])}
	if len(b) >= 4 {
		m.Rcvbuf = binary.LittleEndian.Uint32(b[4:8])
	}
	if len(b) >= 12 {
		m.WmemAlloc = binary.LittleEndian.Uint32(b[8:12])
	}
	if len(b) >= 16 {
		m.Sndbuf = binary.LittleEndian.Uint32(b[12:16])
	}
	if len(b) >= 20 {
		m.FwdAlloc = binary.LittleEndian.Uint32(b[16:20])
	}
	if len(b) >= 24 {
		m.WmemQueued = binary.LittleEndian.Uint32(b[20:24])
	}
	if len(b) >= 28 {
		m.OptMem = binary.LittleEndian.Uint32(b[24:28])
	}
	if len(b) >= 32 {
		m.Backlog = binary.LittleEndian.Uint32(b[28:32])
	}
	if len(b) >= 36 {
		m.Drops = binary.LittleEndian.Uint32(b[32:36])
	}
	return m
}

// parseTCPInfo decodes the leading, stable fields of struct tcp_info.
// The kernel struct has grown many more fields over time; anything past
// Reordering is left unread (see DESIGN.md).
func parseTCPInfo(b []byte) *TCPInfo {
	if len(b) < 8 {
		return nil
	}
	ti := &TCPInfo{
		State:       b[0],
		CaState:     b[1],
		Retransmits: b[2],
		Probes:      b[3],
		Backoff:     b[4],
		Options:     b[5],
	}
	ti.SndWscale = b[6] & 0x0F
	ti.RcvWscale = b[6] >> 4
	if len(b) < 8+4*24 {
		return ti
	}
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(b[8+off*4 : 12+off*4]) }
	ti.RTO = u32(0)
	ti.ATO = u32(1)
	ti.SndMSS = u32(2)
	ti.RcvMSS = u32(3)
	ti.Unacked = u32(4)
	ti.Sacked = u32(5)
	ti.Lost = u32(6)
	ti.Retrans = u32(7)
	ti.Fackets = u32(8)
	ti.LastDataSent = u32(9)
	ti.LastAckSent = u32(10)
	ti.LastDataRecv = u32(11)
	ti.LastAckRecv = u32(12)
	ti.PMTU = u32(13)
	ti.RcvSsthresh = u32(14)
	ti.RTT = u32(15)
	ti.RTTVar = u32(16)
	ti.SndSsthresh = u32(17)
	ti.SndCwnd = u32(18)
	ti.Advmss = u32(19)
	ti.Reordering = u32(20)
	return ti
}

// unixDiagMsgLen is sizeof(struct unix_diag_msg) up to its trailing rtattrs.
const unixDiagMsgLen = 16

// UNIX_DIAG_* attribute types trailing a struct unix_diag_msg.
const (
	unixDiagName     = 0
	unixDiagVFS      = 1
	unixDiagPeer     = 2
	unixDiagIcons    = 3
	unixDiagRQLen    = 4
	unixDiagMemInfo  = 5
)

func parseUnixSocket(data []byte) (UnixSocket, error) {
	if len(data) < unixDiagMsgLen {
		return UnixSocket{}, fmt.Errorf("sockdiag: unix_diag_msg too short: %d bytes", len(data))
	}

	s := UnixSocket{
		Type:  UnixSocketType(data[1]),
		State: TCPState(data[2]),
		Inode: binary.LittleEndian.Uint32(data[4:8]),
	}

	dec := nlink.NewAttributeDecoder(data[unixDiagMsgLen:])
	for dec.Next() {
		switch dec.Type() {
		case unixDiagName:
			name := dec.String()
			if len(name) > 0 && name[0] == 0 {
				s.AbstractName = name[1:]
			} else {
				s.Path = name
			}
		case unixDiagPeer:
			s.PeerInode = dec.Uint32()
		case unixDiagRQLen:
			b := dec.Bytes()
			if len(b) >= 4 {
				n := binary.LittleEndian.Uint32(b[0:4])
				s.PendingConnections = make([]uint32, n)
			}
		case unixDiagMemInfo:
			s.MemInfo = parseMemInfo(dec.Bytes())
		case unixDiagIcons:
			b := dec.Bytes()
			for off := 0; off+4 <= len(b); off += 4 {
				s.PendingConnections = append(s.PendingConnections, binary.LittleEndian.Uint32(b[off:off+4]))
			}
		}
	}
	return s, nil
}
