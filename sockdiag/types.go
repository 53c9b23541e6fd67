package sockdiag

import (
	"net"
	"strconv"
)

// AddressFamily is a Linux socket address family (AF_INET, AF_INET6, AF_UNIX).
type AddressFamily uint8

const (
	AFInet  AddressFamily = 2
	AFInet6 AddressFamily = 10
	AFUnix  AddressFamily = 1
)

// Protocol is an IP protocol number, used to pick TCP vs. UDP diagnostics.
type Protocol uint8

const (
	ProtoTCP Protocol = 6
	ProtoUDP Protocol = 17
)

// TCPState is a TCP connection state, as enumerated by linux/tcp_states.h.
type TCPState uint8

const (
	TCPEstablished TCPState = 1
	TCPSynSent     TCPState = 2
	TCPSynRecv     TCPState = 3
	TCPFinWait1    TCPState = 4
	TCPFinWait2    TCPState = 5
	TCPTimeWait    TCPState = 6
	TCPClose       TCPState = 7
	TCPCloseWait   TCPState = 8
	TCPLastAck     TCPState = 9
	TCPListen      TCPState = 10
	TCPClosing     TCPState = 11
	TCPNewSynRecv  TCPState = 12
)

var tcpStateNames = map[TCPState]string{
	TCPEstablished: "ESTABLISHED",
	TCPSynSent:     "SYN-SENT",
	TCPSynRecv:     "SYN-RECV",
	TCPFinWait1:    "FIN-WAIT-1",
	TCPFinWait2:    "FIN-WAIT-2",
	TCPTimeWait:    "TIME-WAIT",
	TCPClose:       "CLOSE",
	TCPCloseWait:   "CLOSE-WAIT",
	TCPLastAck:     "LAST-ACK",
	TCPListen:      "LISTEN",
	TCPClosing:     "CLOSING",
	TCPNewSynRecv:  "NEW-SYN-RECV",
}

// Name returns the conventional ss(8)-style name for the state.
func (s TCPState) Name() string {
	if n, ok := tcpStateNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// UnixSocketType mirrors the standard SOCK_* socket type constants.
type UnixSocketType uint8

const (
	UnixStream    UnixSocketType = 1
	UnixDgram     UnixSocketType = 2
	UnixSeqpacket UnixSocketType = 5
)

// Netid returns the ss(8)-style type name ("u_str", "u_dgr", "u_seq").
func (t UnixSocketType) Netid() string {
	switch t {
	case UnixStream:
		return "u_str"
	case UnixDgram:
		return "u_dgr"
	case UnixSeqpacket:
		return "u_seq"
	default:
		return "u_unk"
	}
}

// SocketInfo is satisfied by every concrete socket kind this package
// reports: InetSocket and UnixSocket.
type SocketInfo interface {
	isSocketInfo()
}

// MemInfo is a socket's SK_MEMINFO snapshot (struct sk_meminfo, wstruct
// order preserved).
type MemInfo struct {
	RmemAlloc  uint32
	Rcvbuf     uint32
	WmemAlloc  uint32
	Sndbuf     uint32
	FwdAlloc   uint32
	WmemQueued uint32
	OptMem     uint32
	Backlog    uint32
	Drops      uint32
}

// TCPInfo is a partial decode of struct tcp_info: the fields ss(8) and
// the sockdiag examples in the original source actually read
// (state/retransmit bookkeeping, RTT, window sizes). Fields beyond
// Reordering are intentionally not modeled; see DESIGN.md.
type TCPInfo struct {
	State       uint8
	CaState     uint8
	Retransmits uint8
	Probes      uint8
	Backoff     uint8
	Options     uint8
	SndWscale   uint8
	RcvWscale   uint8
	RTO         uint32
	ATO         uint32
	SndMSS      uint32
	RcvMSS      uint32
	Unacked     uint32
	Sacked      uint32
	Lost        uint32
	Retrans     uint32
	Fackets     uint32
	LastDataSent uint32
	LastAckSent  uint32
	LastDataRecv uint32
	LastAckRecv  uint32
	PMTU        uint32
	RcvSsthresh uint32
	RTT         uint32
	RTTVar      uint32
	SndSsthresh uint32
	SndCwnd     uint32
	Advmss      uint32
	Reordering  uint32
}

// InetSocket is a TCP or UDP socket over IPv4 or IPv6.
type InetSocket struct {
	Family     AddressFamily
	Protocol   Protocol
	State      TCPState
	Local      net.IP
	LocalPort  uint16
	Remote     net.IP
	RemotePort uint16
	Interface  uint32
	UID        uint32
	Inode      uint32
	RecvQ      uint32
	SendQ      uint32
	TCPInfo    *TCPInfo
	MemInfo    *MemInfo
	Congestion string
}

func (InetSocket) isSocketInfo() {}

// LocalAddr formats Local/LocalPort as "ip:port", the ss(8) display convention.
func (s InetSocket) LocalAddr() string { return joinAddr(s.Local, s.LocalPort) }

// RemoteAddr formats Remote/RemotePort as "ip:port".
func (s InetSocket) RemoteAddr() string { return joinAddr(s.Remote, s.RemotePort) }

func joinAddr(ip net.IP, port uint16) string {
	return net.JoinHostPort(ip.String(), strconv.Itoa(int(port)))
}

// UnixSocket is a Unix domain socket.
type UnixSocket struct {
	Type               UnixSocketType
	State              TCPState
	Inode              uint32
	Path               string
	AbstractName       string
	PeerInode          uint32
	PendingConnections []uint32
	MemInfo            *MemInfo
}

func (UnixSocket) isSocketInfo() {}
