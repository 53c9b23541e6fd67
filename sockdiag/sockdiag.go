// Package sockdiag queries socket state over NETLINK_SOCK_DIAG, the
// protocol ss(8) uses to enumerate TCP, UDP, and Unix domain sockets
// without walking /proc.
package sockdiag

import (
	"context"
	"encoding/binary"

	"github.com/kuuji/nlink"
)

// sockDiagByFamily is the sole message type this protocol uses, for both
// inet_diag and unix_diag requests (linux/sock_diag.h).
const sockDiagByFamily = 20

// inetDiagReqLen is sizeof(struct inet_diag_req_v2).
const inetDiagReqLen = 56

// unixDiagReqLen is sizeof(struct unix_diag_req).
const unixDiagReqLen = 24

// Conn is a NETLINK_SOCK_DIAG connection.
type Conn struct {
	nl *nlink.Conn
}

// Dial opens a sock_diag connection in the caller's current namespace.
func Dial() (*Conn, error) {
	nl, err := nlink.Dial(nlink.FamilySockDiag, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{nl: nl}, nil
}

// DialNamespace opens a sock_diag connection inside the named network
// namespace.
func DialNamespace(name string) (*Conn, error) {
	nl, err := nlink.Dial(nlink.FamilySockDiag, &nlink.Config{Namespace: nlink.NamedNamespace(name)})
	if err != nil {
		return nil, err
	}
	return &Conn{nl: nl}, nil
}

// Close releases the underlying socket.
func (c *Conn) Close() error { return c.nl.Close() }

// QueryTCP returns all IPv4 TCP sockets, excluding TIME_WAIT. IPv6 sockets
// are not included.
func (c *Conn) QueryTCP(ctx context.Context) ([]InetSocket, error) {
	return c.queryInet(ctx, TCP())
}

// QueryUDP returns all IPv4 UDP sockets. IPv6 sockets are not included.
func (c *Conn) QueryUDP(ctx context.Context) ([]InetSocket, error) {
	return c.queryInet(ctx, UDP())
}

// QueryUnixSockets returns all Unix domain sockets, with name and peer
// attributes populated.
func (c *Conn) QueryUnixSockets(ctx context.Context) ([]UnixSocket, error) {
	return c.queryUnix(ctx, Unix())
}

// Query runs a SocketFilter and returns matching sockets as the
// appropriate concrete SocketInfo (InetSocket or UnixSocket).
func (c *Conn) Query(ctx context.Context, f *SocketFilter) ([]SocketInfo, error) {
	if f.isUnix {
		socks, err := c.queryUnix(ctx, f)
		if err != nil {
			return nil, err
		}
		out := make([]SocketInfo, len(socks))
		for i, s := range socks {
			out[i] = s
		}
		return out, nil
	}
	socks, err := c.queryInet(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]SocketInfo, len(socks))
	for i, s := range socks {
		out[i] = s
	}
	return out, nil
}

func (c *Conn) queryInet(ctx context.Context, f *SocketFilter) ([]InetSocket, error) {
	req := make([]byte, inetDiagReqLen)
	req[0] = byte(f.family)
	req[1] = byte(f.protocol)
	req[2] = byte(f.ext)
	binary.LittleEndian.PutUint32(req[4:8], f.states)

	var out []InetSocket
	m := nlink.Message{
		Header: nlink.Header{Type: nlink.HeaderType(sockDiagByFamily)},
		Data:   req,
	}
	err := c.nl.Dump(ctx, m, func(r nlink.Message) error {
		s, err := parseInetSocket(r.Data)
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Conn) queryUnix(ctx context.Context, f *SocketFilter) ([]UnixSocket, error) {
	req := make([]byte, unixDiagReqLen)
	req[0] = byte(AFUnix)
	req[1] = 0 // sdiag_protocol: unused for Unix sockets
	binary.LittleEndian.PutUint32(req[4:8], 0xFFFFFFFF) // udiag_states: all
	binary.LittleEndian.PutUint32(req[8:12], 0)          // udiag_ino: match all
	binary.LittleEndian.PutUint32(req[12:16], f.show)

	var out []UnixSocket
	m := nlink.Message{
		Header: nlink.Header{Type: nlink.HeaderType(sockDiagByFamily)},
		Data:   req,
	}
	err := c.nl.Dump(ctx, m, func(r nlink.Message) error {
		s, err := parseUnixSocket(r.Data)
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
