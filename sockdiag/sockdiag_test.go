package sockdiag

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/kuuji/nlink"
)

func TestParseInetSocketIPv4(t *testing.T) {
	t.Parallel()

	data := make([]byte, inetDiagMsgLen)
	data[0] = byte(AFInet)
	data[1] = byte(TCPEstablished)
	binary.BigEndian.PutUint16(data[4:6], 22)
	binary.BigEndian.PutUint16(data[6:8], 54321)
	copy(data[8:12], net.IPv4(127, 0, 0, 1).To4())
	copy(data[24:28], net.IPv4(10, 0, 0, 5).To4())
	binary.LittleEndian.PutUint32(data[64:68], 1000)
	binary.LittleEndian.PutUint32(data[68:72], 9999)

	s, err := parseInetSocket(data)
	if err != nil {
		t.Fatalf("parseInetSocket() error = %v", err)
	}
	if s.State != TCPEstablished || s.LocalPort != 22 || s.RemotePort != 54321 {
		t.Errorf("s = %+v", s)
	}
	if !s.Local.Equal(net.IPv4(127, 0, 0, 1)) {
		t.Errorf("Local = %v", s.Local)
	}
	if s.UID != 1000 || s.Inode != 9999 {
		t.Errorf("UID/Inode = %d/%d", s.UID, s.Inode)
	}
}

func TestParseInetSocketWithCongestionAttr(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.String(inetDiagCong, "cubic")

	data := make([]byte, inetDiagMsgLen)
	data[0] = byte(AFInet)
	data = append(data, enc.Bytes()...)

	s, err := parseInetSocket(data)
	if err != nil {
		t.Fatalf("parseInetSocket() error = %v", err)
	}
	if s.Congestion != "cubic" {
		t.Errorf("Congestion = %q, want cubic", s.Congestion)
	}
}

func TestParseInetSocketTooShort(t *testing.T) {
	t.Parallel()

	if _, err := parseInetSocket(make([]byte, 4)); err == nil {
		t.Error("parseInetSocket() error = nil for truncated message")
	}
}

func TestParseUnixSocketWithName(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.String(unixDiagName, "/run/dbus/system_bus_socket")

	data := make([]byte, unixDiagMsgLen)
	data[1] = byte(UnixStream)
	data[2] = byte(TCPListen)
	binary.LittleEndian.PutUint32(data[4:8], 12345)
	data = append(data, enc.Bytes()...)

	s, err := parseUnixSocket(data)
	if err != nil {
		t.Fatalf("parseUnixSocket() error = %v", err)
	}
	if s.Inode != 12345 || s.Path != "/run/dbus/system_bus_socket" {
		t.Errorf("s = %+v", s)
	}
	if s.Type.Netid() != "u_str" {
		t.Errorf("Netid() = %q, want u_str", s.Type.Netid())
	}
}

func TestParseUnixSocketAbstractName(t *testing.T) {
	t.Parallel()

	enc := nlink.NewAttributeEncoder()
	enc.RawString(unixDiagName, "\x00org.freedesktop.DBus")

	data := make([]byte, unixDiagMsgLen)
	data = append(data, enc.Bytes()...)

	s, err := parseUnixSocket(data)
	if err != nil {
		t.Fatalf("parseUnixSocket() error = %v", err)
	}
	if s.AbstractName != "org.freedesktop.DBus" {
		t.Errorf("AbstractName = %q", s.AbstractName)
	}
}

func TestSocketFilterDefaults(t *testing.T) {
	t.Parallel()

	f := TCP()
	if f.states&(1<<TCPTimeWait) != 0 {
		t.Error("TCP() default filter includes TIME_WAIT")
	}
	if f.states&(1<<TCPEstablished) == 0 {
		t.Error("TCP() default filter excludes ESTABLISHED")
	}

	f2 := TCP().Listening()
	if f2.states != 1<<TCPListen {
		t.Errorf("Listening() states = %#x, want only TCPListen", f2.states)
	}
}

func TestTCPStateName(t *testing.T) {
	t.Parallel()

	if TCPListen.Name() != "LISTEN" {
		t.Errorf("Name() = %q, want LISTEN", TCPListen.Name())
	}
	if TCPState(200).Name() != "UNKNOWN" {
		t.Errorf("Name() = %q, want UNKNOWN", TCPState(200).Name())
	}
}
