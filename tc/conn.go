package tc

import (
	"encoding/binary"
	"log/slog"

	"github.com/kuuji/nlink"
)

// Conn is a traffic-control connection: an RTNetlink connection plus the
// typed qdisc/class/filter/action/chain methods in this package.
type Conn struct {
	nl  *nlink.Conn
	log *slog.Logger
}

// Dial opens a traffic-control connection in the caller's current namespace.
func Dial() (*Conn, error) { return DialConfig(nil) }

// DialConfig opens a traffic-control connection with explicit configuration.
func DialConfig(cfg *nlink.Config) (*Conn, error) {
	nl, err := nlink.Dial(nlink.FamilyRoute, cfg)
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	if cfg != nil && cfg.Logger != nil {
		logger = cfg.Logger
	}
	return &Conn{nl: nl, log: logger.With("component", "tc")}, nil
}

// Close releases the underlying socket.
func (c *Conn) Close() error { return c.nl.Close() }

// Raw returns the underlying netlink.Conn for escape-hatch use.
func (c *Conn) Raw() *nlink.Conn { return c.nl }

func tcmsg(family uint8, ifindex uint32, handle, parent uint32) []byte {
	b := make([]byte, tcmsgLen)
	b[0] = family
	binary.LittleEndian.PutUint32(b[4:8], ifindex)
	binary.LittleEndian.PutUint32(b[8:12], handle)
	binary.LittleEndian.PutUint32(b[12:16], parent)
	return b
}
