package rtnl

import (
	"context"
	"log/slog"

	"github.com/kuuji/nlink"
)

// Conn is an RTNetlink connection: a netlink.Conn dialed against
// NETLINK_ROUTE, plus the typed link/address/route/neighbor/rule methods in
// this package.
type Conn struct {
	nl  *nlink.Conn
	log *slog.Logger
}

// Dial opens an RTNetlink connection in the caller's current namespace.
func Dial() (*Conn, error) {
	return DialConfig(nil)
}

// DialConfig opens an RTNetlink connection with explicit configuration,
// e.g. to enter a named namespace first (spec.md §4.8) or attach a logger.
func DialConfig(cfg *nlink.Config) (*Conn, error) {
	nl, err := nlink.Dial(nlink.FamilyRoute, cfg)
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	if cfg != nil && cfg.Logger != nil {
		logger = cfg.Logger
	}
	return &Conn{nl: nl, log: logger.With("component", "rtnl")}, nil
}

// DialNamespace opens an RTNetlink connection inside the named network
// namespace (e.g. one created by `ip netns add <name>`).
func DialNamespace(name string) (*Conn, error) {
	return DialConfig(&nlink.Config{Namespace: nlink.NamedNamespace(name)})
}

// DialNamespacePath opens an RTNetlink connection inside the network
// namespace referenced by a filesystem path (e.g. "/proc/<pid>/ns/net").
func DialNamespacePath(path string) (*Conn, error) {
	return DialConfig(&nlink.Config{Namespace: &nlink.Namespace{Path: path}})
}

// Close releases the underlying socket.
func (c *Conn) Close() error { return c.nl.Close() }

// Raw returns the underlying netlink.Conn for escape-hatch use (spec.md §6
// contract 1: "raw escape hatches").
func (c *Conn) Raw() *nlink.Conn { return c.nl }

// resolveIfindex resolves a name to an ifindex by dumping links and
// matching on name — used by InterfaceRef and by builders that accept a
// device name. It always resolves through this Conn so that the lookup is
// namespace-scoped (spec.md §9, "mixed name-and-index identifiers").
func (c *Conn) resolveIfindex(ctx context.Context, name string) (uint32, error) {
	links, err := c.LinkList(ctx)
	if err != nil {
		return 0, err
	}
	for _, l := range links {
		if l.Name == name {
			return l.Index, nil
		}
	}
	return 0, nlink.InterfaceNotFoundError("resolve-interface", name)
}
