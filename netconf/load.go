package netconf

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kuuji/nlink/rtnl"
)

// fileLink, fileAddress, fileRoute, and fileQdisc are the TOML-serializable
// projections of the Declared* types. net.IP/*net.IPNet/tc.QdiscOptions
// don't encode directly, so the file uses plain strings and a type-tagged
// options map for qdiscs.
type fileLink struct {
	Name       string `toml:"name"`
	Kind       string `toml:"kind,omitempty"`
	MTU        uint32 `toml:"mtu,omitempty"`
	Up         bool   `toml:"up,omitempty"`
	Master     string `toml:"master,omitempty"`
	PeerName   string `toml:"peer_name,omitempty"`
	VlanParent string `toml:"vlan_parent,omitempty"`
	VlanID     uint16 `toml:"vlan_id,omitempty"`
	VxlanID    uint32 `toml:"vxlan_id,omitempty"`
	VxlanLink  string `toml:"vxlan_link,omitempty"`
	VxlanLocal string `toml:"vxlan_local,omitempty"`
	VxlanGroup string `toml:"vxlan_group,omitempty"`
}

type fileAddress struct {
	Link  string `toml:"link"`
	CIDR  string `toml:"cidr"`
	Label string `toml:"label,omitempty"`
}

type fileRoute struct {
	Dst      string            `toml:"dst,omitempty"` // empty means the default route
	Gateway  string            `toml:"gateway,omitempty"`
	Oif      string            `toml:"oif,omitempty"`
	Table    uint32            `toml:"table,omitempty"`
	Protocol uint8             `toml:"protocol,omitempty"`
	Metric   uint32            `toml:"metric,omitempty"`
	Hops     []fileNextHop     `toml:"hop,omitempty"`
}

type fileNextHop struct {
	Gateway string `toml:"gateway"`
	Oif     string `toml:"oif"`
	Weight  uint8  `toml:"weight,omitempty"`
}

type fileQdisc struct {
	Device string            `toml:"device"`
	Parent uint32            `toml:"parent,omitempty"`
	Handle uint32            `toml:"handle,omitempty"`
	Kind   string            `toml:"kind"`
	Params map[string]string `toml:"params,omitempty"`
}

// file is the on-disk TOML representation of a NetworkConfig.
type file struct {
	Link    []fileLink    `toml:"link,omitempty"`
	Address []fileAddress `toml:"address,omitempty"`
	Route   []fileRoute   `toml:"route,omitempty"`
	Qdisc   []fileQdisc   `toml:"qdisc,omitempty"`
}

// Load reads a declarative configuration from a TOML file.
//
// Links, addresses and routes are loaded. The file's [[qdisc]] entries are
// parsed but not added to the returned config, and their Kind/params are
// not exposed to the caller; qdiscs are declared with NetworkConfig.Qdisc.
func Load(path string) (*NetworkConfig, error) {
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("netconf: config file not found: %w", err)
		}
		return nil, fmt.Errorf("netconf: reading config file %s: %w", path, err)
	}
	return fromFile(f)
}

func fromFile(f file) (*NetworkConfig, error) {
	cfg := New()
	for _, fl := range f.Link {
		l := DeclaredLink{
			Name:   fl.Name,
			MTU:    fl.MTU,
			Up:     fl.Up,
			Master: fl.Master,
		}
		l.Spec.Name = fl.Name
		l.Spec.Kind = fl.Kind
		l.Spec.MTU = fl.MTU
		l.Spec.PeerName = fl.PeerName
		if fl.VlanParent != "" {
			l.Spec.VlanParent = rtnl.ByName(fl.VlanParent)
		}
		l.Spec.VlanID = fl.VlanID
		l.Spec.VxlanID = fl.VxlanID
		if fl.VxlanLink != "" {
			l.Spec.VxlanLink = rtnl.ByName(fl.VxlanLink)
		}
		if fl.VxlanLocal != "" {
			l.Spec.VxlanLocal = net.ParseIP(fl.VxlanLocal)
		}
		if fl.VxlanGroup != "" {
			l.Spec.VxlanGroup = net.ParseIP(fl.VxlanGroup)
		}
		cfg.Link(l)
	}

	for _, fa := range f.Address {
		ip, ipnet, err := net.ParseCIDR(fa.CIDR)
		if err != nil {
			return nil, fmt.Errorf("netconf: address %q on %s: %w", fa.CIDR, fa.Link, err)
		}
		cfg.Address(DeclaredAddress{Link: fa.Link, IP: ip, Mask: ipnet.Mask, Label: fa.Label})
	}

	for _, fr := range f.Route {
		r := DeclaredRoute{Oif: fr.Oif, Table: fr.Table, Protocol: fr.Protocol, Metric: fr.Metric}
		if fr.Dst != "" {
			_, dst, err := net.ParseCIDR(fr.Dst)
			if err != nil {
				return nil, fmt.Errorf("netconf: route destination %q: %w", fr.Dst, err)
			}
			r.Dst = dst
		}
		if fr.Gateway != "" {
			r.Gateway = net.ParseIP(fr.Gateway)
		}
		for _, h := range fr.Hops {
			r.Multipath = append(r.Multipath, DeclaredNextHop{Gateway: net.ParseIP(h.Gateway), Oif: h.Oif, Weight: h.Weight})
		}
		cfg.Route(r)
	}

	return cfg, nil
}

// Save writes cfg as a TOML file, creating the parent directory (mode
// 0755) if needed.
func Save(path string, cfg *NetworkConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("netconf: creating config directory %s: %w", dir, err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(toFile(cfg)); err != nil {
		return fmt.Errorf("netconf: encoding TOML: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("netconf: writing config file %s: %w", path, err)
	}
	return nil
}

func toFile(cfg *NetworkConfig) file {
	var f file
	for _, l := range cfg.links {
		f.Link = append(f.Link, fileLink{
			Name:     l.Name,
			Kind:     l.Spec.Kind,
			MTU:      l.MTU,
			Up:       l.Up,
			Master:   l.Master,
			PeerName: l.Spec.PeerName,
			VlanID:   l.Spec.VlanID,
			VxlanID:  l.Spec.VxlanID,
		})
	}
	for _, a := range cfg.addresses {
		f.Address = append(f.Address, fileAddress{Link: a.Link, CIDR: a.CIDR().String(), Label: a.Label})
	}
	for _, r := range cfg.routes {
		fr := fileRoute{Oif: r.Oif, Table: r.Table, Protocol: r.Protocol, Metric: r.Metric}
		if r.Dst != nil {
			fr.Dst = r.Dst.String()
		}
		if r.Gateway != nil {
			fr.Gateway = r.Gateway.String()
		}
		for _, h := range r.Multipath {
			fr.Hops = append(fr.Hops, fileNextHop{Gateway: h.Gateway.String(), Oif: h.Oif, Weight: h.Weight})
		}
		f.Route = append(f.Route, fr)
	}
	for _, q := range cfg.qdiscs {
		fq := fileQdisc{Device: q.Device, Parent: q.Parent, Handle: q.Handle}
		if q.Options != nil {
			fq.Kind = q.Options.Kind()
		}
		f.Qdisc = append(f.Qdisc, fq)
	}
	return f
}
