package netconf

import (
	"net"
	"path/filepath"
	"testing"
)

func TestLoadSaveRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := New()
	cfg.Link(DeclaredLink{Name: "br0", Up: true})
	ip, ipnet, err := net.ParseCIDR("192.168.100.1/24")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Address(DeclaredAddress{Link: "br0", IP: ip, Mask: ipnet.Mask})

	path := filepath.Join(t.TempDir(), "netconf.toml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Links()) != 1 || loaded.Links()[0].Name != "br0" {
		t.Errorf("Links() = %+v", loaded.Links())
	}
	if len(loaded.Addresses()) != 1 || loaded.Addresses()[0].Link != "br0" {
		t.Errorf("Addresses() = %+v", loaded.Addresses())
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load() error = nil for missing file")
	}
}
