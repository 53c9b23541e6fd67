package diag

import (
	"testing"

	"github.com/kuuji/nlink/rtnl"
	"github.com/kuuji/nlink/tc"
)

func TestInterfaceIssuesErrorRate(t *testing.T) {
	t.Parallel()

	d := WithConfig(nil, nil, DefaultConfig())
	link := rtnl.Link{Name: "eth0", Flags: rtnl.IFFUp, Stats: &rtnl.LinkStats{
		RxPackets: 1000, TxPackets: 1000, RxErrors: 50,
	}}
	ir := InterfaceReport{Name: "eth0", Stats: link.Stats}

	issues := d.interfaceIssues(link, ir)
	if len(issues) == 0 {
		t.Fatal("expected an issue for a 2.5% error rate against a 0.1% threshold")
	}
	found := false
	for _, i := range issues {
		if i.Category == "hardware" {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %+v, want a hardware-category issue", issues)
	}
}

func TestInterfaceIssuesDownLinkSkipped(t *testing.T) {
	t.Parallel()

	d := WithConfig(nil, nil, DefaultConfig())
	link := rtnl.Link{Name: "eth1", Flags: 0, Stats: &rtnl.LinkStats{RxErrors: 1000, RxPackets: 10}}
	if issues := d.interfaceIssues(link, InterfaceReport{Stats: link.Stats}); len(issues) != 0 {
		t.Errorf("down link should produce no issues, got %+v", issues)
	}
}

func TestInterfaceIssuesQdiscBacklog(t *testing.T) {
	t.Parallel()

	d := WithConfig(nil, nil, DefaultConfig())
	link := rtnl.Link{Name: "eth0", Flags: rtnl.IFFUp}
	ir := InterfaceReport{
		Name: "eth0",
		Qdiscs: []QdiscReport{
			{Kind: "fq_codel", Stats: &tc.Stats{Backlog: 500_000, Qlen: 10}},
		},
	}
	issues := d.interfaceIssues(link, ir)
	if len(issues) != 1 || issues[0].Category != "qdisc" {
		t.Errorf("issues = %+v, want a single qdisc backlog issue", issues)
	}
}

func TestSeverityString(t *testing.T) {
	t.Parallel()

	if Critical.String() != "CRITICAL" || Info.String() != "INFO" {
		t.Errorf("Severity.String() mismatch: %s, %s", Critical, Info)
	}
}

func TestBottleneckTypeString(t *testing.T) {
	t.Parallel()

	if QdiscDrops.String() != "QdiscDrops" || BottleneckType(99).String() != "Unknown" {
		t.Error("BottleneckType.String() mismatch")
	}
}

func TestClamp01(t *testing.T) {
	t.Parallel()

	if clamp01(2.5) != 1 || clamp01(0.3) != 0.3 {
		t.Error("clamp01 did not bound to [0,1]")
	}
}
