package kobject

import "testing"

func TestParseUevent(t *testing.T) {
	t.Parallel()

	msg := []byte("add@/devices/pci0000:00/0000:00:14.0/usb1/1-1\x00" +
		"ACTION=add\x00" +
		"DEVPATH=/devices/pci0000:00/0000:00:14.0/usb1/1-1\x00" +
		"SUBSYSTEM=usb\x00" +
		"DEVTYPE=usb_device\x00" +
		"SEQNUM=12345\x00")

	ev, ok := Parse(msg)
	if !ok {
		t.Fatal("Parse() ok = false")
	}
	if ev.Action != "add" {
		t.Errorf("Action = %q, want add", ev.Action)
	}
	if ev.DevPath != "/devices/pci0000:00/0000:00:14.0/usb1/1-1" {
		t.Errorf("DevPath = %q", ev.DevPath)
	}
	if ev.Subsystem != "usb" {
		t.Errorf("Subsystem = %q, want usb", ev.Subsystem)
	}
	if ev.DevType() != "usb_device" {
		t.Errorf("DevType() = %q, want usb_device", ev.DevType())
	}
	seq, ok := ev.Seqnum()
	if !ok || seq != 12345 {
		t.Errorf("Seqnum() = %d, %v, want 12345, true", seq, ok)
	}
	if !ev.IsAdd() || ev.IsRemove() {
		t.Errorf("IsAdd()=%v IsRemove()=%v", ev.IsAdd(), ev.IsRemove())
	}
}

func TestParseUeventWithDevname(t *testing.T) {
	t.Parallel()

	msg := []byte("add@/devices/virtual/block/loop0\x00" +
		"ACTION=add\x00" +
		"DEVPATH=/devices/virtual/block/loop0\x00" +
		"SUBSYSTEM=block\x00" +
		"DEVNAME=loop0\x00" +
		"DEVTYPE=disk\x00" +
		"MAJOR=7\x00" +
		"MINOR=0\x00")

	ev, ok := Parse(msg)
	if !ok {
		t.Fatal("Parse() ok = false")
	}
	if ev.Subsystem != "block" {
		t.Errorf("Subsystem = %q, want block", ev.Subsystem)
	}
	if ev.DevName() != "loop0" {
		t.Errorf("DevName() = %q, want loop0", ev.DevName())
	}
	major, ok := ev.Major()
	if !ok || major != 7 {
		t.Errorf("Major() = %d, %v, want 7, true", major, ok)
	}
	minor, ok := ev.Minor()
	if !ok || minor != 0 {
		t.Errorf("Minor() = %d, %v, want 0, true", minor, ok)
	}
}

func TestParseUeventNoNul(t *testing.T) {
	t.Parallel()

	if _, ok := Parse([]byte("no null terminator here")); ok {
		t.Error("Parse() ok = true for a header with no NUL")
	}
}

func TestParseUeventNoAt(t *testing.T) {
	t.Parallel()

	if _, ok := Parse([]byte("noatsign\x00ACTION=add\x00")); ok {
		t.Error("Parse() ok = true for a header with no '@'")
	}
}
