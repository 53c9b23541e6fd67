package options

import "testing"

func TestCellLogForFitsMTU(t *testing.T) {
	t.Parallel()

	log := cellLogFor(rtabMTU)
	if (rtabMTU >> log) > 255 {
		t.Errorf("cellLogFor(%d) = %d, rtabMTU>>log = %d, want <= 255", rtabMTU, log, rtabMTU>>log)
	}
}

func TestXmittimeScalesWithSize(t *testing.T) {
	t.Parallel()

	small := xmittime(1_000_000, 100)
	large := xmittime(1_000_000, 1000)
	if large <= small {
		t.Errorf("xmittime(rate, 1000) = %d, want > xmittime(rate, 100) = %d", large, small)
	}
}

func TestBuildRateTableMonotonic(t *testing.T) {
	t.Parallel()

	table, cellLog := buildRateTable(1_000_000, 0)
	if cellLog == 0 {
		t.Error("cellLog = 0 for a 2047-byte MTU table, want > 0")
	}
	for i := 1; i < len(table); i++ {
		if table[i] < table[i-1] {
			t.Fatalf("table[%d] = %d < table[%d] = %d, want non-decreasing", i, table[i], i-1, table[i-1])
		}
	}
}

func TestEncodeRateTableLength(t *testing.T) {
	t.Parallel()

	table, _ := buildRateTable(1_000_000, 0)
	b := encodeRateTable(table)
	if len(b) != 256*4 {
		t.Fatalf("len(encodeRateTable(...)) = %d, want 1024", len(b))
	}
}
