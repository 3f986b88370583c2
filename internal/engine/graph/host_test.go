package graph

import "testing"

func TestPortScanTrackerCounts(t *testing.T) {
	tr := NewPortScanTracker()

	tr.Touch(80)
	tr.Touch(443)
	tr.Touch(80)
	tr.Touch(22)

	if tr.Distinct() != 3 {
		t.Fatalf("Distinct() = %d, want 3", tr.Distinct())
	}

	var order []uint16
	counts := make(map[uint16]uint32)
	for stat := range tr.All() {
		order = append(order, stat.Port)
		counts[stat.Port] = stat.Accesses
	}

	want := []uint16{22, 80, 443}
	if len(order) != len(want) {
		t.Fatalf("enumerated %d ports, want %d", len(order), len(want))
	}
	for i, port := range want {
		if order[i] != port {
			t.Errorf("order[%d] = %d, want %d", i, order[i], port)
		}
	}
	if counts[80] != 2 {
		t.Errorf("port 80 accesses = %d, want 2", counts[80])
	}
	if counts[443] != 1 || counts[22] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestHostLevelFollowsTracker(t *testing.T) {
	h := newHost(0x0A000001, 32, 0)

	if h.Level() != LevelInfo {
		t.Fatalf("new host level = %v, want Info", h.Level())
	}

	h.promote()
	if h.Level() != LevelTrace {
		t.Fatalf("promoted host level = %v, want Trace", h.Level())
	}
	h.tracker.Touch(80)
	h.tracker.Touch(81)

	h.demote()
	if h.Level() != LevelInfo {
		t.Fatalf("demoted host level = %v, want Info", h.Level())
	}
	if h.DistinctPorts() != 0 {
		t.Errorf("DistinctPorts() after demote = %d, want 0", h.DistinctPorts())
	}
	if h.lastDistinct != 2 {
		t.Errorf("lastDistinct = %d, want 2", h.lastDistinct)
	}
}
