package graph

import (
	"iter"
	"net"

	"FloodSight/internal/engine/cluster"
	"FloodSight/internal/model"
	"FloodSight/internal/trie"
)

// Level is a host's examination depth. Info hosts carry only the interval
// buffer; Trace hosts additionally track every destination port they are
// accessed on.
type Level uint8

const (
	LevelInfo  Level = 1
	LevelTrace Level = 2
)

// portsInit matches the original's initial port-array size.
const portsInit = 8

// IntervalBuffer is a fixed-length circular buffer of per-interval SYN
// counts. Exactly one slot is current at any time; counts rotated past the
// horizon are gone, which is what bounds per-host memory.
type IntervalBuffer struct {
	slots []float64
	idx   int
}

// NewIntervalBuffer creates a zeroed buffer of n slots with the current
// index aligned to idx, so hosts created mid-window stay slot-aligned with
// the rest of the graph.
func NewIntervalBuffer(n, idx int) *IntervalBuffer {
	return &IntervalBuffer{slots: make([]float64, n), idx: idx % n}
}

// Add accumulates v into the current slot.
func (b *IntervalBuffer) Add(v float64) {
	b.slots[b.idx] += v
}

// Rotate advances the current index and zeroes the newly current slot,
// destroying whatever the slot held one full cycle ago.
func (b *IntervalBuffer) Rotate() {
	b.idx = (b.idx + 1) % len(b.slots)
	b.slots[b.idx] = 0
}

// Index returns the current slot index.
func (b *IntervalBuffer) Index() int {
	return b.idx
}

// Len returns the buffer length.
func (b *IntervalBuffer) Len() int {
	return len(b.slots)
}

// Current returns the value of the current slot.
func (b *IntervalBuffer) Current() float64 {
	return b.slots[b.idx]
}

// Total returns the sum over all slots.
func (b *IntervalBuffer) Total() float64 {
	sum := 0.0
	for _, v := range b.slots {
		sum += v
	}
	return sum
}

// Vector returns a copy of the slots in storage order. Buffers created by
// the same graph share slot alignment, so these vectors are directly
// comparable across hosts.
func (b *IntervalBuffer) Vector() []float64 {
	out := make([]float64, len(b.slots))
	copy(out, b.slots)
	return out
}

// PortStat is one (port, access count) entry of a PortScanTracker.
type PortStat struct {
	Port     uint16
	Accesses uint32
}

// PortScanTracker records every destination port a Trace host has been
// accessed on: a 16-bit trie for O(16) resolution plus a growable array of
// per-port counters the trie leaves point into.
type PortScanTracker struct {
	index *trie.Trie
	ports []PortStat
}

// NewPortScanTracker allocates an empty tracker.
func NewPortScanTracker() *PortScanTracker {
	return &PortScanTracker{
		index: trie.New(16),
		ports: make([]PortStat, 0, portsInit),
	}
}

// Touch registers one access on port, inserting it on first sight.
func (t *PortScanTracker) Touch(port uint16) {
	idx, _ := t.index.InsertOrGet(uint32(port), func() int32 {
		t.ports = append(t.ports, PortStat{Port: port})
		return int32(len(t.ports) - 1)
	})
	t.ports[idx].Accesses++
}

// Distinct returns the number of distinct ports seen.
func (t *PortScanTracker) Distinct() int {
	return t.index.Len()
}

// All iterates the tracked ports in ascending port order.
func (t *PortScanTracker) All() iter.Seq[PortStat] {
	return func(yield func(PortStat) bool) {
		for _, idx := range t.index.All() {
			if !yield(t.ports[idx]) {
				return
			}
		}
	}
}

// Host is one tracked address with its interval buffer and, at Trace
// level, a port-scan tracker. Host records are heap-allocated and never
// move; the host trie refers to them through the graph's pointer array.
type Host struct {
	key      uint32
	Accesses uint32
	Cluster  int
	Distance float64

	verticalScan bool
	attacker     bool

	// lastDistinct preserves the distinct-port count reported at the most
	// recent port-window flush, after the tracker itself is discarded.
	lastDistinct int

	buf     *IntervalBuffer
	tracker *PortScanTracker
}

func newHost(key uint32, intvlMax, intervalIdx int) *Host {
	return &Host{
		key:     key,
		Cluster: cluster.Unclassified,
		buf:     NewIntervalBuffer(intvlMax, intervalIdx),
	}
}

// IP returns the host's address.
func (h *Host) IP() net.IP {
	return model.KeyAddr(h.key)
}

// Level reports the examination depth; Trace exactly when a port tracker
// is allocated.
func (h *Host) Level() Level {
	if h.tracker != nil {
		return LevelTrace
	}
	return LevelInfo
}

// DistinctPorts returns the number of distinct ports seen since the last
// port-window flush; zero for Info hosts.
func (h *Host) DistinctPorts() int {
	if h.tracker == nil {
		return 0
	}
	return h.tracker.Distinct()
}

// VerticalScan reports whether the host tripped the vertical-scan
// threshold.
func (h *Host) VerticalScan() bool {
	return h.verticalScan
}

// Attacker reports whether the last classification window placed the host
// in the attack cluster.
func (h *Host) Attacker() bool {
	return h.attacker
}

// promote switches the host to Trace level.
func (h *Host) promote() {
	if h.tracker == nil {
		h.tracker = NewPortScanTracker()
	}
}

// demote discards the port tracker, keeping its distinct-port count for
// reporting.
func (h *Host) demote() {
	if h.tracker != nil {
		h.lastDistinct = h.tracker.Distinct()
		h.tracker = nil
	}
}

func (h *Host) report(includeIntervals bool) model.HostReport {
	distinct := h.DistinctPorts()
	if distinct == 0 {
		distinct = h.lastDistinct
	}
	r := model.HostReport{
		IP:            h.IP(),
		Cluster:       h.Cluster,
		Distance:      h.Distance,
		Accesses:      h.Accesses,
		SynTotal:      h.buf.Total(),
		DistinctPorts: distinct,
		Attacker:      h.attacker,
		VerticalScan:  h.verticalScan,
	}
	if includeIntervals {
		r.Intervals = h.buf.Vector()
	}
	return r
}
