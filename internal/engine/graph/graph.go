// Package graph owns the host index and drives ingestion, interval and
// window rotation, port-scan detection, and the classification hand-off to
// the clusterer. The graph is a single-writer structure: Ingest, Flush and
// everything they call must run on one goroutine.
package graph

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"FloodSight/internal/engine/cluster"
	"FloodSight/internal/model"
	"FloodSight/internal/trie"
)

// ErrInvalidRecord marks a malformed or out-of-range flow record. The
// record is skipped and counted; no graph state changes.
var ErrInvalidRecord = errors.New("graph: invalid flow record")

const (
	hostsInit = 32768
	allPorts  = 65536
)

// Graph tracks all hosts seen in the current run. It owns the 32-bit host
// trie, the pointer-stable host array the trie leaves index into, the
// global port histogram, and the interval/window clocks.
type Graph struct {
	params   Params
	intvlMax int

	index *trie.Trie
	hosts []*Host
	ports []uint32

	started       bool
	lastSeen      time.Time
	intervalFirst time.Time
	intervalLast  time.Time
	portFirst     time.Time
	windowFirst   time.Time

	intervalIdx int
	intervalCnt int
	windowCnt   int
	flushCnt    int

	suspiciousPorts []model.PortReport

	skippedRecords uint64
	skippedWindows uint64
}

// New builds an empty graph for the given parameters.
func New(params Params) (*Graph, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	g := &Graph{
		params:   params,
		intvlMax: params.IntvlMax(),
		index:    trie.New(32),
		hosts:    make([]*Host, 0, hostsInit),
	}
	if params.Mode&ModeHorizontalScan != 0 {
		g.ports = make([]uint32, allPorts)
	}
	return g, nil
}

// Params returns the graph's configuration.
func (g *Graph) Params() Params {
	return g.params
}

// HostCount returns the number of tracked hosts.
func (g *Graph) HostCount() int {
	return len(g.hosts)
}

// SkippedRecords returns how many records were rejected as invalid.
func (g *Graph) SkippedRecords() uint64 {
	return g.skippedRecords
}

// SkippedWindows returns how many windows were left unclassified because
// clustering was degenerate.
func (g *Graph) SkippedWindows() uint64 {
	return g.skippedWindows
}

// Hosts iterates the tracked hosts in ascending address order.
func (g *Graph) Hosts() iter.Seq[*Host] {
	return func(yield func(*Host) bool) {
		for _, idx := range g.index.All() {
			if !yield(g.hosts[idx]) {
				return
			}
		}
	}
}

// Ingest feeds one flow record into the graph. Records must arrive in
// non-decreasing TimeLast order; the upstream source guarantees this. The
// returned result is non-nil when the record pushed the clock past a window
// boundary and a classification pass ran.
//
// Invalid records yield an error wrapping ErrInvalidRecord, are counted,
// and change nothing. Records with a protocol other than TCP or UDP are
// ignored without error.
func (g *Graph) Ingest(flow *model.FlowRecord) (*model.WindowResult, error) {
	if err := g.validate(flow); err != nil {
		g.skippedRecords++
		return nil, err
	}
	if flow.Protocol != model.ProtocolTCP && flow.Protocol != model.ProtocolUDP {
		return nil, nil
	}

	tracked := flow.DstIP
	if g.params.Track == TrackSrc {
		tracked = flow.SrcIP
	}
	key, ok := model.AddrKey(tracked)
	if !ok {
		g.skippedRecords++
		return nil, fmt.Errorf("%w: %s is not an IPv4 address", ErrInvalidRecord, tracked)
	}

	now := flow.TimeLast
	if !g.started {
		g.start(now)
	}
	result := g.tick(now)
	g.lastSeen = now

	idx, _ := g.index.InsertOrGet(key, func() int32 {
		g.hosts = append(g.hosts, newHost(key, g.intvlMax, g.intervalIdx))
		return int32(len(g.hosts) - 1)
	})
	h := g.hosts[idx]

	h.Accesses++
	if flow.SynFlag && g.params.Mode&ModeSynFlood != 0 {
		h.buf.Add(float64(flow.Packets))
	}

	port := uint16(flow.DstPort)
	if g.params.Mode&ModeHorizontalScan != 0 {
		g.ports[port]++
	}
	if g.params.Mode&ModeVerticalScan != 0 {
		if h.tracker == nil && h.Accesses >= g.params.ExamThreshold {
			h.promote()
		}
		if h.tracker != nil {
			h.tracker.Touch(port)
			if h.tracker.Distinct() > g.params.PortThreshold {
				h.verticalScan = true
			}
		}
	}

	return result, nil
}

// Flush closes the final, partial window at end of input and returns its
// classification. The pending port histogram is evaluated first, so a scan
// that started after the last port-window flush still shows up in the
// end-of-input report. Returns nil if no record was ever ingested.
func (g *Graph) Flush() *model.WindowResult {
	if !g.started {
		return nil
	}
	g.addSuspects(g.horizontalSuspects())
	return g.closeWindow(g.lastSeen)
}

func (g *Graph) validate(flow *model.FlowRecord) error {
	if flow.DstPort > 0xFFFF {
		return fmt.Errorf("%w: destination port %d out of range", ErrInvalidRecord, flow.DstPort)
	}
	if flow.SrcPort > 0xFFFF {
		return fmt.Errorf("%w: source port %d out of range", ErrInvalidRecord, flow.SrcPort)
	}
	if flow.TimeLast.IsZero() {
		return fmt.Errorf("%w: missing end timestamp", ErrInvalidRecord)
	}
	if flow.TimeLast.Before(flow.TimeFirst) {
		return fmt.Errorf("%w: flow ends before it starts", ErrInvalidRecord)
	}
	return nil
}

func (g *Graph) start(now time.Time) {
	g.started = true
	g.intervalFirst = now
	g.portFirst = now
	g.windowFirst = now
}

// tick advances the interval, port-window and window clocks up to now. Each
// step is idempotent with respect to repeated calls at the same time.
func (g *Graph) tick(now time.Time) *model.WindowResult {
	for now.Sub(g.intervalFirst) >= g.params.Interval {
		g.rotateInterval()
	}

	if g.params.PortWindow > 0 {
		if elapsed := now.Sub(g.portFirst); elapsed >= g.params.PortWindow {
			g.flushPorts()
			steps := elapsed / g.params.PortWindow
			g.portFirst = g.portFirst.Add(steps * g.params.PortWindow)
		}
	}

	var result *model.WindowResult
	for now.Sub(g.windowFirst) >= g.params.TimeWindow {
		end := g.windowFirst.Add(g.params.TimeWindow)
		result = g.closeWindow(end)
		g.windowFirst = end
		if g.params.FlushIter > 0 && g.flushCnt >= g.params.FlushIter {
			g.reset()
		}
	}
	return result
}

// rotateInterval closes the current interval and makes the next circular
// slot current in every host's buffer.
func (g *Graph) rotateInterval() {
	g.intervalLast = g.intervalFirst.Add(g.params.Interval)
	g.intervalIdx = (g.intervalIdx + 1) % g.intvlMax
	g.intervalCnt++
	for _, h := range g.hosts {
		h.buf.Rotate()
	}
	g.intervalFirst = g.intervalLast
}

// flushPorts evaluates the horizontal-scan histogram, then discards all
// per-host port trackers and zeroes the histogram, bounding the memory
// promoted hosts can hold across port windows.
func (g *Graph) flushPorts() {
	g.addSuspects(g.horizontalSuspects())
	for _, h := range g.hosts {
		h.demote()
	}
	for i := range g.ports {
		g.ports[i] = 0
	}
}

// addSuspects merges newly flagged ports into the list pending for the next
// window result. A time window spans several port windows, so flags
// accumulate until the window boundary consumes them; a port tripping in
// more than one port window keeps its highest count.
func (g *Graph) addSuspects(found []model.PortReport) {
	for _, p := range found {
		merged := false
		for i, existing := range g.suspiciousPorts {
			if existing.Port == p.Port {
				if p.Accesses > existing.Accesses {
					g.suspiciousPorts[i] = p
				}
				merged = true
				break
			}
		}
		if !merged {
			g.suspiciousPorts = append(g.suspiciousPorts, p)
		}
	}
}

// horizontalSuspects flags ports whose access count stands a configured
// multiple above the mean per-active-port count of this port window.
func (g *Graph) horizontalSuspects() []model.PortReport {
	if g.ports == nil {
		return nil
	}
	var total uint64
	active := 0
	for _, c := range g.ports {
		if c > 0 {
			total += uint64(c)
			active++
		}
	}
	if active < 2 {
		return nil
	}
	mean := float64(total) / float64(active)
	limit := g.params.HorizontalScale * mean

	var out []model.PortReport
	for port, c := range g.ports {
		if float64(c) > limit {
			out = append(out, model.PortReport{Port: uint16(port), Accesses: c})
		}
	}
	return out
}

// closeWindow runs the clusterer over every host's interval vector and
// assembles the window result. Degenerate clustering (fewer hosts than
// clusters) skips classification for the window, counts it, and leaves
// previous assignments untouched.
func (g *Graph) closeWindow(end time.Time) *model.WindowResult {
	g.windowCnt++
	g.flushCnt++

	result := &model.WindowResult{
		Window:          g.windowCnt,
		Start:           g.windowFirst,
		End:             end,
		AttackCluster:   cluster.NoAttack,
		SuspiciousPorts: g.suspiciousPorts,
	}
	g.suspiciousPorts = nil

	if g.params.Mode&ModeSynFlood != 0 {
		g.classify(result)
	}

	for h := range g.Hosts() {
		result.Hosts = append(result.Hosts, h.report(true))
	}
	result.SkippedRecords = g.skippedRecords
	result.SkippedWindows = g.skippedWindows
	return result
}

func (g *Graph) classify(result *model.WindowResult) {
	vectors := make([][]float64, 0, len(g.hosts))
	members := make([]*Host, 0, len(g.hosts))
	for h := range g.Hosts() {
		vectors = append(vectors, h.buf.Vector())
		members = append(members, h)
	}

	res, err := cluster.Classify(vectors, g.params.Clusters,
		g.params.MinObservations, g.params.MaxIterations)
	if err != nil {
		g.skippedWindows++
		for _, h := range members {
			h.Cluster = cluster.Unclassified
			h.Distance = 0
			h.attacker = false
		}
		return
	}

	result.Classified = true
	result.AttackCluster = res.Attack
	for i, h := range members {
		h.Cluster = res.Assignments[i]
		h.Distance = res.Distances[i]
		h.attacker = res.IsAttacker(i)
	}
	for c := range res.Centroids {
		result.Clusters = append(result.Clusters, model.ClusterReport{
			ID:        c,
			Size:      res.Sizes[c],
			Deviation: res.Deviations[c],
			Centroid:  res.Centroids[c],
		})
	}
}

// reset empties the graph after flush_iter windows: trie, hosts, histogram
// and interval bookkeeping all go; the skip counters survive so the run
// never loses its countable signal.
func (g *Graph) reset() {
	g.index.Reset()
	g.hosts = g.hosts[:0]
	if g.ports != nil {
		for i := range g.ports {
			g.ports[i] = 0
		}
	}
	g.suspiciousPorts = nil
	g.intervalIdx = 0
	g.intervalCnt = 0
	g.flushCnt = 0
}
