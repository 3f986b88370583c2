package graph

import (
	"fmt"
	"time"
)

// Mode is the detection-mode bitmask.
type Mode uint8

const (
	ModeSynFlood       Mode = 0x01
	ModeVerticalScan   Mode = 0x02
	ModeHorizontalScan Mode = 0x04
	ModeAll            Mode = 0x07
)

// TrackSide selects which address of a flow record identifies the tracked
// host. For attack-direction tracking the destination is the canonical
// local host.
type TrackSide uint8

const (
	TrackDst TrackSide = iota
	TrackSrc
)

// Defaults carried over from the original detector.
const (
	DefaultInterval        = 60 * time.Second
	DefaultTimeWindow      = 3600 * time.Second
	DefaultPortWindow      = 300 * time.Second
	DefaultClusters        = 2
	DefaultMinObservations = 2
	DefaultMaxIterations   = 100
	DefaultExamThreshold   = 100
	DefaultPortThreshold   = 50
	DefaultHorizontalScale = 10.0

	// minIntervals is the floor on the interval-buffer length.
	minIntervals = 32
)

// Params is the immutable-after-init configuration of a Graph.
type Params struct {
	Mode            Mode
	Track           TrackSide
	Clusters        int
	Interval        time.Duration
	TimeWindow      time.Duration
	PortWindow      time.Duration
	FlushIter       int     // full graph reset every N windows; 0 = never
	ExamThreshold   uint32  // cumulative accesses before promotion to Trace
	PortThreshold   int     // distinct ports before the vertical-scan flag
	MinObservations int     // smallest believable normal cluster
	MaxIterations   int     // k-means iteration bound
	HorizontalScale float64 // multiple of the mean per-port rate
}

// DefaultParams returns the original detector's defaults with all detection
// modes enabled.
func DefaultParams() Params {
	return Params{
		Mode:            ModeAll,
		Track:           TrackDst,
		Clusters:        DefaultClusters,
		Interval:        DefaultInterval,
		TimeWindow:      DefaultTimeWindow,
		PortWindow:      DefaultPortWindow,
		ExamThreshold:   DefaultExamThreshold,
		PortThreshold:   DefaultPortThreshold,
		MinObservations: DefaultMinObservations,
		MaxIterations:   DefaultMaxIterations,
		HorizontalScale: DefaultHorizontalScale,
	}
}

// Validate checks the parameter combination before a Graph is built.
func (p Params) Validate() error {
	if p.Mode == 0 {
		return fmt.Errorf("graph: no detection mode enabled")
	}
	if p.Interval <= 0 {
		return fmt.Errorf("graph: interval must be positive, got %s", p.Interval)
	}
	if p.TimeWindow < p.Interval {
		return fmt.Errorf("graph: time window %s shorter than interval %s", p.TimeWindow, p.Interval)
	}
	if p.Mode&(ModeVerticalScan|ModeHorizontalScan) != 0 && p.PortWindow <= 0 {
		return fmt.Errorf("graph: port window must be positive, got %s", p.PortWindow)
	}
	if p.Clusters < 1 {
		return fmt.Errorf("graph: cluster count must be at least 1, got %d", p.Clusters)
	}
	if p.FlushIter < 0 {
		return fmt.Errorf("graph: flush iterations must not be negative, got %d", p.FlushIter)
	}
	return nil
}

// IntvlMax is the interval-buffer length: one slot per interval in the time
// window, floored at the original's minimum of 32.
func (p Params) IntvlMax() int {
	n := int(p.TimeWindow / p.Interval)
	if n < minIntervals {
		n = minIntervals
	}
	return n
}
