package model

import (
	"encoding/binary"
	"net"
	"time"
)

// Protocol numbers recognized by the detector.
const (
	ProtocolTCP = 6
	ProtocolUDP = 17
)

// FlowRecord holds the fields of a single flow record as delivered by a
// flow source. Addresses are IPv4.
type FlowRecord struct {
	DstIP     net.IP    `json:"dst_ip"`
	SrcIP     net.IP    `json:"src_ip"`
	DstPort   uint32    `json:"dst_port"`
	SrcPort   uint32    `json:"src_port"`
	Protocol  uint8     `json:"protocol"`
	TimeFirst time.Time `json:"time_first"`
	TimeLast  time.Time `json:"time_last"`
	Bytes     uint64    `json:"bytes"`
	Packets   uint32    `json:"packets"`
	SynFlag   bool      `json:"syn_flag"`
}

// AddrKey converts an IPv4 address to the 32-bit key used by the host trie.
// Returns false for non-IPv4 addresses.
func AddrKey(ip net.IP) (uint32, bool) {
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v4), true
}

// KeyAddr is the inverse of AddrKey.
func KeyAddr(key uint32) net.IP {
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, key)
	return ip
}

// HostReport is the per-host outcome of one classification window.
type HostReport struct {
	IP            net.IP    `json:"ip"`
	Cluster       int       `json:"cluster"`
	Distance      float64   `json:"distance"`
	Accesses      uint32    `json:"accesses"`
	SynTotal      float64   `json:"syn_total"`
	DistinctPorts int       `json:"distinct_ports"`
	Attacker      bool      `json:"attacker"`
	VerticalScan  bool      `json:"vertical_scan"`
	Intervals     []float64 `json:"intervals,omitempty"`
}

// ClusterReport describes one cluster after a classification window.
type ClusterReport struct {
	ID        int       `json:"id"`
	Size      int       `json:"size"`
	Deviation float64   `json:"deviation"`
	Centroid  []float64 `json:"centroid"`
}

// PortReport flags a destination port probed across many hosts within a
// port-scan window (horizontal scan).
type PortReport struct {
	Port     uint16 `json:"port"`
	Accesses uint32 `json:"accesses"`
}

// WindowResult is the full outcome of one time window: host classifications,
// cluster shapes, suspicious ports, and the skip counters accumulated so
// far. Classified is false when the window had fewer hosts than clusters
// and classification was skipped.
type WindowResult struct {
	Window          int             `json:"window"`
	Start           time.Time       `json:"start"`
	End             time.Time       `json:"end"`
	Classified      bool            `json:"classified"`
	AttackCluster   int             `json:"attack_cluster"`
	Hosts           []HostReport    `json:"hosts"`
	Clusters        []ClusterReport `json:"clusters"`
	SuspiciousPorts []PortReport    `json:"suspicious_ports"`
	SkippedRecords  uint64          `json:"skipped_records"`
	SkippedWindows  uint64          `json:"skipped_windows"`
}

// Attackers returns the hosts flagged as SYN-flood attackers in this window.
func (r *WindowResult) Attackers() []HostReport {
	var out []HostReport
	for _, h := range r.Hosts {
		if h.Attacker {
			out = append(out, h)
		}
	}
	return out
}
