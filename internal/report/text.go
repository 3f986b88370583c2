// Package report renders window results for humans: a leveled text report
// and gnuplot output for the flagged hosts.
package report

import (
	"fmt"
	"io"
	"net"
	"strings"

	"FloodSight/internal/model"
)

// Verbosity levels, lowest to highest.
const (
	VerboseBrief    = 1 // window summary and attacker list
	VerboseBasic    = 2 // plus cluster shapes
	VerboseAdvanced = 3 // plus one line per host
	VerboseExtra    = 4 // plus full interval vectors
	VerboseFull     = 5 // plus reverse DNS for every listed host
)

const timeFormat = "Mon Jan 02 2006 15:04:05"

// Resolver turns an address into display names. Swapped out in tests.
type Resolver func(addr string) ([]string, error)

// TextWriter renders window results as text at a configured verbosity.
// It implements model.ResultWriter.
type TextWriter struct {
	out       io.Writer
	verbosity int
	resolver  Resolver
}

// NewTextWriter creates a text report writer. Verbosity outside 1..5 is
// clamped.
func NewTextWriter(out io.Writer, verbosity int) *TextWriter {
	if verbosity < VerboseBrief {
		verbosity = VerboseBrief
	}
	if verbosity > VerboseFull {
		verbosity = VerboseFull
	}
	return &TextWriter{out: out, verbosity: verbosity, resolver: net.LookupAddr}
}

// Write renders one window result.
func (w *TextWriter) Write(result *model.WindowResult) error {
	var b strings.Builder

	attackers := result.Attackers()
	fmt.Fprintf(&b, "Window %d  %s - %s\n", result.Window,
		result.Start.Format(timeFormat), result.End.Format(timeFormat))
	fmt.Fprintf(&b, "  hosts: %d  attackers: %d  suspicious ports: %d  skipped records: %d  skipped windows: %d\n",
		len(result.Hosts), len(attackers), len(result.SuspiciousPorts),
		result.SkippedRecords, result.SkippedWindows)
	if !result.Classified {
		b.WriteString("  classification skipped (too few hosts)\n")
	}

	for _, h := range attackers {
		fmt.Fprintf(&b, "  ATTACK %-16s syn=%.0f accesses=%d distance=%.2f%s\n",
			h.IP, h.SynTotal, h.Accesses, h.Distance, w.names(h.IP))
	}
	for _, p := range result.SuspiciousPorts {
		fmt.Fprintf(&b, "  SCAN   port %-5d accesses=%d\n", p.Port, p.Accesses)
	}

	if w.verbosity >= VerboseBasic {
		for _, c := range result.Clusters {
			fmt.Fprintf(&b, "  cluster %d: %d hosts, deviation %.2f\n", c.ID, c.Size, c.Deviation)
		}
	}

	if w.verbosity >= VerboseAdvanced {
		for _, h := range result.Hosts {
			flag := " "
			if h.Attacker {
				flag = "!"
			}
			fmt.Fprintf(&b, "  %s %-16s cluster=%d distance=%.2f accesses=%d syn=%.0f ports=%d%s\n",
				flag, h.IP, h.Cluster, h.Distance, h.Accesses, h.SynTotal,
				h.DistinctPorts, w.names(h.IP))
			if h.VerticalScan {
				fmt.Fprintf(&b, "    vertical scan suspect\n")
			}
			if w.verbosity >= VerboseExtra && len(h.Intervals) > 0 {
				fmt.Fprintf(&b, "    intervals: %s\n", formatVector(h.Intervals))
			}
		}
	}

	_, err := io.WriteString(w.out, b.String())
	return err
}

// names resolves an address at full verbosity only; lookups are slow and
// the report must stay usable offline.
func (w *TextWriter) names(ip net.IP) string {
	if w.verbosity < VerboseFull || w.resolver == nil {
		return ""
	}
	names, err := w.resolver(ip.String())
	if err != nil || len(names) == 0 {
		return ""
	}
	return " (" + strings.TrimSuffix(names[0], ".") + ")"
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.0f", x)
	}
	return strings.Join(parts, " ")
}
