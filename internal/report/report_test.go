package report

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"FloodSight/internal/model"
)

func sampleResult() *model.WindowResult {
	start := time.Date(2014, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.WindowResult{
		Window:     1,
		Start:      start,
		End:        start.Add(time.Hour),
		Classified: true,
		Hosts: []model.HostReport{
			{IP: net.ParseIP("10.0.0.1"), Cluster: 0, Accesses: 12, SynTotal: 3},
			{IP: net.ParseIP("10.0.0.3"), Cluster: 1, Accesses: 500, SynTotal: 3300,
				Distance: 1.5, Attacker: true, Intervals: []float64{50, 60, 55}},
		},
		Clusters: []model.ClusterReport{
			{ID: 0, Size: 1, Deviation: 0.5},
			{ID: 1, Size: 1, Deviation: 2.0},
		},
		SuspiciousPorts: []model.PortReport{{Port: 22, Accesses: 400}},
		AttackCluster:   1,
	}
}

func TestTextWriterBrief(t *testing.T) {
	var out strings.Builder
	w := NewTextWriter(&out, VerboseBrief)

	if err := w.Write(sampleResult()); err != nil {
		t.Fatal(err)
	}
	text := out.String()

	if !strings.Contains(text, "Window 1") {
		t.Error("missing window header")
	}
	if !strings.Contains(text, "ATTACK 10.0.0.3") {
		t.Error("missing attacker line")
	}
	if !strings.Contains(text, "SCAN   port 22") {
		t.Error("missing suspicious port line")
	}
	if strings.Contains(text, "cluster 0:") {
		t.Error("brief report must not contain cluster details")
	}
	if strings.Contains(text, "intervals:") {
		t.Error("brief report must not contain interval vectors")
	}
}

func TestTextWriterExtra(t *testing.T) {
	var out strings.Builder
	w := NewTextWriter(&out, VerboseExtra)

	if err := w.Write(sampleResult()); err != nil {
		t.Fatal(err)
	}
	text := out.String()

	if !strings.Contains(text, "cluster 1: 1 hosts") {
		t.Error("missing cluster summary")
	}
	if !strings.Contains(text, "intervals: 50 60 55") {
		t.Error("missing interval vector")
	}
}

func TestTextWriterFullResolvesNames(t *testing.T) {
	var out strings.Builder
	w := NewTextWriter(&out, VerboseFull)
	w.resolver = func(addr string) ([]string, error) {
		return []string{"attacker.example.net."}, nil
	}

	if err := w.Write(sampleResult()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "(attacker.example.net)") {
		t.Error("missing resolved name")
	}
}

func TestPlotWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewPlotWriter(dir)
	result := sampleResult()

	if err := w.Write(result); err != nil {
		t.Fatal(err)
	}

	windowDir := filepath.Join(dir, result.Start.Format(fileFormat))
	data, err := os.ReadFile(filepath.Join(windowDir, "data.txt"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("data.txt has %d lines, want 3", len(lines))
	}
	if lines[0] != "0 50" {
		t.Errorf("first data line = %q, want %q", lines[0], "0 50")
	}

	script, err := os.ReadFile(filepath.Join(windowDir, "config.gpl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(script), "title '10.0.0.3'") {
		t.Error("script does not plot the attacker")
	}
}

func TestPlotWriterSkipsQuietWindow(t *testing.T) {
	dir := t.TempDir()
	w := NewPlotWriter(dir)

	result := sampleResult()
	result.Hosts[1].Attacker = false

	if err := w.Write(result); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("quiet window produced %d entries, want none", len(entries))
	}
}
