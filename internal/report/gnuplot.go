package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"FloodSight/internal/model"
)

const fileFormat = "2006-01-02_15-04-05"

// PlotWriter writes a gnuplot data file and script per window, plotting the
// interval vector of every flagged host. It implements model.ResultWriter
// and skips windows without attackers.
type PlotWriter struct {
	rootPath string
}

// NewPlotWriter creates a plot writer rooted at rootPath.
func NewPlotWriter(rootPath string) *PlotWriter {
	return &PlotWriter{rootPath: rootPath}
}

// Write emits data.txt and config.gpl for the window's attackers.
func (w *PlotWriter) Write(result *model.WindowResult) error {
	attackers := result.Attackers()
	if len(attackers) == 0 {
		return nil
	}

	dir := filepath.Join(w.rootPath, result.Start.Format(fileFormat))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}

	intervals := 0
	for _, h := range attackers {
		if len(h.Intervals) > intervals {
			intervals = len(h.Intervals)
		}
	}

	dataPath := filepath.Join(dir, "data.txt")
	data, err := os.Create(dataPath)
	if err != nil {
		return fmt.Errorf("failed to create plot data file: %w", err)
	}
	defer data.Close()

	for i := 0; i < intervals; i++ {
		fmt.Fprintf(data, "%d", i)
		for _, h := range attackers {
			v := 0.0
			if i < len(h.Intervals) {
				v = h.Intervals[i]
			}
			fmt.Fprintf(data, " %.0f", v)
		}
		fmt.Fprintln(data)
	}

	scriptPath := filepath.Join(dir, "config.gpl")
	script, err := os.Create(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to create gnuplot script: %w", err)
	}
	defer script.Close()

	var plots []string
	for i, h := range attackers {
		plots = append(plots, fmt.Sprintf("'%s' using 1:%d with lines title '%s'",
			dataPath, i+2, h.IP))
	}

	fmt.Fprintf(script, "set terminal png size 1024,768\n")
	fmt.Fprintf(script, "set output '%s'\n", filepath.Join(dir, "attackers.png"))
	fmt.Fprintf(script, "set title 'SYN packets per interval, window %d'\n", result.Window)
	fmt.Fprintf(script, "set xlabel 'interval'\n")
	fmt.Fprintf(script, "set ylabel 'SYN packets'\n")
	fmt.Fprintf(script, "plot %s\n", strings.Join(plots, ", \\\n     "))

	return nil
}
